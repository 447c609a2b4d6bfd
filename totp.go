package steamtrade

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"fmt"
	"strings"
	"time"
)

const totpPeriod = 30

// GenerateTwoFactorCode derives the current six-digit one-time code
// from a base32 shared secret.
func GenerateTwoFactorCode(sharedSecret string) (string, error) {
	return twoFactorCodeAt(sharedSecret, time.Now())
}

func twoFactorCodeAt(sharedSecret string, t time.Time) (string, error) {
	normalized := strings.ToUpper(strings.ReplaceAll(sharedSecret, " ", ""))
	normalized = strings.TrimRight(normalized, "=")

	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(normalized)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSharedSecret, err)
	}

	counter := make([]byte, 8)
	binary.BigEndian.PutUint64(counter, uint64(t.Unix()/totpPeriod))

	mac := hmac.New(sha1.New, key)
	mac.Write(counter)
	sum := mac.Sum(nil)

	// Dynamic truncation, RFC 4226 §5.3.
	start := sum[len(sum)-1] & 0x0F
	code := binary.BigEndian.Uint32(sum[start:start+4]) & 0x7FFFFFFF

	return fmt.Sprintf("%06d", code%1000000), nil
}
