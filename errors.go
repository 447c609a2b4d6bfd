package steamtrade

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrRateLimited         = errors.New("rate limited")
	ErrForbidden           = errors.New("access forbidden")
	ErrNeedTwoFactor       = errors.New("two-factor code required")
	ErrLoginFailed         = errors.New("login incomplete")
	ErrMalformedTradeURL   = errors.New("trade URL missing partner or token")
	ErrInvalidSharedSecret = errors.New("shared secret is not valid base32")
	ErrDuplicateAsset      = errors.New("asset already present on this side of the offer")
	ErrOfferClosed         = errors.New("trade offer already submitted")
)

// StatusError is returned for any response status that is neither a
// success nor one of the specifically classified statuses (429, 403).
// The body is kept for diagnostics.
type StatusError struct {
	Code int
	Body []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected http status %d", e.Code)
}

// ProtocolError means the server answered but the payload did not match
// the expected schema, or the server itself signalled failure. The raw
// body is kept so callers can diagnose shapes this library doesn't know.
type ProtocolError struct {
	Op   string
	Body []byte
	Err  error
}

func (e *ProtocolError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": unexpected response"
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// classifyStatus maps a non-success response onto the failure taxonomy.
// Returns nil for 2xx. For unclassified statuses the body is drained
// into the returned StatusError.
func classifyStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	default:
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{Code: resp.StatusCode, Body: body}
	}
}
