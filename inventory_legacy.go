package steamtrade

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// LegacyInventory is the older /inventory/json snapshot shape, kept for
// profiles and apps the modern endpoint does not serve. Items and
// descriptions are keyed maps rather than ordered lists.
type LegacyInventory struct {
	Success      bool                         `json:"success"`
	Items        map[string]LegacyItem        `json:"rgInventory"`
	Descriptions map[string]LegacyDescription `json:"rgDescriptions"`
	More         bool                         `json:"more"`
}

type LegacyItem struct {
	ID         string `json:"id"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
	Pos        int    `json:"pos"`
}

type LegacyDescription struct {
	AppID                     string            `json:"appid"`
	ClassID                   string            `json:"classid"`
	InstanceID                string            `json:"instanceid"`
	IconURL                   string            `json:"icon_url"`
	IconURLLarge              string            `json:"icon_url_large,omitempty"`
	Name                      string            `json:"name"`
	MarketHashName            string            `json:"market_hash_name"`
	MarketName                string            `json:"market_name"`
	NameColor                 string            `json:"name_color"`
	BackgroundColor           string            `json:"background_color"`
	Type                      string            `json:"type"`
	Tradable                  int               `json:"tradable"`
	Marketable                int               `json:"marketable"`
	Commodity                 int               `json:"commodity"`
	MarketTradableRestriction string            `json:"market_tradable_restriction"`
	FraudWarnings             []string          `json:"fraudwarnings,omitempty"`
	Descriptions              []DescriptionLine `json:"descriptions"`
	OwnerDescriptions         OwnerDescriptions `json:"owner_descriptions,omitempty"`
	Tags                      []LegacyTag       `json:"tags"`
}

type LegacyTag struct {
	InternalName string `json:"internal_name"`
	Name         string `json:"name"`
	Category     string `json:"category"`
	CategoryName string `json:"category_name"`
	Color        string `json:"color,omitempty"`
}

// OwnerDescriptions models a field the platform serves either as a
// list of description lines or as a bare string. The decoded shape is
// inspected explicitly; IsText tells the two variants apart.
type OwnerDescriptions struct {
	Lines  []DescriptionLine
	Text   string
	IsText bool
}

func (o *OwnerDescriptions) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*o = OwnerDescriptions{}
		return nil
	}

	switch trimmed[0] {
	case '"':
		o.Lines = nil
		o.IsText = true
		return json.Unmarshal(trimmed, &o.Text)
	case '[':
		o.Text = ""
		o.IsText = false
		return json.Unmarshal(trimmed, &o.Lines)
	default:
		return errors.New("owner_descriptions is neither a list nor a string")
	}
}

func (o OwnerDescriptions) MarshalJSON() ([]byte, error) {
	if o.IsText {
		return json.Marshal(o.Text)
	}
	return json.Marshal(o.Lines)
}

// GetLegacyInventory fetches a snapshot from the legacy endpoint. The
// endpoint requires the session's authentication cookie even for
// public profiles.
func (session *Session) GetLegacyInventory(sid SteamID, appID, contextID uint64) (*LegacyInventory, error) {
	requestURL := fmt.Sprintf("%s/profiles/%s/inventory/json/%d/%d/?l=english", session.community, sid.ToString(), appID, contextID)

	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	req.Header.Add("Cookie", session.authCookie)

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("fetch legacy inventory: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch legacy inventory: %w", err)
	}

	var inventory LegacyInventory
	if err := json.Unmarshal(body, &inventory); err != nil {
		return nil, &ProtocolError{Op: "fetch legacy inventory", Body: body, Err: err}
	}

	return &inventory, nil
}
