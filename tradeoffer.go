/*
   Steam Library For Go
   Copyright (C) 2016 Ahmed Samy <f.fallen45@gmail.com>

   This library is free software; you can redistribute it and/or
   modify it under the terms of the GNU Lesser General Public
   License as published by the Free Software Foundation; either
   version 2.1 of the License, or (at your option) any later version.

   This library is distributed in the hope that it will be useful,
   but WITHOUT ANY WARRANTY; without even the implied warranty of
   MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
   Lesser General Public License for more details.

   You should have received a copy of the GNU Lesser General Public
   License along with this library; if not, write to the Free Software
   Foundation, Inc., 51 Franklin St, Fifth Floor, Boston, MA  02110-1301  USA
*/
package steamtrade

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// OfferAsset is the wire-level identity of one unit offered in a
// trade: everything the platform needs to transfer it.
type OfferAsset struct {
	AppID     string `json:"appid"`
	ContextID string `json:"contextid"`
	Amount    string `json:"amount"`
	AssetID   string `json:"assetid"`
}

type offerSide struct {
	Assets   []OfferAsset `json:"assets"`
	Currency []string     `json:"currency"`
	Ready    bool         `json:"ready"`
}

type offerContents struct {
	NewVersion bool      `json:"newversion"`
	Version    int       `json:"version"`
	Me         offerSide `json:"me"`
	Them       offerSide `json:"them"`
}

const (
	offerDraft = iota
	offerSubmitted
	offerFailed
)

// TradeOffer is a pending two-sided exchange under construction. It is
// mutable until submitted; after Send returns (success or classified
// failure) the offer is terminal and a new exchange needs a new offer.
type TradeOffer struct {
	partner  SteamID
	token    string
	message  string
	contents offerContents
	state    int
}

// SentOffer is the platform's answer to a successful submission.
type SentOffer struct {
	ID                      uint64 `json:"tradeofferid,string"`
	NeedsMobileConfirmation bool   `json:"needs_mobile_confirmation"`
	NeedsEmailConfirmation  bool   `json:"needs_email_confirmation"`
	EmailDomain             string `json:"email_domain"`
}

type sentOfferResponse struct {
	SentOffer
	ErrorMessage string `json:"strError"`
}

// NewTradeOffer creates an empty draft offer for the given counterparty
// and their trade access token.
func NewTradeOffer(partner SteamID, accessToken string) *TradeOffer {
	side := func() offerSide {
		return offerSide{Assets: []OfferAsset{}, Currency: []string{}}
	}

	return &TradeOffer{
		partner: partner,
		token:   accessToken,
		contents: offerContents{
			NewVersion: true,
			Version:    4,
			Me:         side(),
			Them:       side(),
		},
	}
}

// NewTradeOfferFromURL creates a draft offer from a full trade offer
// URL, resolving the compact partner fragment to a SteamID 64.
func NewTradeOfferFromURL(rawURL string) (*TradeOffer, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedTradeURL, err)
	}

	query := parsed.Query()
	partner := query.Get("partner")
	token := query.Get("token")
	if partner == "" || token == "" {
		return nil, ErrMalformedTradeURL
	}

	fragment, err := strconv.ParseUint(partner, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: bad partner fragment: %v", ErrMalformedTradeURL, err)
	}

	return NewTradeOffer(SteamIDFromPartner(uint32(fragment)), token), nil
}

func (offer *TradeOffer) Partner() SteamID {
	return offer.partner
}

func (offer *TradeOffer) AccessToken() string {
	return offer.token
}

func (offer *TradeOffer) Message() string {
	return offer.message
}

// Closed reports whether the offer reached a terminal state.
func (offer *TradeOffer) Closed() bool {
	return offer.state != offerDraft
}

func (offer *TradeOffer) SetMessage(message string) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	offer.message = message
	return nil
}

func addItem(side *offerSide, asset OfferAsset) error {
	for _, present := range side.Assets {
		if present.AssetID == asset.AssetID {
			return ErrDuplicateAsset
		}
	}

	side.Assets = append(side.Assets, asset)
	return nil
}

// addItems validates the whole batch before touching the side, so a
// duplicate anywhere in it leaves the side unchanged.
func addItems(side *offerSide, assets []OfferAsset) error {
	present := map[string]bool{}
	for _, asset := range side.Assets {
		present[asset.AssetID] = true
	}

	for _, asset := range assets {
		if present[asset.AssetID] {
			return ErrDuplicateAsset
		}
		present[asset.AssetID] = true
	}

	side.Assets = append(side.Assets, assets...)
	return nil
}

// removeItem drops the asset with the given id; removing an id that is
// not present is a no-op.
func removeItem(side *offerSide, assetID string) {
	kept := side.Assets[:0]
	for _, asset := range side.Assets {
		if asset.AssetID != assetID {
			kept = append(kept, asset)
		}
	}

	side.Assets = kept
}

func (offer *TradeOffer) AddSelfItem(asset OfferAsset) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	return addItem(&offer.contents.Me, asset)
}

// AddSelfItems adds a batch to the session account's side,
// all-or-nothing.
func (offer *TradeOffer) AddSelfItems(assets []OfferAsset) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	return addItems(&offer.contents.Me, assets)
}

func (offer *TradeOffer) AddPartnerItem(asset OfferAsset) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	return addItem(&offer.contents.Them, asset)
}

// AddPartnerItems adds a batch to the counterparty's side,
// all-or-nothing.
func (offer *TradeOffer) AddPartnerItems(assets []OfferAsset) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	return addItems(&offer.contents.Them, assets)
}

func (offer *TradeOffer) RemoveSelfItem(assetID string) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	removeItem(&offer.contents.Me, assetID)
	return nil
}

func (offer *TradeOffer) RemoveSelfItems(assetIDs []string) error {
	for _, id := range assetIDs {
		if err := offer.RemoveSelfItem(id); err != nil {
			return err
		}
	}

	return nil
}

func (offer *TradeOffer) RemovePartnerItem(assetID string) error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	removeItem(&offer.contents.Them, assetID)
	return nil
}

func (offer *TradeOffer) RemovePartnerItems(assetIDs []string) error {
	for _, id := range assetIDs {
		if err := offer.RemovePartnerItem(id); err != nil {
			return err
		}
	}

	return nil
}

func (offer *TradeOffer) ToggleSelfReady() error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	offer.contents.Me.Ready = !offer.contents.Me.Ready
	return nil
}

func (offer *TradeOffer) TogglePartnerReady() error {
	if offer.Closed() {
		return ErrOfferClosed
	}

	offer.contents.Them.Ready = !offer.contents.Them.Ready
	return nil
}

// SelfAssets returns a copy of the assets currently on the session
// account's side.
func (offer *TradeOffer) SelfAssets() []OfferAsset {
	return append([]OfferAsset(nil), offer.contents.Me.Assets...)
}

// PartnerAssets returns a copy of the assets currently on the
// counterparty's side.
func (offer *TradeOffer) PartnerAssets() []OfferAsset {
	return append([]OfferAsset(nil), offer.contents.Them.Assets...)
}

// newSessionID derives a fresh per-submission session identifier from
// the system CSPRNG.
func newSessionID() (string, error) {
	raw := make([]byte, 12)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}

	return hex.EncodeToString(raw), nil
}

// Send submits the offer. The two-sided contents and the access-token
// wrapper travel as JSON strings nested inside the form body; the
// request carries the session's auth cookie with the fresh sessionid
// appended, and a Referer the platform insists on. Any outcome other
// than success leaves the offer terminally failed.
func (offer *TradeOffer) Send(session *Session) (*SentOffer, error) {
	if offer.Closed() {
		return nil, ErrOfferClosed
	}

	sessionID, err := newSessionID()
	if err != nil {
		return nil, err
	}

	contentJSON, err := json.Marshal(offer.contents)
	if err != nil {
		return nil, err
	}

	params, err := json.Marshal(map[string]string{
		"trade_offer_access_token": offer.token,
	})
	if err != nil {
		return nil, err
	}

	form := url.Values{
		"sessionid":                 {sessionID},
		"serverid":                  {"1"},
		"partner":                   {offer.partner.ToString()},
		"tradeoffermessage":         {offer.message},
		"json_tradeoffer":           {string(contentJSON)},
		"captcha":                   {""},
		"trade_offer_create_params": {string(params)},
	}

	req, err := http.NewRequest(http.MethodPost, session.community+"/tradeoffer/new/send", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Add("Referer", fmt.Sprintf("%s/tradeoffer/new/?partner=%d&token=%s", session.community, offer.partner.PartnerID(), offer.token))
	req.Header.Add("Cookie", session.authCookie+"sessionid="+sessionID+";")

	session.log.WithFields(logrus.Fields{
		"partner":       offer.partner.ToString(),
		"self_items":    len(offer.contents.Me.Assets),
		"partner_items": len(offer.contents.Them.Assets),
	}).Debug("sending trade offer")

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		offer.state = offerFailed
		return nil, fmt.Errorf("send trade offer: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		offer.state = offerFailed
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		offer.state = offerFailed
		return nil, fmt.Errorf("send trade offer: %w", err)
	}

	var sent sentOfferResponse
	if err := json.Unmarshal(body, &sent); err != nil {
		offer.state = offerFailed
		return nil, &ProtocolError{Op: "send trade offer", Body: body, Err: err}
	}

	if sent.ErrorMessage != "" {
		offer.state = offerFailed
		return nil, &ProtocolError{Op: "send trade offer", Body: body, Err: errors.New(sent.ErrorMessage)}
	}

	if sent.ID == 0 {
		offer.state = offerFailed
		return nil, &ProtocolError{Op: "send trade offer", Body: body, Err: errors.New("no offer id included")}
	}

	offer.state = offerSubmitted
	return &sent.SentOffer, nil
}
