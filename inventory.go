package steamtrade

import (
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

// Tag categories the community inventory uses for CS:GO-style items.
// The per-category value vocabularies ("Covert", "Field-Tested", ...)
// are plain data; pass them to FilterByTag as-is.
const (
	TagCategoryQuality  = "Quality"
	TagCategoryCategory = "Category"
	TagCategoryExterior = "Exterior"
	TagCategoryType     = "Type"
)

// Inventory is a point-in-time snapshot of one profile's items for a
// single app/context pair. It is immutable after construction.
// MoreItems is zero on a complete snapshot; GetInventory follows the
// cursor until it is.
type Inventory struct {
	Assets              []Asset            `json:"assets"`
	Descriptions        []AssetDescription `json:"descriptions"`
	TotalInventoryCount int64              `json:"total_inventory_count"`
	Success             int                `json:"success"`
	Rwgrsn              int                `json:"rwgrsn"`
	MoreItems           int                `json:"more_items"`
	LastAssetID         string             `json:"last_assetid"`
}

// Asset is one physical, uniquely owned unit of an item.
type Asset struct {
	AppID      int64  `json:"appid"`
	ContextID  string `json:"contextid"`
	AssetID    string `json:"assetid"`
	ClassID    string `json:"classid"`
	InstanceID string `json:"instanceid"`
	Amount     string `json:"amount"`
}

// AssetDescription is the shared metadata record for a class of items,
// keyed by (classid, instanceid); many assets may share one description.
type AssetDescription struct {
	AppID                     int64             `json:"appid"`
	ClassID                   string            `json:"classid"`
	InstanceID                string            `json:"instanceid"`
	Currency                  int64             `json:"currency"`
	BackgroundColor           string            `json:"background_color"`
	IconURL                   string            `json:"icon_url"`
	IconURLLarge              string            `json:"icon_url_large,omitempty"`
	Descriptions              []DescriptionLine `json:"descriptions"`
	Tradable                  int               `json:"tradable"`
	Actions                   []ItemAction      `json:"actions,omitempty"`
	Name                      string            `json:"name"`
	NameColor                 string            `json:"name_color,omitempty"`
	Type                      string            `json:"type"`
	MarketName                string            `json:"market_name"`
	MarketHashName            string            `json:"market_hash_name"`
	MarketActions             []ItemAction      `json:"market_actions,omitempty"`
	Commodity                 int               `json:"commodity"`
	MarketTradableRestriction int               `json:"market_tradable_restriction"`
	Marketable                int               `json:"marketable"`
	Tags                      []Tag             `json:"tags"`
}

type DescriptionLine struct {
	Type  string `json:"type,omitempty"`
	Value string `json:"value"`
	Color string `json:"color,omitempty"`
}

type ItemAction struct {
	Link string `json:"link"`
	Name string `json:"name"`
}

type Tag struct {
	Category              string `json:"category"`
	InternalName          string `json:"internal_name"`
	LocalizedCategoryName string `json:"localized_category_name"`
	LocalizedTagName      string `json:"localized_tag_name"`
	Color                 string `json:"color,omitempty"`
}

// GetInventory fetches the profile's full inventory snapshot for the
// given app/context pair, following the pagination cursor until the
// community reports no more items. The profile must be public or
// visible to the session's account.
func (session *Session) GetInventory(sid SteamID, appID, contextID uint64) (*Inventory, error) {
	inventory, err := session.fetchInventoryPage(sid, appID, contextID, "")
	if err != nil {
		return nil, err
	}

	// Descriptions repeat across pages; assets never do.
	seen := map[string]bool{}
	for _, desc := range inventory.Descriptions {
		seen[desc.ClassID+"_"+desc.InstanceID] = true
	}

	for inventory.MoreItems != 0 {
		if inventory.LastAssetID == "" {
			return nil, &ProtocolError{Op: "fetch inventory", Err: errors.New("pagination cursor missing")}
		}

		page, err := session.fetchInventoryPage(sid, appID, contextID, inventory.LastAssetID)
		if err != nil {
			return nil, err
		}

		inventory.Assets = append(inventory.Assets, page.Assets...)
		for _, desc := range page.Descriptions {
			key := desc.ClassID + "_" + desc.InstanceID
			if seen[key] {
				continue
			}
			seen[key] = true
			inventory.Descriptions = append(inventory.Descriptions, desc)
		}

		inventory.MoreItems = page.MoreItems
		inventory.LastAssetID = page.LastAssetID
	}

	return inventory, nil
}

func (session *Session) fetchInventoryPage(sid SteamID, appID, contextID uint64, startAssetID string) (*Inventory, error) {
	requestURL := fmt.Sprintf("%s/inventory/%s/%d/%d?l=english", session.community, sid.ToString(), appID, contextID)
	if startAssetID != "" {
		requestURL += "&start_assetid=" + url.QueryEscape(startAssetID)
	}

	req, err := http.NewRequest(http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Accept", "application/json")
	if session.authCookie != "" {
		req.Header.Add("Cookie", session.authCookie)
	}

	session.log.WithFields(logrus.Fields{
		"steamid": sid.ToString(),
		"appid":   appID,
		"context": contextID,
		"start":   startAssetID,
	}).Debug("fetching inventory")

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory: %w", err)
	}

	var inventory Inventory
	if err := json.Unmarshal(body, &inventory); err != nil {
		return nil, &ProtocolError{Op: "fetch inventory", Body: body, Err: err}
	}

	return &inventory, nil
}

// SearchItemName returns the first description whose market name
// contains name as a substring, nil if none matches. Matching is
// case-sensitive and follows snapshot order, so an ambiguous query
// returns an arbitrary one of the candidates.
func (inv *Inventory) SearchItemName(name string) *AssetDescription {
	for i := range inv.Descriptions {
		if strings.Contains(inv.Descriptions[i].MarketName, name) {
			return &inv.Descriptions[i]
		}
	}

	return nil
}

// FilterByTag returns every description carrying a tag of the given
// category with the given localized name, in snapshot order.
func (inv *Inventory) FilterByTag(category, localizedName string) []AssetDescription {
	return inv.FilterDescriptions(HasTag(category, localizedName))
}

// TradeItems resolves the requested descriptions to offer-ready asset
// references, one per physical asset, amount fixed at 1. The same
// description may be requested multiple times for stackable ownership;
// the seen guard is keyed on asset id so no physical asset is ever
// emitted twice in one resolution.
func (inv *Inventory) TradeItems(items []AssetDescription) []OfferAsset {
	assets := []OfferAsset{}
	seen := map[string]bool{}

	for _, item := range items {
		for _, asset := range inv.Assets {
			if seen[asset.AssetID] {
				continue
			}

			if item.ClassID == asset.ClassID && item.InstanceID == asset.InstanceID {
				assets = append(assets, OfferAsset{
					AppID:     strconv.FormatInt(asset.AppID, 10),
					ContextID: asset.ContextID,
					Amount:    "1",
					AssetID:   asset.AssetID,
				})
				seen[asset.AssetID] = true
			}
		}
	}

	return assets
}
