package steamtrade

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"
)

const (
	CurrencyUSD = "1"
	CurrencyGBP = "2"
	CurrencyEUR = "3"
	CurrencyCHF = "4"
	CurrencyRUB = "5"
	CurrencyPLN = "6"
	CurrencyBRL = "7"
	CurrencyJPY = "8"
	CurrencyNOK = "9"
	CurrencyIDR = "10"
	CurrencyMYR = "11"
	CurrencyPHP = "12"
	CurrencySGD = "13"
	CurrencyTHB = "14"
	CurrencyVND = "15"
	CurrencyKRW = "16"
	CurrencyTRY = "17"
	CurrencyUAH = "18"
	CurrencyMXN = "19"
	CurrencyCAD = "20"
	CurrencyAUD = "21"
	CurrencyNZD = "22"
	CurrencyCNY = "23"
	CurrencyINR = "24"
	CurrencyCLP = "25"
	CurrencyPEN = "26"
	CurrencyCOP = "27"
	CurrencyZAR = "28"
	CurrencyHKD = "29"
	CurrencyTWD = "30"
	CurrencySAR = "31"
	CurrencyAED = "32"
)

// priceCacheTTL bounds how long a market quote is reused while an
// offer is being assembled. Inventory snapshots are never cached.
const priceCacheTTL = 5 * time.Minute

type PriceOverview struct {
	Success     bool   `json:"success"`
	LowestPrice string `json:"lowest_price"`
	MedianPrice string `json:"median_price"`
	Volume      string `json:"volume"`
}

var ErrCannotLoadPrices = errors.New("unable to load prices at this time")

// GetPriceOverview fetches the market quote for one item, serving
// repeated lookups from the session's cache.
func (session *Session) GetPriceOverview(appID uint64, currency, marketHashName string) (*PriceOverview, error) {
	cacheKey := strconv.FormatUint(appID, 10) + "/" + currency + "/" + marketHashName
	if cached, ok := session.prices.Get(cacheKey); ok {
		return cached.(*PriceOverview), nil
	}

	resp, err := session.client.Get(session.community + "/market/priceoverview/?" + url.Values{
		"appid":            {strconv.FormatUint(appID, 10)},
		"currency":         {currency},
		"market_hash_name": {marketHashName},
	}.Encode())
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("fetch price overview: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch price overview: %w", err)
	}

	overview := &PriceOverview{}
	if err := json.Unmarshal(body, overview); err != nil {
		return nil, &ProtocolError{Op: "fetch price overview", Body: body, Err: err}
	}

	if !overview.Success {
		return nil, ErrCannotLoadPrices
	}

	session.prices.SetWithTTL(cacheKey, overview, 1, priceCacheTTL)
	return overview, nil
}
