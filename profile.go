package steamtrade

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

type InventoryContext struct {
	ID         uint64 `json:"id,string"` /* Apparently context id needs at least 64 bits...  */
	AssetCount uint32 `json:"asset_count"`
	Name       string `json:"name"`
}

// InventoryApp describes one application's holdings on a profile,
// including the context ids an inventory fetch needs.
type InventoryApp struct {
	AppID      uint64                       `json:"appid"`
	Name       string                       `json:"name"`
	AssetCount uint32                       `json:"asset_count"`
	Icon       string                       `json:"icon"`
	Link       string                       `json:"link"`
	Contexts   map[string]*InventoryContext `json:"rgContexts"`
}

var (
	appContextRegexp = regexp.MustCompile(`var g_rgAppContextData = (.*?);[\r\n]`)

	ErrAppContextNotFound = errors.New("unable to find app context data on inventory page")
)

// GetInventoryApps enumerates the apps and context ids present on a
// profile's inventory page, keyed by app id.
func (session *Session) GetInventoryApps(sid SteamID) (map[string]InventoryApp, error) {
	req, err := http.NewRequest(http.MethodGet, session.community+"/profiles/"+sid.ToString()+"/inventory", nil)
	if err != nil {
		return nil, err
	}
	if session.authCookie != "" {
		req.Header.Add("Cookie", session.authCookie)
	}

	resp, err := session.client.Do(req)
	if resp != nil {
		defer resp.Body.Close()
	}

	if err != nil {
		return nil, fmt.Errorf("fetch inventory page: %w", err)
	}

	if err := classifyStatus(resp); err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("fetch inventory page: %w", err)
	}

	var raw string
	doc.Find("script").EachWithBreak(func(_ int, script *goquery.Selection) bool {
		if m := appContextRegexp.FindStringSubmatch(script.Text()); m != nil {
			raw = m[1]
			return false
		}
		return true
	})

	if raw == "" {
		return nil, ErrAppContextNotFound
	}

	apps := map[string]InventoryApp{}
	if err := json.Unmarshal([]byte(raw), &apps); err != nil {
		return nil, &ProtocolError{Op: "fetch inventory page", Body: []byte(raw), Err: err}
	}

	return apps, nil
}

// GetProfileURL resolves the session account's profile URL without
// following the redirect the community issues for /my.
func (session *Session) GetProfileURL() (string, error) {
	/* We do not follow redirect, we want to know where it'd redirect us.  */
	session.client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}

	req, err := http.NewRequest(http.MethodGet, session.community+"/my", nil)
	if err != nil {
		session.client.CheckRedirect = nil
		return "", err
	}
	if session.authCookie != "" {
		req.Header.Add("Cookie", session.authCookie)
	}

	resp, err := session.client.Do(req)

	/* We restore redirect policy to default.  */
	session.client.CheckRedirect = nil

	if resp == nil {
		return "", err
	}

	io.Copy(io.Discard, resp.Body)
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		return "", &StatusError{Code: resp.StatusCode}
	}

	location := resp.Header.Get("Location")
	if location == "" || strings.HasSuffix(location, "/my") {
		return "", errors.New("no profile redirect location")
	}

	return location, nil
}
