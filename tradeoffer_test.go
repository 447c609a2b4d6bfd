package steamtrade

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewTradeOfferFromURL(t *testing.T) {
	offer, err := NewTradeOfferFromURL("https://steamcommunity.com/tradeoffer/new/?partner=87048484&token=gn-X8Nub")
	if err != nil {
		t.Fatal(err)
	}

	if offer.Partner().Bits != 76561198047314212 {
		t.Errorf("partner = %d, want 76561198047314212", offer.Partner().Bits)
	}
	if offer.AccessToken() != "gn-X8Nub" {
		t.Errorf("token = %q", offer.AccessToken())
	}
}

func TestNewTradeOfferFromURLMalformed(t *testing.T) {
	cases := []string{
		"https://steamcommunity.com/tradeoffer/new/?partner=87048484",
		"https://steamcommunity.com/tradeoffer/new/?token=gn-X8Nub",
		"https://steamcommunity.com/tradeoffer/new/",
		"https://steamcommunity.com/tradeoffer/new/?partner=abc&token=gn-X8Nub",
	}

	for _, rawURL := range cases {
		if _, err := NewTradeOfferFromURL(rawURL); !errors.Is(err, ErrMalformedTradeURL) {
			t.Errorf("%s: got %v, want ErrMalformedTradeURL", rawURL, err)
		}
	}
}

func TestOfferMutationRoundTrip(t *testing.T) {
	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
	asset := OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000001"}

	if err := offer.AddSelfItem(asset); err != nil {
		t.Fatal(err)
	}
	if got := offer.SelfAssets(); len(got) != 1 {
		t.Fatalf("self side has %d assets", len(got))
	}

	if err := offer.RemoveSelfItem(asset.AssetID); err != nil {
		t.Fatal(err)
	}
	if got := offer.SelfAssets(); len(got) != 0 {
		t.Fatalf("self side has %d assets after removal", len(got))
	}

	// Removing an absent id is a no-op, not an error.
	if err := offer.RemoveSelfItem("999"); err != nil {
		t.Fatal(err)
	}

	if err := offer.AddPartnerItems([]OfferAsset{asset, {AssetID: "2", AppID: "730", ContextID: "2", Amount: "1"}}); err != nil {
		t.Fatal(err)
	}
	if err := offer.RemovePartnerItems([]string{"2", "absent"}); err != nil {
		t.Fatal(err)
	}
	if got := offer.PartnerAssets(); len(got) != 1 || got[0].AssetID != asset.AssetID {
		t.Fatalf("partner side = %+v", got)
	}
}

func TestOfferDuplicateAdd(t *testing.T) {
	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
	asset := OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000001"}

	if err := offer.AddSelfItem(asset); err != nil {
		t.Fatal(err)
	}
	if err := offer.AddSelfItem(asset); !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("got %v, want ErrDuplicateAsset", err)
	}

	// The same id on the other side is fine; sides are independent.
	if err := offer.AddPartnerItem(asset); err != nil {
		t.Fatal(err)
	}
}

func TestOfferBatchAddAtomic(t *testing.T) {
	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
	first := OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000001"}

	if err := offer.AddSelfItem(first); err != nil {
		t.Fatal(err)
	}

	// A duplicate mid-batch must leave the side untouched, not keep
	// the items added before it.
	batch := []OfferAsset{
		{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000002"},
		first,
		{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000003"},
	}
	if err := offer.AddSelfItems(batch); !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("got %v, want ErrDuplicateAsset", err)
	}
	if got := offer.SelfAssets(); len(got) != 1 || got[0].AssetID != first.AssetID {
		t.Fatalf("side mutated by rejected batch: %+v", got)
	}

	// A batch that repeats an id within itself is rejected the same way.
	repeat := OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000004"}
	if err := offer.AddPartnerItems([]OfferAsset{repeat, repeat}); !errors.Is(err, ErrDuplicateAsset) {
		t.Fatalf("got %v, want ErrDuplicateAsset", err)
	}
	if got := offer.PartnerAssets(); len(got) != 0 {
		t.Fatalf("partner side mutated by rejected batch: %+v", got)
	}
}

func TestOfferToggleReady(t *testing.T) {
	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")

	if err := offer.ToggleSelfReady(); err != nil {
		t.Fatal(err)
	}
	if !offer.contents.Me.Ready {
		t.Error("self side not ready after toggle")
	}

	if err := offer.ToggleSelfReady(); err != nil {
		t.Fatal(err)
	}
	if offer.contents.Me.Ready {
		t.Error("self side still ready after second toggle")
	}

	if err := offer.TogglePartnerReady(); err != nil {
		t.Fatal(err)
	}
	if !offer.contents.Them.Ready {
		t.Error("partner side not ready after toggle")
	}
}

func TestSend(t *testing.T) {
	var gotSessionID string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/tradeoffer/new/send" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Content-Type"); got != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", got)
		}
		if got := r.Header.Get("Referer"); !strings.Contains(got, "/tradeoffer/new/?partner=87048484&token=gn-X8Nub") {
			t.Errorf("Referer = %q", got)
		}

		cookie := r.Header.Get("Cookie")
		if !strings.Contains(cookie, "steamLoginSecure=") {
			t.Errorf("cookie lost the auth part: %q", cookie)
		}
		if !strings.Contains(cookie, "sessionid=") {
			t.Errorf("cookie missing sessionid: %q", cookie)
		}

		if err := r.ParseForm(); err != nil {
			t.Fatal(err)
		}
		gotSessionID = r.PostFormValue("sessionid")
		if r.PostFormValue("serverid") != "1" {
			t.Errorf("serverid = %q", r.PostFormValue("serverid"))
		}
		if r.PostFormValue("partner") != "76561198047314212" {
			t.Errorf("partner = %q", r.PostFormValue("partner"))
		}
		if r.PostFormValue("tradeoffermessage") != "Hello World!" {
			t.Errorf("message = %q", r.PostFormValue("tradeoffermessage"))
		}
		if r.PostFormValue("captcha") != "" {
			t.Errorf("captcha = %q", r.PostFormValue("captcha"))
		}

		var contents offerContents
		if err := json.Unmarshal([]byte(r.PostFormValue("json_tradeoffer")), &contents); err != nil {
			t.Fatalf("json_tradeoffer is not a JSON string: %v", err)
		}
		if !contents.NewVersion || contents.Version != 4 {
			t.Errorf("contents version = %+v", contents)
		}
		if len(contents.Me.Assets) != 1 || contents.Me.Assets[0].AssetID != "14000000001" {
			t.Errorf("me.assets = %+v", contents.Me.Assets)
		}
		if len(contents.Them.Assets) != 1 || contents.Them.Assets[0].AssetID != "15000000001" {
			t.Errorf("them.assets = %+v", contents.Them.Assets)
		}

		var params map[string]string
		if err := json.Unmarshal([]byte(r.PostFormValue("trade_offer_create_params")), &params); err != nil {
			t.Fatalf("trade_offer_create_params is not a JSON string: %v", err)
		}
		if params["trade_offer_access_token"] != "gn-X8Nub" {
			t.Errorf("access token = %q", params["trade_offer_access_token"])
		}

		fmt.Fprint(w, `{"tradeofferid":"4255819612","needs_mobile_confirmation":true,"needs_email_confirmation":false}`)
	}))
	defer server.Close()

	session := testSession(server.URL)
	session.authCookie = "steamLoginSecure=76561198047314212%7C%7Ctok; "

	offer, err := NewTradeOfferFromURL(server.URL + "/tradeoffer/new/?partner=87048484&token=gn-X8Nub")
	if err != nil {
		t.Fatal(err)
	}
	offer.SetMessage("Hello World!")
	offer.AddSelfItem(OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "14000000001"})
	offer.AddPartnerItem(OfferAsset{AppID: "730", ContextID: "2", Amount: "1", AssetID: "15000000001"})

	sent, err := offer.Send(session)
	if err != nil {
		t.Fatal(err)
	}

	if sent.ID != 4255819612 {
		t.Errorf("offer id = %d", sent.ID)
	}
	if !sent.NeedsMobileConfirmation || sent.NeedsEmailConfirmation {
		t.Errorf("confirmation flags = %+v", sent)
	}

	if len(gotSessionID) != 24 {
		t.Errorf("sessionid %q is not 24 hex chars", gotSessionID)
	}
	if _, err := hex.DecodeString(gotSessionID); err != nil {
		t.Errorf("sessionid %q is not hex", gotSessionID)
	}

	// Terminal: no resubmission, no further mutation.
	if !offer.Closed() {
		t.Error("offer not closed after submission")
	}
	if _, err := offer.Send(session); !errors.Is(err, ErrOfferClosed) {
		t.Errorf("second send: got %v, want ErrOfferClosed", err)
	}
	if err := offer.AddSelfItem(OfferAsset{AssetID: "x"}); !errors.Is(err, ErrOfferClosed) {
		t.Errorf("mutation after send: got %v, want ErrOfferClosed", err)
	}
	if err := offer.SetMessage("again"); !errors.Is(err, ErrOfferClosed) {
		t.Errorf("SetMessage after send: got %v, want ErrOfferClosed", err)
	}
}

func TestSendSessionIDsAreFresh(t *testing.T) {
	ids := map[string]bool{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		ids[r.PostFormValue("sessionid")] = true
		fmt.Fprint(w, `{"tradeofferid":"1"}`)
	}))
	defer server.Close()

	session := testSession(server.URL)
	for i := 0; i < 4; i++ {
		offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
		if _, err := offer.Send(session); err != nil {
			t.Fatal(err)
		}
	}

	if len(ids) != 4 {
		t.Fatalf("got %d distinct session ids from 4 submissions", len(ids))
	}
}

func TestSendStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusTooManyRequests, func(err error) bool { return errors.Is(err, ErrRateLimited) }},
		{http.StatusForbidden, func(err error) bool { return errors.Is(err, ErrForbidden) }},
		{http.StatusInternalServerError, func(err error) bool {
			var statusErr *StatusError
			return errors.As(err, &statusErr) && statusErr.Code == http.StatusInternalServerError
		}},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		}))

		offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
		_, err := offer.Send(testSession(server.URL))
		server.Close()

		if !tc.check(err) {
			t.Errorf("status %d: unexpected result %v", tc.status, err)
		}
		if !offer.Closed() {
			t.Errorf("status %d: offer not terminal after failure", tc.status)
		}
	}
}

func TestSendServerReportedError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"strError":"There was an error sending your trade offer. Please try again later. (26)"}`)
	}))
	defer server.Close()

	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
	_, err := offer.Send(testSession(server.URL))

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("got %v, want ProtocolError", err)
	}
	if !strings.Contains(protoErr.Error(), "(26)") {
		t.Errorf("error lost the server message: %v", protoErr)
	}
	if !offer.Closed() {
		t.Error("offer not terminal after server-reported error")
	}
}

func TestSendMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html>maintenance</html>`)
	}))
	defer server.Close()

	offer := NewTradeOffer(SteamIDFromPartner(87048484), "tok")
	_, err := offer.Send(testSession(server.URL))

	var protoErr *ProtocolError
	if !errors.As(err, &protoErr) {
		t.Fatalf("got %v, want ProtocolError", err)
	}
	if string(protoErr.Body) != `<html>maintenance</html>` {
		t.Error("protocol error lost the raw body")
	}
}

func TestNewSessionID(t *testing.T) {
	a, err := newSessionID()
	if err != nil {
		t.Fatal(err)
	}
	b, err := newSessionID()
	if err != nil {
		t.Fatal(err)
	}

	if len(a) != 24 || len(b) != 24 {
		t.Fatalf("session ids %q, %q are not 24 chars", a, b)
	}
	if a == b {
		t.Fatal("two generated session ids are identical")
	}
}
