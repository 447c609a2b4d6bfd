package steamtrade

import "testing"

func TestSteamIDFromPartner(t *testing.T) {
	sid := SteamIDFromPartner(87048484)
	if sid.Bits != 76561198047314212 {
		t.Fatalf("got %d, want 76561198047314212", sid.Bits)
	}

	for _, fragment := range []uint32{0, 1, 87048484, 175838719, 0xFFFFFFFF} {
		sid := SteamIDFromPartner(fragment)
		if sid.Bits != uint64(fragment)+partnerIDOffset {
			t.Errorf("fragment %d: got %d, want %d", fragment, sid.Bits, uint64(fragment)+partnerIDOffset)
		}
		if sid.PartnerID() != fragment {
			t.Errorf("fragment %d: round trip gave %d", fragment, sid.PartnerID())
		}
	}
}

func TestSteamIDComponents(t *testing.T) {
	sid := SteamIDFromPartner(87048484)

	if got := sid.GetAccountUniverse(); got != UniversePublic {
		t.Errorf("universe = %d, want %d", got, UniversePublic)
	}
	if got := sid.GetAccountType(); got != AccountTypeIndividual {
		t.Errorf("account type = %d, want %d", got, AccountTypeIndividual)
	}
	if got := sid.GetAccountInstance(); got != AccountInstanceDesktop {
		t.Errorf("instance = %d, want %d", got, AccountInstanceDesktop)
	}
	if got := sid.ToString(); got != "76561198047314212" {
		t.Errorf("ToString = %q", got)
	}
}

func TestParseSteamID(t *testing.T) {
	sid, err := ParseSteamID("76561198047314212")
	if err != nil {
		t.Fatal(err)
	}
	if sid.PartnerID() != 87048484 {
		t.Fatalf("partner id = %d, want 87048484", sid.PartnerID())
	}

	if _, err := ParseSteamID("not-a-number"); err == nil {
		t.Fatal("expected error for malformed id")
	}
}
