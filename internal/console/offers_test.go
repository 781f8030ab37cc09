package console

import (
	"context"
	"errors"
	"testing"

	"pbnadmin/internal/store"
)

func TestLoadOffersDefaultsWithoutRow(t *testing.T) {
	svc, _, _ := newTestService(t)
	board, err := svc.LoadOffers(context.Background())
	if err != nil {
		t.Fatalf("load offers: %v", err)
	}
	want := []string{"Mental Peace Mastery", "Detox Life", "Focus Accelerator", "Productivity Powerhouse"}
	if len(board.Offers) != len(want) {
		t.Fatalf("expected %d offers, got %d", len(want), len(board.Offers))
	}
	for i, name := range want {
		if board.Offers[i].Name != name || board.Offers[i].Index != i {
			t.Fatalf("offer %d: expected %q, got %+v", i, name, board.Offers[i])
		}
	}
}

func TestLoadOffersShowsFilledAndFirstSlots(t *testing.T) {
	svc, gw, _ := newTestService(t)
	gw.set("AFFILIATE_OFFERS", 1, store.Values{
		"id":                "1",
		"affiliate_offer_1": "One",
		"affiliate_offer_2": nil,
		"affiliate_offer_7": "Seven",
	})
	gw.set("Links", 7, store.Values{"Link_P": "https://seven.example.com"})

	board, err := svc.LoadOffers(context.Background())
	if err != nil {
		t.Fatalf("load offers: %v", err)
	}
	gotIdx := []int{}
	for _, o := range board.Offers {
		gotIdx = append(gotIdx, o.Index)
	}
	wantIdx := []int{0, 1, 2, 3, 6}
	if len(gotIdx) != len(wantIdx) {
		t.Fatalf("expected slots %v, got %v", wantIdx, gotIdx)
	}
	for i := range wantIdx {
		if gotIdx[i] != wantIdx[i] {
			t.Fatalf("expected slots %v, got %v", wantIdx, gotIdx)
		}
	}
	last := board.Offers[4]
	if last.Name != "Seven" || last.Link != "https://seven.example.com" {
		t.Fatalf("unexpected slot 7: %+v", last)
	}
	if board.Offers[1].Name != "" {
		t.Fatalf("expected empty second slot, got %q", board.Offers[1].Name)
	}
}

func TestLoadOffersSurfacesStoreError(t *testing.T) {
	svc, gw, _ := newTestService(t)
	gw.fail = errors.New("permission denied for table AFFILIATE_OFFERS")
	_, err := svc.LoadOffers(context.Background())
	if err == nil || err.Error() != "permission denied for table AFFILIATE_OFFERS" {
		t.Fatalf("expected verbatim store error, got %v", err)
	}
	if IsValidation(err) {
		t.Fatalf("store error must not be a validation error")
	}
}

func TestAddSlot(t *testing.T) {
	board := OfferBoard{Offers: []Offer{{Index: 0}, {Index: 1}, {Index: 2}, {Index: 3}, {Index: 6}}}
	next, ok := board.AddSlot()
	if !ok {
		t.Fatalf("expected a slot to be added")
	}
	if len(next.Offers) != 6 || next.Offers[4].Index != 4 || next.Offers[5].Index != 6 {
		t.Fatalf("unexpected board %+v", next.Offers)
	}

	full := OfferBoard{}
	for i := 0; i < MaxOffers; i++ {
		full.Offers = append(full.Offers, Offer{Index: i})
	}
	if full.CanAddSlot() {
		t.Fatalf("a full board must not accept slots")
	}
	if _, ok := full.AddSlot(); ok {
		t.Fatalf("expected AddSlot to refuse on a full board")
	}
}

func TestSaveOffer(t *testing.T) {
	svc, gw, _ := newTestService(t)
	ctx := context.Background()

	if err := svc.SaveOffer(ctx, 2, "Calm Mind"); err != nil {
		t.Fatalf("save offer without row: %v", err)
	}
	if got := gw.tables["AFFILIATE_OFFERS"][1].Get("affiliate_offer_3"); got != "Calm Mind" {
		t.Fatalf("expected offer 3 stored, got %q", got)
	}
	if err := svc.SaveOffer(ctx, 2, "Calmer Mind"); err != nil {
		t.Fatalf("save offer: %v", err)
	}
	if got := gw.tables["AFFILIATE_OFFERS"][1].Get("affiliate_offer_3"); got != "Calmer Mind" {
		t.Fatalf("expected offer 3 updated, got %q", got)
	}
}

func TestFirstSaveOfferKeepsDefaults(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	before, err := svc.LoadOffers(ctx)
	if err != nil {
		t.Fatalf("load defaults: %v", err)
	}
	if err := svc.SaveOffer(ctx, 1, "Sleep Better"); err != nil {
		t.Fatalf("save offer: %v", err)
	}
	after, err := svc.LoadOffers(ctx)
	if err != nil {
		t.Fatalf("load after save: %v", err)
	}
	if len(after.Offers) != len(before.Offers) {
		t.Fatalf("expected %d slots, got %d", len(before.Offers), len(after.Offers))
	}
	for i, offer := range after.Offers {
		want := before.Offers[i].Name
		if i == 1 {
			want = "Sleep Better"
		}
		if offer.Name != want {
			t.Fatalf("slot %d: expected %q, got %q", i, want, offer.Name)
		}
	}
}

func TestSaveOfferIndexBounds(t *testing.T) {
	svc, gw, _ := newTestService(t)
	for _, idx := range []int{-1, MaxOffers} {
		assertValidation(t, svc.SaveOffer(context.Background(), idx, "x"), "Invalid offer")
		assertValidation(t, svc.SaveLink(context.Background(), idx, "x"), "Invalid offer")
	}
	if gw.calls != 0 {
		t.Fatalf("validation failures must not reach the store, got %d calls", gw.calls)
	}
}

func TestSaveLinkUpsertsByOffer(t *testing.T) {
	svc, gw, _ := newTestService(t)
	if err := svc.SaveLink(context.Background(), 0, "https://a.example.com"); err != nil {
		t.Fatalf("save link: %v", err)
	}
	if err := svc.SaveLink(context.Background(), 0, "https://b.example.com"); err != nil {
		t.Fatalf("save link again: %v", err)
	}
	if got := gw.tables["Links"][1].Get("Link_P"); got != "https://b.example.com" {
		t.Fatalf("expected link row 1 replaced, got %q", got)
	}
}

func TestDefaultOffers(t *testing.T) {
	svc, _, _ := newTestService(t)
	board := svc.DefaultOffers()
	if len(board.Offers) != MinOfferSlots || board.Offers[3].Name != "Productivity Powerhouse" {
		t.Fatalf("unexpected default board %+v", board.Offers)
	}
}
