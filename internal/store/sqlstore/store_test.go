package sqlstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"pbnadmin/internal/store"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenWithOptions(filepath.Join(t.TempDir(), "pbn.sqlite"), Options{
		BusyTimeout: time.Second,
		LockTimeout: 2 * time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	if err := s.Init(context.Background(), []string{"blog_forgetcheck", "blog_digitalproduct"}); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return s
}

func TestInitCreatesSchema(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ReadRow(ctx, "AFFILIATE_OFFERS", 1); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected empty offers table, got %v", err)
	}
	if err := s.UpsertRow(ctx, "AFFILIATE_OFFERS", 1, store.Values{"affiliate_offer_2": "Detox Life"}); err != nil {
		t.Fatalf("upsert offers: %v", err)
	}
	row, err := s.ReadRow(ctx, "AFFILIATE_OFFERS", 1)
	if err != nil {
		t.Fatalf("read offers: %v", err)
	}
	if row.Get("id") != "1" || row.Get("affiliate_offer_2") != "Detox Life" {
		t.Fatalf("unexpected offers row %v", row)
	}
	if v, ok := row["affiliate_offer_8"]; !ok || v != nil {
		t.Fatalf("expected NULL affiliate_offer_8 column, got %v (present=%v)", v, ok)
	}
	if row.Get("created_at") == "" {
		t.Fatalf("expected created_at default")
	}

	version, err := s.schemaVersion(ctx)
	if err != nil {
		t.Fatalf("schema version: %v", err)
	}
	if version != schemaVersion {
		t.Fatalf("expected schema version %d, got %d", schemaVersion, version)
	}
}

func TestInitIsRepeatable(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	if err := s.UpsertRow(ctx, "AFFILIATE_OFFERS", 1, store.Values{"affiliate_offer_1": "Detox Life"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if err := s.Init(ctx, []string{"blog_forgetcheck"}); err != nil {
		t.Fatalf("re-init: %v", err)
	}
	row, err := s.ReadRow(ctx, "AFFILIATE_OFFERS", 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if row.Get("affiliate_offer_1") != "Detox Life" {
		t.Fatalf("re-init clobbered offers: %q", row.Get("affiliate_offer_1"))
	}
}

func TestInitRejectsBadPostTable(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "pbn.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	err = s.Init(context.Background(), []string{`blog"; DROP TABLE x; --`})
	if !errors.Is(err, store.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestUpdateRow(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if err := s.UpsertRow(ctx, "AFFILIATE_OFFERS", 1, nil); err != nil {
		t.Fatalf("create offers row: %v", err)
	}
	if err := s.UpdateRow(ctx, "AFFILIATE_OFFERS", 1, store.Values{"affiliate_offer_3": "Focus Accelerator"}); err != nil {
		t.Fatalf("update: %v", err)
	}
	row, err := s.ReadRow(ctx, "AFFILIATE_OFFERS", 1)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := row.Get("affiliate_offer_3"); got != "Focus Accelerator" {
		t.Fatalf("expected updated offer, got %q", got)
	}

	err = s.UpdateRow(ctx, "AFFILIATE_OFFERS", 99, store.Values{"affiliate_offer_3": "x"})
	if !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing row, got %v", err)
	}
}

func TestUpdateRowRejectsBadColumn(t *testing.T) {
	s := openTestStore(t)
	err := s.UpdateRow(context.Background(), "AFFILIATE_OFFERS", 1, store.Values{"a b": "x"})
	if !errors.Is(err, store.ErrInvalidIdentifier) {
		t.Fatalf("expected ErrInvalidIdentifier, got %v", err)
	}
}

func TestUpsertRowCreatesThenReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	if _, err := s.ReadRow(ctx, "Links", 3); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected missing link row, got %v", err)
	}
	if err := s.UpsertRow(ctx, "Links", 3, store.Values{"Link_P": "https://a.example.com"}); err != nil {
		t.Fatalf("upsert insert: %v", err)
	}
	if err := s.UpsertRow(ctx, "Links", 3, store.Values{"id": 3, "Link_P": "https://b.example.com"}); err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	row, err := s.ReadRow(ctx, "Links", 3)
	if err != nil {
		t.Fatalf("read link: %v", err)
	}
	if got := row.Get("Link_P"); got != "https://b.example.com" {
		t.Fatalf("expected replaced link, got %q", got)
	}
}

func TestInsertRowGeneratesTextID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row, err := s.InsertRow(ctx, "blog_forgetcheck", store.Values{
		"title":   "Hello",
		"content": "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("insert post: %v", err)
	}
	if len(row.Get("id")) != 36 {
		t.Fatalf("expected uuid id, got %q", row.Get("id"))
	}
	if row.Get("created_at") == "" || row.Get("updated_at") == "" {
		t.Fatalf("expected timestamps to be defaulted, got %v", row)
	}
	if row.Get("title") != "Hello" {
		t.Fatalf("expected title Hello, got %q", row.Get("title"))
	}

	second, err := s.InsertRow(ctx, "blog_forgetcheck", store.Values{"title": "Again", "content": "x"})
	if err != nil {
		t.Fatalf("insert second: %v", err)
	}
	if second.Get("id") == row.Get("id") {
		t.Fatalf("expected distinct ids")
	}
}

func TestInsertRowStoresArraysAsJSON(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row, err := s.InsertRow(ctx, "product_upload", store.Values{
		"layout_type":  "layout2",
		"product_name": "**Widget**",
		"mini_blog":    "short",
		"image_urls":   []string{"http://x/1.png", "http://x/2.png"},
	})
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}
	if row.Get("id") != "1" {
		t.Fatalf("expected integer id 1, got %q", row.Get("id"))
	}
	urls, err := row.Strings("image_urls")
	if err != nil {
		t.Fatalf("decode urls: %v", err)
	}
	if len(urls) != 2 || urls[1] != "http://x/2.png" {
		t.Fatalf("unexpected urls %v", urls)
	}
}

func TestInsertRowNullValues(t *testing.T) {
	s := openTestStore(t)
	row, err := s.InsertRow(context.Background(), "BlogData", store.Values{
		"domain":            "example.com",
		"content_structure": "layout1",
		"website_context":   nil,
		"product_promotion": []string(nil),
	})
	if err != nil {
		t.Fatalf("insert blog data: %v", err)
	}
	if row["website_context"] != nil || row["product_promotion"] != nil {
		t.Fatalf("expected NULL columns, got %v", row)
	}
	if row.Get("domain") != "example.com" {
		t.Fatalf("expected domain, got %q", row.Get("domain"))
	}
}

func TestInsertRowUnknownTable(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.InsertRow(context.Background(), "blog_missing", store.Values{"title": "x"}); err == nil {
		t.Fatalf("expected error for unknown table")
	}
}

func TestRetryDelayIsCapped(t *testing.T) {
	if got := retryDelay(0); got != 40*time.Millisecond {
		t.Fatalf("expected 40ms first delay, got %v", got)
	}
	if got := retryDelay(50); got != 300*time.Millisecond {
		t.Fatalf("expected capped delay, got %v", got)
	}
}
