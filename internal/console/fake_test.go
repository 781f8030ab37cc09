package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"pbnadmin/internal/config"
	"pbnadmin/internal/store"
)

type memGateway struct {
	mu      sync.Mutex
	tables  map[string]map[int64]store.Row
	inserts map[string][]store.Row
	fail    error
	calls   int
}

func newMemGateway() *memGateway {
	return &memGateway{
		tables:  make(map[string]map[int64]store.Row),
		inserts: make(map[string][]store.Row),
	}
}

func toRow(values store.Values) store.Row {
	row := make(store.Row, len(values))
	for k, v := range values {
		s, err := store.StringValue(v)
		if err != nil {
			panic(err)
		}
		row[k] = s
	}
	return row
}

func (g *memGateway) set(table string, id int64, values store.Values) {
	if g.tables[table] == nil {
		g.tables[table] = make(map[int64]store.Row)
	}
	g.tables[table][id] = toRow(values)
}

func (g *memGateway) ReadRow(ctx context.Context, table string, id int64) (store.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	row, ok := g.tables[table][id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return row, nil
}

func (g *memGateway) UpdateRow(ctx context.Context, table string, id int64, values store.Values) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail != nil {
		return g.fail
	}
	row, ok := g.tables[table][id]
	if !ok {
		return store.ErrNotFound
	}
	for k, v := range toRow(values) {
		row[k] = v
	}
	return nil
}

func (g *memGateway) UpsertRow(ctx context.Context, table string, id int64, values store.Values) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail != nil {
		return g.fail
	}
	row, ok := g.tables[table][id]
	if !ok {
		g.set(table, id, values)
		return nil
	}
	for k, v := range toRow(values) {
		row[k] = v
	}
	return nil
}

func (g *memGateway) InsertRow(ctx context.Context, table string, values store.Values) (store.Row, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.fail != nil {
		return nil, g.fail
	}
	row := toRow(values)
	id := fmt.Sprint(len(g.inserts[table]) + 1)
	row["id"] = &id
	if _, ok := row["created_at"]; !ok {
		created := "2026-01-02T03:04:05Z"
		row["created_at"] = &created
	}
	g.inserts[table] = append(g.inserts[table], row)
	return row, nil
}

type memBucket struct {
	mu      sync.Mutex
	objects []string
	bodies  []string
	failAt  int
}

func (b *memBucket) Upload(ctx context.Context, bucket, filename, contentType string, body io.Reader) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failAt > 0 && len(b.objects)+1 == b.failAt {
		return "", errors.New("The resource already exists")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s/%d-%s", bucket, len(b.objects)+1, filename)
	b.objects = append(b.objects, name)
	b.bodies = append(b.bodies, string(data))
	return "https://cdn.test/" + name, nil
}

func newTestService(t *testing.T) (*Service, *memGateway, *memBucket) {
	t.Helper()
	gw := newMemGateway()
	bucket := &memBucket{}
	svc := New(gw, bucket, config.DefaultCatalog())
	svc.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return svc, gw, bucket
}

func assertValidation(t *testing.T, err error, title string) {
	t.Helper()
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error %q, got %v", title, err)
	}
	if ve.Title != title {
		t.Fatalf("expected validation title %q, got %q (%s)", title, ve.Title, ve.Message)
	}
}
