// Package sqlstore is an embedded implementation of store.Gateway on SQLite.
// It mirrors the tables of the hosted service so the console can run without
// network access.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"pbnadmin/internal/store"
)

type Options struct {
	BusyTimeout time.Duration
	LockTimeout time.Duration
}

type Store struct {
	db          *sql.DB
	lockTimeout time.Duration

	mu      sync.Mutex
	keyText map[string]bool
}

var _ store.Gateway = (*Store)(nil)

func Open(path string) (*Store, error) {
	return OpenWithOptions(path, Options{})
}

func OpenWithOptions(path string, opts Options) (*Store, error) {
	dsn := path
	if opts.BusyTimeout > 0 {
		dsn = fmt.Sprintf("%s?_pragma=busy_timeout(%d)", path, opts.BusyTimeout.Milliseconds())
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	return &Store{db: db, lockTimeout: opts.LockTimeout, keyText: make(map[string]bool)}, nil
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Init creates the fixed tables plus one post table per entry of postTables.
func (s *Store) Init(ctx context.Context, postTables []string) error {
	if _, err := s.execContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	for _, table := range postTables {
		if !store.ValidIdentifier(table) {
			return fmt.Errorf("post table %q: %w", table, store.ErrInvalidIdentifier)
		}
		if _, err := s.execContext(ctx, postTableDDL(table)); err != nil {
			return fmt.Errorf("create %s: %w", table, err)
		}
	}
	version, err := s.schemaVersion(ctx)
	if err != nil {
		return err
	}
	if version != schemaVersion {
		slog.Info("sqlstore schema version", "from", version, "to", schemaVersion)
		return s.setSchemaVersion(ctx, schemaVersion)
	}
	return nil
}

func (s *Store) schemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (s *Store) setSchemaVersion(ctx context.Context, v int) error {
	if _, err := s.execContext(ctx, "DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := s.execContext(ctx, "INSERT INTO schema_version(version) VALUES(?)", v)
	return err
}

func (s *Store) ReadRow(ctx context.Context, table string, id int64) (store.Row, error) {
	if !store.ValidIdentifier(table) {
		return nil, store.ErrInvalidIdentifier
	}
	rows, err := s.queryContext(ctx, "SELECT * FROM "+quote(table)+" WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return firstRow(rows)
}

func (s *Store) UpdateRow(ctx context.Context, table string, id int64, values store.Values) error {
	if !store.ValidIdentifier(table) {
		return store.ErrInvalidIdentifier
	}
	cols, args, err := columnArgs(values)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return errors.New("update: no columns")
	}
	sets := make([]string, len(cols))
	for i, c := range cols {
		sets[i] = quote(c) + " = ?"
	}
	query := "UPDATE " + quote(table) + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := s.execContext(ctx, query, append(args, id)...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) UpsertRow(ctx context.Context, table string, id int64, values store.Values) error {
	if !store.ValidIdentifier(table) {
		return store.ErrInvalidIdentifier
	}
	filtered := make(store.Values, len(values))
	for k, v := range values {
		if k != "id" {
			filtered[k] = v
		}
	}
	cols, args, err := columnArgs(filtered)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		_, err := s.execContext(ctx, "INSERT OR IGNORE INTO "+quote(table)+" (id) VALUES (?)", id)
		return err
	}
	names := make([]string, len(cols))
	holders := make([]string, len(cols))
	sets := make([]string, len(cols))
	for i, c := range cols {
		names[i] = quote(c)
		holders[i] = "?"
		sets[i] = quote(c) + " = excluded." + quote(c)
	}
	query := "INSERT INTO " + quote(table) + " (id, " + strings.Join(names, ", ") + ") VALUES (?, " +
		strings.Join(holders, ", ") + ") ON CONFLICT(id) DO UPDATE SET " + strings.Join(sets, ", ")
	_, err = s.execContext(ctx, query, append([]any{id}, args...)...)
	return err
}

// InsertRow appends a row and returns it as stored, defaults included.
// Tables keyed by TEXT get a random UUID when values carry no id.
func (s *Store) InsertRow(ctx context.Context, table string, values store.Values) (store.Row, error) {
	if !store.ValidIdentifier(table) {
		return nil, store.ErrInvalidIdentifier
	}
	textKey, err := s.hasTextKey(ctx, table)
	if err != nil {
		return nil, err
	}
	if _, ok := values["id"]; textKey && !ok {
		withID := make(store.Values, len(values)+1)
		for k, v := range values {
			withID[k] = v
		}
		withID["id"] = uuid.NewString()
		values = withID
	}
	cols, args, err := columnArgs(values)
	if err != nil {
		return nil, err
	}
	query := "INSERT INTO " + quote(table) + " DEFAULT VALUES"
	if len(cols) > 0 {
		names := make([]string, len(cols))
		holders := make([]string, len(cols))
		for i, c := range cols {
			names[i] = quote(c)
			holders[i] = "?"
		}
		query = "INSERT INTO " + quote(table) + " (" + strings.Join(names, ", ") + ") VALUES (" + strings.Join(holders, ", ") + ")"
	}
	res, err := s.execContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	rows, err := s.queryContext(ctx, "SELECT * FROM "+quote(table)+" WHERE rowid = ?", rowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return firstRow(rows)
}

// hasTextKey reports whether the id column of table is declared TEXT.
func (s *Store) hasTextKey(ctx context.Context, table string) (bool, error) {
	s.mu.Lock()
	v, ok := s.keyText[table]
	s.mu.Unlock()
	if ok {
		return v, nil
	}

	rows, err := s.queryContext(ctx, "SELECT name, type FROM pragma_table_info(?)", table)
	if err != nil {
		return false, err
	}
	defer rows.Close()
	found := false
	text := false
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return false, err
		}
		found = true
		if name == "id" {
			text = strings.EqualFold(typ, "TEXT")
		}
	}
	if err := rows.Err(); err != nil {
		return false, err
	}
	if !found {
		return false, fmt.Errorf("no such table: %s", table)
	}

	s.mu.Lock()
	s.keyText[table] = text
	s.mu.Unlock()
	return text, nil
}

func firstRow(rows *sql.Rows) (store.Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, store.ErrNotFound
	}
	vals := make([]sql.NullString, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	row := make(store.Row, len(cols))
	for i, c := range cols {
		if vals[i].Valid {
			v := vals[i].String
			row[c] = &v
		} else {
			row[c] = nil
		}
	}
	return row, nil
}

// columnArgs returns the column names of values in sorted order with their
// SQL arguments.
func columnArgs(values store.Values) ([]string, []any, error) {
	cols := make([]string, 0, len(values))
	for c := range values {
		if !store.ValidIdentifier(c) {
			return nil, nil, fmt.Errorf("column %q: %w", c, store.ErrInvalidIdentifier)
		}
		cols = append(cols, c)
	}
	sort.Strings(cols)
	args := make([]any, len(cols))
	for i, c := range cols {
		arg, err := sqlArg(values[c])
		if err != nil {
			return nil, nil, fmt.Errorf("column %s: %w", c, err)
		}
		args[i] = arg
	}
	return cols, args, nil
}

func sqlArg(v any) (any, error) {
	switch val := v.(type) {
	case bool, int, int64:
		return val, nil
	}
	s, err := store.StringValue(v)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	return *s, nil
}

func quote(ident string) string {
	return `"` + ident + `"`
}
