// Package store defines the narrow boundary between the console and the data
// service that owns every persisted row and object.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound          = errors.New("row not found")
	ErrInvalidIdentifier = errors.New("invalid identifier")
)

// Row maps column names to nullable values. Array columns hold JSON text.
type Row map[string]*string

// Get returns the column value, or "" when it is missing or NULL.
func (r Row) Get(col string) string {
	if v := r[col]; v != nil {
		return *v
	}
	return ""
}

// Strings decodes an array column. A NULL or missing column yields nil.
func (r Row) Strings(col string) ([]string, error) {
	v := r[col]
	if v == nil || *v == "" {
		return nil, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(*v), &out); err != nil {
		return nil, fmt.Errorf("column %s: %w", col, err)
	}
	return out, nil
}

// Values is a set of columns to write. Supported value types are string,
// *string, nil, []string, bool and the integer types.
type Values map[string]any

// Gateway reads and writes rows of the data service.
type Gateway interface {
	ReadRow(ctx context.Context, table string, id int64) (Row, error)
	UpdateRow(ctx context.Context, table string, id int64, values Values) error
	UpsertRow(ctx context.Context, table string, id int64, values Values) error
	InsertRow(ctx context.Context, table string, values Values) (Row, error)
}

// Bucket stores binary objects and hands back a public URL for each.
type Bucket interface {
	Upload(ctx context.Context, bucket, filename, contentType string, body io.Reader) (string, error)
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether name is safe to use as a table or column name.
func ValidIdentifier(name string) bool {
	return identPattern.MatchString(name)
}

var bucketPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// ValidBucket reports whether name is an acceptable bucket name.
func ValidBucket(name string) bool {
	return bucketPattern.MatchString(name)
}

// ObjectName builds a unique object name that keeps a cleaned copy of the
// uploaded file name: "<unix-ms>-<8 hex>-<name>".
func ObjectName(filename string, now time.Time) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	clean := strings.TrimLeft(b.String(), ".")
	if clean == "" {
		clean = "upload"
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d-%s-%s", now.UnixMilli(), suffix, clean)
}

// StringValue renders a supported Values entry as a nullable string, the way
// it reads back from a Row.
func StringValue(v any) (*string, error) {
	var s string
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		s = val
	case *string:
		if val == nil {
			return nil, nil
		}
		s = *val
	case []string:
		if val == nil {
			return nil, nil
		}
		data, err := json.Marshal(val)
		if err != nil {
			return nil, err
		}
		s = string(data)
	case bool:
		s = "0"
		if val {
			s = "1"
		}
	case int:
		s = fmt.Sprint(val)
	case int64:
		s = fmt.Sprint(val)
	default:
		return nil, fmt.Errorf("unsupported value type %T", v)
	}
	return &s, nil
}
