// Package remote implements store.Gateway and store.Bucket against a hosted
// PostgREST service with object storage.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pbnadmin/internal/store"
)

// APIError is a non-2xx answer from the service.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote store: HTTP %d", e.Status)
	}
	return e.Message
}

type Client struct {
	baseURL string
	key     string
	http    *http.Client
	now     func() time.Time
}

var (
	_ store.Gateway = (*Client)(nil)
	_ store.Bucket  = (*Client)(nil)
)

func New(baseURL, key string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid remote url %q", baseURL)
	}
	if key == "" {
		return nil, errors.New("remote key is required")
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		key:     key,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}, nil
}

func (c *Client) ReadRow(ctx context.Context, table string, id int64) (store.Row, error) {
	if !store.ValidIdentifier(table) {
		return nil, store.ErrInvalidIdentifier
	}
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	q.Set("select", "*")
	rows, err := c.rows(ctx, http.MethodGet, c.tableURL(table, q), nil, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, store.ErrNotFound
	}
	return rows[0], nil
}

func (c *Client) UpdateRow(ctx context.Context, table string, id int64, values store.Values) error {
	if !store.ValidIdentifier(table) {
		return store.ErrInvalidIdentifier
	}
	q := url.Values{}
	q.Set("id", "eq."+strconv.FormatInt(id, 10))
	rows, err := c.rows(ctx, http.MethodPatch, c.tableURL(table, q), values,
		http.Header{"Prefer": {"return=representation"}})
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (c *Client) UpsertRow(ctx context.Context, table string, id int64, values store.Values) error {
	if !store.ValidIdentifier(table) {
		return store.ErrInvalidIdentifier
	}
	body := make(store.Values, len(values)+1)
	for k, v := range values {
		body[k] = v
	}
	body["id"] = id
	_, err := c.rows(ctx, http.MethodPost, c.tableURL(table, nil), body,
		http.Header{"Prefer": {"resolution=merge-duplicates"}})
	return err
}

func (c *Client) InsertRow(ctx context.Context, table string, values store.Values) (store.Row, error) {
	if !store.ValidIdentifier(table) {
		return nil, store.ErrInvalidIdentifier
	}
	rows, err := c.rows(ctx, http.MethodPost, c.tableURL(table, nil), values,
		http.Header{"Prefer": {"return=representation"}})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("insert returned no row")
	}
	return rows[0], nil
}

func (c *Client) Upload(ctx context.Context, bucket, filename, contentType string, body io.Reader) (string, error) {
	if !store.ValidBucket(bucket) {
		return "", fmt.Errorf("bucket %q: %w", bucket, store.ErrInvalidIdentifier)
	}
	name := store.ObjectName(filename, c.now())
	objectPath := url.PathEscape(bucket) + "/" + url.PathEscape(name)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/storage/v1/object/"+objectPath, body)
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "false")
	resp, err := c.do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return "", err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return c.baseURL + "/storage/v1/object/public/" + objectPath, nil
}

func (c *Client) tableURL(table string, q url.Values) string {
	u := c.baseURL + "/rest/v1/" + url.PathEscape(table)
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// rows sends a JSON request and decodes a JSON array response. An empty
// response body decodes to no rows.
func (c *Client) rows(ctx context.Context, method, target string, values store.Values, header http.Header) ([]store.Row, error) {
	var body io.Reader
	if values != nil {
		payload, err := encodeValues(values)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	out := make([]store.Row, 0, len(raw))
	for _, r := range raw {
		row, err := decodeRow(r)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

func (c *Client) do(req *http.Request) (*http.Response, error) {
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Debug("remote request failed", "method", req.Method, "path", req.URL.Path, "err", err)
		return nil, err
	}
	slog.Debug("remote request", "method", req.Method, "path", req.URL.Path, "status", resp.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	return &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
}

func errorMessage(data []byte) string {
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func encodeValues(values store.Values) ([]byte, error) {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if !store.ValidIdentifier(k) {
			return nil, fmt.Errorf("column %q: %w", k, store.ErrInvalidIdentifier)
		}
		switch val := v.(type) {
		case nil, string, []string, bool, int, int64:
			out[k] = val
		case *string:
			if val == nil {
				out[k] = nil
			} else {
				out[k] = *val
			}
		default:
			return nil, fmt.Errorf("column %s: unsupported value type %T", k, v)
		}
	}
	return json.Marshal(out)
}

// decodeRow flattens a JSON object into a Row. Strings keep their value,
// null becomes nil, and anything else keeps its JSON text.
func decodeRow(raw map[string]json.RawMessage) (store.Row, error) {
	row := make(store.Row, len(raw))
	for k, v := range raw {
		trimmed := bytes.TrimSpace(v)
		switch {
		case bytes.Equal(trimmed, []byte("null")):
			row[k] = nil
		case len(trimmed) > 0 && trimmed[0] == '"':
			var s string
			if err := json.Unmarshal(trimmed, &s); err != nil {
				return nil, fmt.Errorf("column %s: %w", k, err)
			}
			row[k] = &s
		default:
			s := string(trimmed)
			row[k] = &s
		}
	}
	return row, nil
}
