// Package objects is a store.Bucket backed by a local directory.
package objects

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pbnadmin/internal/store"
)

// Dir keeps objects at <root>/<bucket>/<name> and links them under
// <publicBase>/objects/<bucket>/<name>.
type Dir struct {
	root       string
	publicBase string
	now        func() time.Time
}

var _ store.Bucket = (*Dir)(nil)

func NewDir(root, publicBase string) *Dir {
	return &Dir{
		root:       root,
		publicBase: strings.TrimRight(publicBase, "/"),
		now:        time.Now,
	}
}

// Root is the directory objects are written under.
func (d *Dir) Root() string {
	return d.root
}

func (d *Dir) Upload(ctx context.Context, bucket, filename, contentType string, body io.Reader) (string, error) {
	if !store.ValidBucket(bucket) {
		return "", fmt.Errorf("bucket %q: %w", bucket, store.ErrInvalidIdentifier)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := filepath.Join(d.root, bucket)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	name := store.ObjectName(filename, d.now())
	target := filepath.Join(dir, name)

	// An existing object is never overwritten.
	if _, err := os.Stat(target); err == nil {
		return "", fmt.Errorf("object %s/%s already exists", bucket, name)
	}
	if err := writeAtomic(target, body, 0o644); err != nil {
		return "", fmt.Errorf("write object: %w", err)
	}
	return d.publicBase + "/objects/" + url.PathEscape(bucket) + "/" + url.PathEscape(name), nil
}

func writeAtomic(path string, body io.Reader, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".tmp.%s.%d", base, os.Getpid()))

	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}

	if dirf, err := os.Open(dir); err == nil {
		_ = dirf.Sync()
		_ = dirf.Close()
	}
	return nil
}
