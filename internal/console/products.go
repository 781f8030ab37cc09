package console

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strings"
	"time"

	"pbnadmin/internal/linkify"
	"pbnadmin/internal/store"
)

const productTable = "product_upload"

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
}

// Format is the emphasis toggled on a product text field.
type Format struct {
	Bold   bool
	Italic bool
}

// FormatText wraps text in markdown emphasis: bold first, then italic.
func FormatText(text string, f Format) string {
	if f.Bold {
		text = "**" + text + "**"
	}
	if f.Italic {
		text = "*" + text + "*"
	}
	return text
}

type Image struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ProductRequest struct {
	Layout           string
	Name             string
	NameFormat       Format
	MiniBlog         string
	MiniBlogFormat   Format
	AlsoAvailable    bool
	AlsoAvailableURL string
	Images           []Image
}

type Product struct {
	ID        string
	Layout    string
	Name      string
	MiniBlog  string
	ImageURLs []string
	CreatedAt string
}

// ComposeMiniBlog returns the stored form of the mini blog: formatted, with
// the also-available line appended when requested.
func ComposeMiniBlog(req ProductRequest) string {
	out := FormatText(req.MiniBlog, req.MiniBlogFormat)
	if req.AlsoAvailable {
		if u := linkify.EnsureScheme(req.AlsoAvailableURL); u != "" {
			out += "\n\nAlso Available @ " + u
		}
	}
	return out
}

func (s *Service) validateProduct(req ProductRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return invalid("Missing product name", "Please enter a product name.")
	}
	if strings.TrimSpace(req.MiniBlog) == "" {
		return invalid("Missing mini blog", "Please enter a mini blog description.")
	}
	if len(req.Images) == 0 {
		return invalid("No images uploaded", "Please upload at least one product image.")
	}
	if _, ok := s.catalog.Layout(req.Layout); !ok {
		return invalid("Invalid layout", "Unknown layout "+req.Layout+".")
	}
	if limit := s.catalog.MaxProductImages; len(req.Images) > limit {
		return invalid("Too many images", fmt.Sprintf("Maximum %d images allowed.", limit))
	}
	for _, img := range req.Images {
		if !allowedImageType(img.ContentType) {
			return invalid("Invalid file type", "Please upload only JPG, PNG, or WebP images.")
		}
	}
	return nil
}

func allowedImageType(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedImageTypes[mt]
}

// SaveProduct uploads the product images in order and records the product.
// The first failed upload ends the operation.
func (s *Service) SaveProduct(ctx context.Context, req ProductRequest) (Product, error) {
	if err := s.validateProduct(req); err != nil {
		return Product{}, err
	}

	urls := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		u, err := s.bucket.Upload(ctx, s.catalog.ProductBucket, img.Filename, img.ContentType, img.Body)
		if err != nil {
			return Product{}, err
		}
		urls = append(urls, u)
	}

	name := FormatText(req.Name, req.NameFormat)
	miniBlog := ComposeMiniBlog(req)
	createdAt := s.now().UTC().Format(time.RFC3339Nano)
	row, err := s.gw.InsertRow(ctx, productTable, store.Values{
		"layout_type":  req.Layout,
		"product_name": name,
		"mini_blog":    miniBlog,
		"image_urls":   urls,
		"created_at":   createdAt,
	})
	if err != nil {
		return Product{}, err
	}
	slog.Info("product saved", "layout", req.Layout, "images", len(urls))
	return Product{
		ID:        row.Get("id"),
		Layout:    req.Layout,
		Name:      name,
		MiniBlog:  miniBlog,
		ImageURLs: urls,
		CreatedAt: createdAt,
	}, nil
}
