package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Site is one blog of the network. Posts for a site land in Table.
type Site struct {
	Key           string `yaml:"key"`
	Title         string `yaml:"title"`
	Table         string `yaml:"table"`
	AlsoAvailable bool   `yaml:"also_available"`
}

// Layout is a product page template a product upload is tied to.
type Layout struct {
	ID          string `yaml:"id"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
}

// Promotion is a product a network site can promote.
type Promotion struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Catalog is the static description of the network the console manages.
type Catalog struct {
	Sites            []Site      `yaml:"sites"`
	Layouts          []Layout    `yaml:"layouts"`
	Promotions       []Promotion `yaml:"promotions"`
	DefaultOffers    []string    `yaml:"default_offers"`
	ProductBucket    string      `yaml:"product_bucket"`
	MaxProductImages int         `yaml:"max_product_images"`
}

// LoadCatalog reads the catalog at path, or the built-in one when path is empty.
func LoadCatalog(path string) (Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return ParseCatalog(defaultCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

func DefaultCatalog() Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return c
}

func ParseCatalog(data []byte) (Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Catalog{}, fmt.Errorf("parse catalog: %w", err)
	}
	if c.ProductBucket == "" {
		c.ProductBucket = "product-uploads"
	}
	if c.MaxProductImages <= 0 {
		c.MaxProductImages = 4
	}
	if err := c.Validate(); err != nil {
		return Catalog{}, err
	}
	return c, nil
}

func (c Catalog) Validate() error {
	if len(c.Sites) == 0 {
		return errors.New("catalog: at least one site is required")
	}
	seen := make(map[string]bool)
	tables := make(map[string]bool)
	for _, s := range c.Sites {
		if s.Key == "" {
			return errors.New("catalog: site key is required")
		}
		if seen["site:"+s.Key] {
			return fmt.Errorf("catalog: duplicate site %q", s.Key)
		}
		seen["site:"+s.Key] = true
		if !identPattern.MatchString(s.Table) {
			return fmt.Errorf("catalog: site %q has invalid table %q", s.Key, s.Table)
		}
		if tables[s.Table] {
			return fmt.Errorf("catalog: table %q used by more than one site", s.Table)
		}
		tables[s.Table] = true
	}
	for _, l := range c.Layouts {
		if l.ID == "" {
			return errors.New("catalog: layout id is required")
		}
		if seen["layout:"+l.ID] {
			return fmt.Errorf("catalog: duplicate layout %q", l.ID)
		}
		seen["layout:"+l.ID] = true
	}
	for _, p := range c.Promotions {
		if p.ID == "" || p.Label == "" {
			return errors.New("catalog: promotion id and label are required")
		}
		if seen["promo:"+p.ID] {
			return fmt.Errorf("catalog: duplicate promotion %q", p.ID)
		}
		seen["promo:"+p.ID] = true
	}
	return nil
}

func (c Catalog) Site(key string) (Site, bool) {
	for _, s := range c.Sites {
		if s.Key == key {
			return s, true
		}
	}
	return Site{}, false
}

func (c Catalog) Layout(id string) (Layout, bool) {
	for _, l := range c.Layouts {
		if l.ID == id {
			return l, true
		}
	}
	return Layout{}, false
}

// SiteTables lists the post table of every site, in catalog order.
func (c Catalog) SiteTables() []string {
	out := make([]string, 0, len(c.Sites))
	for _, s := range c.Sites {
		out = append(out, s.Table)
	}
	return out
}
