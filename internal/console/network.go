package console

import (
	"context"
	"log/slog"
	"slices"
	"strings"

	"pbnadmin/internal/store"
)

// BothPromotions is the pseudo option that selects every promotable product.
const BothPromotions = "both"

const networkTable = "BlogData"

// NetworkConfig registers a site with the network.
type NetworkConfig struct {
	Domain           string
	WebsiteContext   string
	ContentStructure string
	AffiliateLink    string
	ProductPromotion []string
}

func (s *Service) SaveNetworkConfig(ctx context.Context, cfg NetworkConfig) (store.Row, error) {
	domain := strings.TrimSpace(cfg.Domain)
	if domain == "" || cfg.ContentStructure == "" {
		return nil, invalid("Missing Information", "Please fill in the domain and select a content structure.")
	}
	if _, ok := s.catalog.Layout(cfg.ContentStructure); !ok {
		return nil, invalid("Invalid content structure", "Unknown layout "+cfg.ContentStructure+".")
	}
	var promotions []string
	for _, p := range cfg.ProductPromotion {
		if !s.isPromotionLabel(p) {
			return nil, invalid("Invalid product", "Unknown product "+p+".")
		}
		if !slices.Contains(promotions, p) {
			promotions = append(promotions, p)
		}
	}

	row, err := s.gw.InsertRow(ctx, networkTable, store.Values{
		"domain":                 domain,
		"website_context":        nullIfEmpty(cfg.WebsiteContext),
		"content_structure":      cfg.ContentStructure,
		"affiliate_partner_link": nullIfEmpty(cfg.AffiliateLink),
		"product_promotion":      promotions,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("network site registered", "domain", domain, "layout", cfg.ContentStructure)
	return row, nil
}

func nullIfEmpty(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func (s *Service) isPromotionLabel(label string) bool {
	for _, p := range s.catalog.Promotions {
		if p.Label == label {
			return true
		}
	}
	return false
}

func (s *Service) promotionLabel(optionID string) (string, bool) {
	for _, p := range s.catalog.Promotions {
		if p.ID == optionID {
			return p.Label, true
		}
	}
	return "", false
}

func (s *Service) allPromotionLabels() []string {
	out := make([]string, 0, len(s.catalog.Promotions))
	for _, p := range s.catalog.Promotions {
		out = append(out, p.Label)
	}
	return out
}

// TogglePromotion applies a checkbox change to the selected product labels.
// Checking "both" selects every product and unchecking it clears the
// selection. Unknown options leave the selection as it was.
func (s *Service) TogglePromotion(selected []string, optionID string, checked bool) []string {
	if optionID == BothPromotions {
		if checked {
			return s.allPromotionLabels()
		}
		return nil
	}
	label, ok := s.promotionLabel(optionID)
	if !ok {
		return selected
	}
	out := make([]string, 0, len(selected)+1)
	for _, v := range selected {
		if v != label {
			out = append(out, v)
		}
	}
	if checked {
		out = append(out, label)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PromotionSelected reports whether the checkbox for optionID is checked.
// "both" is checked only when every product is selected.
func (s *Service) PromotionSelected(selected []string, optionID string) bool {
	if optionID == BothPromotions {
		if len(s.catalog.Promotions) == 0 {
			return false
		}
		for _, label := range s.allPromotionLabels() {
			if !slices.Contains(selected, label) {
				return false
			}
		}
		return true
	}
	label, ok := s.promotionLabel(optionID)
	return ok && slices.Contains(selected, label)
}
