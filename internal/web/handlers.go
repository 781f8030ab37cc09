package web

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"pbnadmin/internal/console"
)

func chiParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}

// backTarget is the local path of the referring page, or "/".
func backTarget(r *http.Request) string {
	ref, err := url.Parse(r.Header.Get("Referer"))
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}

func (s *Server) page(title, content string) ViewData {
	return ViewData{
		Title:           title,
		ContentTemplate: content,
		Catalog:         s.svc.Catalog(),
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, data ViewData) {
	data.Toasts = s.toasts.List(toastKey(r))
	s.views.RenderPageStatus(w, status, data)
}

func checked(r *http.Request, name string) bool {
	switch r.FormValue(name) {
	case "on", "1", "true":
		return true
	}
	return false
}

func (s *Server) promotionOptions(selected []string) []PromotionOption {
	catalog := s.svc.Catalog()
	out := make([]PromotionOption, 0, len(catalog.Promotions)+1)
	for _, p := range catalog.Promotions {
		out = append(out, PromotionOption{ID: p.ID, Label: p.Label, Checked: s.svc.PromotionSelected(selected, p.ID)})
	}
	if len(catalog.Promotions) > 1 {
		out = append(out, PromotionOption{
			ID:      console.BothPromotions,
			Label:   "Both",
			Checked: s.svc.PromotionSelected(selected, console.BothPromotions),
		})
	}
	return out
}

func (s *Server) handleNetwork(w http.ResponseWriter, r *http.Request) {
	data := s.page("Blog Network", "network")
	data.Promotions = s.promotionOptions(nil)
	s.render(w, r, http.StatusOK, data)
}

func (s *Server) handleSaveNetwork(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	form := NetworkForm{
		Domain:           r.PostForm.Get("domain"),
		WebsiteContext:   r.PostForm.Get("website_context"),
		ContentStructure: r.PostForm.Get("content_structure"),
		AffiliateLink:    r.PostForm.Get("affiliate_link"),
	}
	var selected []string
	for _, id := range r.PostForm["promotion"] {
		selected = s.svc.TogglePromotion(selected, id, true)
	}

	_, err := s.svc.SaveNetworkConfig(r.Context(), console.NetworkConfig{
		Domain:           form.Domain,
		WebsiteContext:   form.WebsiteContext,
		ContentStructure: form.ContentStructure,
		AffiliateLink:    form.AffiliateLink,
		ProductPromotion: selected,
	})
	if err != nil {
		status := s.toastError(r, "Error", err)
		data := s.page("Blog Network", "network")
		data.Network = form
		data.Promotions = s.promotionOptions(selected)
		s.render(w, r, status, data)
		return
	}
	s.toastSuccess(r, "Success!", "Blog network configuration saved successfully.")
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
