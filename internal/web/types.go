package web

import (
	"html/template"

	"pbnadmin/internal/config"
	"pbnadmin/internal/console"
)

type ViewData struct {
	Title           string
	ContentTemplate string
	ContentHTML     template.HTML
	Toasts          []Toast
	Catalog         config.Catalog

	Network    NetworkForm
	Promotions []PromotionOption

	Board      console.OfferBoard
	CanAddSlot bool
	NextSlots  int

	Site config.Site
	Post PostForm

	Layout    config.Layout
	Product   ProductForm
	MaxImages int
}

type NetworkForm struct {
	Domain           string
	WebsiteContext   string
	ContentStructure string
	AffiliateLink    string
}

type PromotionOption struct {
	ID      string
	Label   string
	Checked bool
}

type PostForm struct {
	Title            string
	Content          string
	ContentHTML      template.HTML
	AlsoAvailable    bool
	AlsoAvailableURL string
}

type ProductForm struct {
	Name             string
	NameFormat       console.Format
	MiniBlog         string
	MiniBlogFormat   console.Format
	AlsoAvailable    bool
	AlsoAvailableURL string
}
