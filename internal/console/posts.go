package console

import (
	"context"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"pbnadmin/internal/linkify"
	"pbnadmin/internal/store"
)

type PostRequest struct {
	Site             string
	Title            string
	Content          string
	AlsoAvailable    bool
	AlsoAvailableURL string
}

type Post struct {
	ID        string
	Site      string
	Title     string
	Content   string
	CreatedAt string
}

var (
	bodyPolicy = newBodyPolicy()
	textPolicy = bluemonday.StrictPolicy()
)

// newBodyPolicy allows the markup a contenteditable rich-text editor
// produces: inline emphasis, headings, lists, quotes and links.
func newBodyPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("p", "div", "br", "span", "b", "strong", "i", "em", "u", "s", "strike",
		"sub", "sup", "h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "blockquote", "pre", "code", "hr")
	p.AllowStandardURLs()
	p.AllowURLSchemes("http", "https", "mailto")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowAttrs("rel").Matching(regexp.MustCompile(`^[a-z ]+$`)).OnElements("a")
	p.AllowAttrs("class").Matching(regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)).OnElements("p")
	return p
}

// Commit is the rewrite applied when the editor loses focus: bare domains in
// the markup become links.
func (s *Service) Commit(markup string) string {
	return linkify.HTML(markup)
}

// Draft returns markup with everything the body policy rejects removed, so an
// unpublished draft can be shown in the editor again.
func (s *Service) Draft(markup string) string {
	return bodyPolicy.Sanitize(markup)
}

// PublishPost sanitises and linkifies the post body, adds the also-available
// line for sites that offer it and stores the post in the site's table.
func (s *Service) PublishPost(ctx context.Context, req PostRequest) (Post, error) {
	site, ok := s.catalog.Site(req.Site)
	if !ok {
		return Post{}, invalid("Invalid blog type", "Unknown blog "+req.Site+".")
	}
	title := strings.TrimSpace(req.Title)
	content := bodyPolicy.Sanitize(req.Content)
	if title == "" || !hasVisibleText(content) {
		return Post{}, invalid("Error", "Please enter both title and content.")
	}
	content = linkify.HTML(content)
	if site.AlsoAvailable && req.AlsoAvailable {
		if u := linkify.EnsureScheme(req.AlsoAvailableURL); u != "" {
			content += `<p class="also-available">Also Available @ ` + linkify.Anchor(u, u) + `</p>`
		}
	}

	row, err := s.gw.InsertRow(ctx, site.Table, store.Values{
		"title":   title,
		"content": content,
	})
	if err != nil {
		return Post{}, err
	}
	slog.Info("post published", "site", site.Key, "id", row.Get("id"))
	return Post{
		ID:        row.Get("id"),
		Site:      site.Key,
		Title:     title,
		Content:   content,
		CreatedAt: row.Get("created_at"),
	}, nil
}

func hasVisibleText(markup string) bool {
	text := html.UnescapeString(textPolicy.Sanitize(markup))
	return strings.TrimSpace(text) != ""
}
