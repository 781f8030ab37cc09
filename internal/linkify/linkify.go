// Package linkify rewrites bare domain names found in rich-text markup into
// hyperlinks.
//
// Only text runs are rewritten. Tags, attribute values, comments and the
// contents of existing anchors (and a few other opaque elements such as
// script or code) pass through byte for byte, so the rewrite is idempotent.
// This is a lexical pass over the markup, not an HTML sanitiser: malformed or
// deeply broken markup is passed through on a best-effort basis.
//
// A token is a single label followed by .com, .in or .org, with an optional
// http:// or https:// scheme. Hosts with more than one label are never
// linked, with or without a scheme, nor are e-mail domains or longer TLDs:
// www.example.com, https://www.example.com, contact@example.com and
// example.community all come back unchanged. Bytes that are not valid UTF-8
// are kept as they are, and only the text between them is scanned.
package linkify

import (
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// tokenPattern matches "[http://|https://]label.(com|in|org)".
//
// A token is skipped when it starts an href value or is followed by a quote.
// It must not continue a longer word, host, path or e-mail address, and the
// TLD must not continue into further label characters.
const tokenPattern = `(?<!href=["'])(?<![\w.@&/-])` +
	`(https?://)?` +
	`[A-Za-z0-9-]+\.(?:com|in|org)` +
	`(?![A-Za-z0-9"'-])`

const matchTimeout = 2 * time.Second

var bareToken = compileToken()

func compileToken() *regexp2.Regexp {
	re := regexp2.MustCompile(tokenPattern, regexp2.IgnoreCase)
	re.MatchTimeout = matchTimeout
	return re
}

// opaque elements never have their text rewritten.
var opaque = map[atom.Atom]bool{
	atom.A:        true,
	atom.Code:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Textarea: true,
	atom.Title:    true,
}

// HTML returns markup with every bare domain token outside an existing link
// wrapped in an anchor that opens in a new tab. When nothing is rewritten the
// input string itself is returned.
func HTML(markup string) string {
	if !strings.Contains(markup, ".") {
		return markup
	}

	z := html.NewTokenizer(strings.NewReader(markup))
	var b strings.Builder
	b.Grow(len(markup) + 64)
	consumed := 0
	depth := 0
	changed := false
	for {
		tt := z.Next()
		raw := string(z.Raw())
		consumed += len(raw)
		switch tt {
		case html.ErrorToken:
			b.WriteString(raw)
			// Anything but a clean end of input, or a token stream that did
			// not cover every byte, leaves the markup alone.
			if z.Err() != io.EOF || consumed != len(markup) || !changed {
				return markup
			}
			return b.String()
		case html.TextToken:
			if depth == 0 {
				if out, ok := linkText(raw); ok {
					b.WriteString(out)
					changed = true
					break
				}
			}
			b.WriteString(raw)
		case html.StartTagToken:
			// TagName lowercases the token buffer in place, so raw is copied first.
			b.WriteString(raw)
			if isOpaque(z) {
				depth++
			}
		case html.EndTagToken:
			b.WriteString(raw)
			if depth > 0 && isOpaque(z) {
				depth--
			}
		default:
			b.WriteString(raw)
		}
	}
}

func isOpaque(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	return opaque[atom.Lookup(name)]
}

// linkText rewrites the tokens of a text run. Invalid UTF-8 bytes are copied
// through untouched and only the valid stretches between them are scanned.
func linkText(text string) (string, bool) {
	if utf8.ValidString(text) {
		return linkValid(text)
	}
	var b strings.Builder
	b.Grow(len(text) + 64)
	changed := false
	for len(text) > 0 {
		n := validPrefix(text)
		if n == 0 {
			b.WriteByte(text[0])
			text = text[1:]
			continue
		}
		out, ok := linkValid(text[:n])
		b.WriteString(out)
		changed = changed || ok
		text = text[n:]
	}
	if !changed {
		return "", false
	}
	return b.String(), true
}

func validPrefix(s string) int {
	n := 0
	for n < len(s) {
		r, size := utf8.DecodeRuneInString(s[n:])
		if r == utf8.RuneError && size == 1 {
			break
		}
		n += size
	}
	return n
}

func linkValid(text string) (string, bool) {
	out, err := bareToken.ReplaceFunc(text, func(m regexp2.Match) string {
		token := m.String()
		href := token
		if g := m.GroupByNumber(1); g == nil || g.Length == 0 {
			href = "https://" + token
		}
		return Anchor(href, token)
	}, -1, -1)
	if err != nil || out == text {
		return text, false
	}
	return out, true
}

// Anchor renders a hyperlink that opens in a new tab. href and text are
// escaped.
func Anchor(href, text string) string {
	return `<a href="` + html.EscapeString(href) + `" target="_blank" rel="noopener noreferrer">` +
		html.EscapeString(text) + `</a>`
}

// EnsureScheme trims raw and prefixes https:// unless it already starts with
// http:// or https://.
func EnsureScheme(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return raw
	}
	return "https://" + raw
}
