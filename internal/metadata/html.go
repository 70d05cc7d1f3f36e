package metadata

import (
	"io"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/tabsverse/tabsverse-server/internal/normalize"
)

// minImageSide is the smallest declared width or height for an <img> to
// count as a thumbnail candidate.
const minImageSide = 100

// page holds the raw values found in an HTML document, before fallbacks.
type page struct {
	meta map[string]string // og:*, twitter:*, and name=description, first wins

	title     string
	lang      string
	baseHref  string
	icon      string
	touchIcon string
	firstImg  string
}

// parsePage walks an HTML document collecting metadata candidates.
func parsePage(r io.Reader) (*page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	p := &page{meta: make(map[string]string)}
	p.walk(doc)
	return p, nil
}

func (p *page) walk(n *html.Node) {
	if n.Type == html.ElementNode && n.Namespace == "" {
		switch n.DataAtom {
		case atom.Html:
			if p.lang == "" {
				p.lang = strings.TrimSpace(attr(n, "lang"))
			}
		case atom.Title:
			if p.title == "" {
				p.title = collapseWhitespace(textContent(n))
			}
		case atom.Meta:
			p.addMeta(n)
		case atom.Link:
			p.addLink(n)
		case atom.Base:
			if p.baseHref == "" {
				p.baseHref = strings.TrimSpace(attr(n, "href"))
			}
		case atom.Img:
			if p.firstImg == "" && substantialImage(n) {
				p.firstImg = strings.TrimSpace(attr(n, "src"))
			}
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c)
	}
}

func (p *page) addMeta(n *html.Node) {
	key := strings.ToLower(strings.TrimSpace(attr(n, "property")))
	if key == "" {
		key = strings.ToLower(strings.TrimSpace(attr(n, "name")))
	}
	if key == "" {
		return
	}
	content := collapseWhitespace(attr(n, "content"))
	if content == "" {
		return
	}
	if _, seen := p.meta[key]; !seen {
		p.meta[key] = content
	}
}

func (p *page) addLink(n *html.Node) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" {
		return
	}
	for _, rel := range strings.Fields(strings.ToLower(attr(n, "rel"))) {
		switch rel {
		case "icon":
			if p.icon == "" {
				p.icon = href
			}
		case "apple-touch-icon", "apple-touch-icon-precomposed":
			if p.touchIcon == "" {
				p.touchIcon = href
			}
		}
	}
}

// Title follows og:title, then twitter:title, then <title>.
func (p *page) Title() string {
	return firstNonEmpty(p.meta["og:title"], p.meta["twitter:title"], p.title)
}

// Description follows og:description, then twitter:description, then the
// description meta tag.
func (p *page) Description() string {
	return firstNonEmpty(p.meta["og:description"], p.meta["twitter:description"], p.meta["description"])
}

// Image follows og:image, then twitter:image, then the first substantial <img>.
func (p *page) Image() string {
	return firstNonEmpty(
		p.meta["og:image"],
		p.meta["og:image:url"],
		p.meta["og:image:secure_url"],
		p.meta["twitter:image"],
		p.meta["twitter:image:src"],
		p.firstImg,
	)
}

// Favicon prefers rel=icon over the touch icons.
func (p *page) Favicon() string {
	return firstNonEmpty(p.icon, p.touchIcon)
}

// Language is the ISO 639-1 code from og:locale, then <html lang>.
func (p *page) Language() string {
	if code := normalize.LanguageCode(p.meta["og:locale"]); code != "" {
		return code
	}
	return normalize.LanguageCode(p.lang)
}

// base returns the URL relative references resolve against: the document's
// <base href> when it parses, otherwise the page URL.
func (p *page) base(pageURL *url.URL) *url.URL {
	if p.baseHref == "" {
		return pageURL
	}
	if b, err := pageURL.Parse(p.baseHref); err == nil {
		return b
	}
	return pageURL
}

// substantialImage filters out tracking pixels, spacers, and inline data.
func substantialImage(n *html.Node) bool {
	src := strings.TrimSpace(attr(n, "src"))
	if src == "" || strings.HasPrefix(strings.ToLower(src), "data:") {
		return false
	}
	for _, dim := range []string{"width", "height"} {
		v := strings.TrimSuffix(strings.TrimSpace(attr(n, dim)), "px")
		if v == "" {
			continue
		}
		if size, err := strconv.Atoi(v); err == nil && size < minImageSide {
			return false
		}
	}
	lower := strings.ToLower(src)
	for _, marker := range []string{"pixel", "spacer", "tracking", "1x1"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// resolveURL makes ref absolute against base. Only http(s) results are kept.
func resolveURL(base *url.URL, ref string) string {
	if ref == "" {
		return ""
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return u.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			buf.WriteString(c.Data)
		}
	}
	return buf.String()
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
