package pagesignals

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/raysh454/netshield/internal/assessor"
	"github.com/raysh454/netshield/internal/utils"
)

// PageInfo is the structural summary of a rendered page.
type PageInfo struct {
	Title              string `json:"title"`
	URL                string `json:"url"`
	HasLoginForm       bool   `json:"hasLoginForm"`
	FormCount          int    `json:"formCount"`
	PasswordFieldCount int    `json:"passwordFieldCount"`
	ExternalLinkCount  int    `json:"externalLinkCount"`
	HiddenIframeCount  int    `json:"hiddenIframeCount"`
	FaviconHref        string `json:"faviconHref"`
	MetaDescription    string `json:"metaDescription"`
}

// Signals projects the page summary onto the scorer's input.
func (p *PageInfo) Signals() *assessor.PageSignals {
	if p == nil {
		return nil
	}
	return &assessor.PageSignals{
		HasLoginForm:      p.HasLoginForm,
		HiddenIframeCount: p.HiddenIframeCount,
	}
}

// Extract builds a PageInfo from an HTML body. pageURL is used to resolve
// relative links and may be empty, in which case every absolute link with a
// host counts as external.
func Extract(pageURL string, body []byte) (*PageInfo, error) {
	info := &PageInfo{URL: pageURL}

	var base *url.URL
	if pageURL != "" {
		if u, err := url.Parse(pageURL); err == nil {
			base = u
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return info, err
	}

	info.Title = strings.TrimSpace(doc.Find("title").First().Text())
	info.FormCount = doc.Find("form").Length()

	doc.Find("input").Each(func(_ int, sel *goquery.Selection) {
		if strings.EqualFold(getAttr(sel, "type"), "password") {
			info.PasswordFieldCount++
		}
	})
	info.HasLoginForm = info.PasswordFieldCount > 0

	info.ExternalLinkCount = countExternalLinks(doc, base)
	info.HiddenIframeCount = countHiddenIframes(doc)
	info.FaviconHref = faviconHref(doc, base)

	if content, ok := doc.Find(`meta[name="description"]`).First().Attr("content"); ok {
		info.MetaDescription = strings.TrimSpace(content)
	}

	return info, nil
}

func countExternalLinks(doc *goquery.Document, base *url.URL) int {
	pageHost := ""
	if base != nil {
		pageHost = strings.ToLower(base.Hostname())
	}

	n := 0
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		u, err := utils.ResolveReference(base, getAttr(sel, "href"))
		if err != nil {
			return
		}
		// links without a resolved host (javascript:, mailto:) still differ
		// from the page host
		if strings.ToLower(u.Hostname()) != pageHost {
			n++
		}
	})
	return n
}

func countHiddenIframes(doc *goquery.Document) int {
	n := 0
	doc.Find("iframe").Each(func(_ int, sel *goquery.Selection) {
		if isHidden(sel) {
			n++
		}
	})
	return n
}

// isHidden looks at the hidden attribute, inline styles and sizing attributes
// only; stylesheets are not evaluated.
func isHidden(sel *goquery.Selection) bool {
	if _, ok := sel.Attr("hidden"); ok {
		return true
	}
	if getAttr(sel, "width") == "0" || getAttr(sel, "height") == "0" {
		return true
	}
	style := parseStyle(getAttr(sel, "style"))
	return style["display"] == "none" || style["visibility"] == "hidden"
}

// parseStyle splits an inline style attribute into lower-cased declarations.
func parseStyle(attr string) map[string]string {
	out := map[string]string{}
	for _, decl := range strings.Split(attr, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(val), "!important"))
		out[strings.ToLower(strings.TrimSpace(prop))] = strings.ToLower(val)
	}
	return out
}

func faviconHref(doc *goquery.Document, base *url.URL) string {
	href, ok := doc.Find(`link[rel*="icon"]`).First().Attr("href")
	if !ok {
		return ""
	}
	u, err := utils.ResolveReference(base, href)
	if err != nil {
		return strings.TrimSpace(href)
	}
	return u.String()
}

// getAttr safely retrieves a trimmed attribute value from a goquery selection.
func getAttr(sel *goquery.Selection, attrName string) string {
	val, exists := sel.Attr(attrName)
	if exists {
		return strings.TrimSpace(val)
	}
	return ""
}
