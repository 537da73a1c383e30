// Package scrape implements the source adapter shared by every configured
// documentation origin. It turns a retrieval intent into guarded HTTP
// fetches and parsed documentation entries.
package scrape

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/docserve"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Parsing thresholds.
const (
	// minSectionLen is the minimum extracted text length for a section to
	// become an entry.
	minSectionLen = 40

	// minFallbackLen is the minimum extracted text length for the
	// whole-document fallback to produce an entry.
	minFallbackLen = 80

	// minExampleLen filters out trivial code fragments.
	minExampleLen = 10

	// defaultLanguage is assumed for code blocks without a language hint.
	defaultLanguage = "javascript"
)

// Parser extracts documentation entries from HTML markup. Parse is pure
// and defensive: malformed or truncated input yields fewer entries, never
// an error.
type Parser struct {
	conv *converter.Converter
}

// NewParser creates a new Parser.
func NewParser() *Parser {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	return &Parser{conv: conv}
}

// Parse extracts entries from markup fetched at originURL. Script and
// style content is stripped before extraction. Content sections become
// api-kind entries; code blocks become example-kind entries tagged with a
// detected language. When the page has no structural markers the whole
// document is extracted instead, provided the text is long enough.
func (p *Parser) Parse(markup, originURL string) []*docserve.Entry {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil
	}

	doc.Find("script, style, noscript").Remove()

	pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
	if pageTitle == "" {
		pageTitle = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	var entries []*docserve.Entry

	sections := p.parseSections(doc, originURL)
	if len(sections) == 0 {
		if fallback := p.parseWholeDocument(markup, originURL, pageTitle); fallback != nil {
			sections = []*docserve.Entry{fallback}
		}
	}
	entries = append(entries, sections...)
	entries = append(entries, p.parseCodeBlocks(doc, originURL, pageTitle)...)

	return entries
}

// parseSections emits one api-kind entry per heading-led content section.
func (p *Parser) parseSections(doc *goquery.Document, originURL string) []*docserve.Entry {
	var entries []*docserve.Entry

	doc.Find("h1, h2, h3").Each(func(_ int, heading *goquery.Selection) {
		title := strings.TrimSpace(heading.Text())
		if title == "" {
			return
		}

		var sb strings.Builder
		heading.NextUntil("h1, h2, h3").Each(func(_ int, sel *goquery.Selection) {
			if raw, err := goquery.OuterHtml(sel); err == nil {
				sb.WriteString(raw)
			}
		})

		content := p.toText(sb.String())
		if len(content) < minSectionLen {
			return
		}

		entries = append(entries, &docserve.Entry{
			Title:   title,
			Content: content,
			URL:     originURL + "#" + anchor(title),
			Kind:    docserve.KindAPI,
		})
	})

	return entries
}

// parseCodeBlocks emits one example-kind entry per code block. The language
// comes from class hints on the code element or its ancestors; a preceding
// paragraph, if any, becomes the entry's description.
func (p *Parser) parseCodeBlocks(doc *goquery.Document, originURL, pageTitle string) []*docserve.Entry {
	var entries []*docserve.Entry

	doc.Find("pre").Each(func(i int, pre *goquery.Selection) {
		code := pre.Find("code").First()
		if code.Length() == 0 {
			code = pre
		}

		text := strings.TrimSpace(code.Text())
		if len(text) < minExampleLen {
			return
		}

		title := strings.TrimSpace(pre.PrevAllFiltered("h1, h2, h3, h4").First().Text())
		if title == "" {
			title = pageTitle
		}
		if title == "" {
			title = "Example"
		}

		metadata := map[string]string{
			"language": detectLanguage(pre, code),
		}
		if desc := strings.TrimSpace(pre.Prev().Filter("p").Text()); desc != "" {
			metadata["description"] = desc
		}

		entries = append(entries, &docserve.Entry{
			Title:    title,
			Content:  text,
			URL:      originURL,
			Kind:     docserve.KindExample,
			Metadata: metadata,
		})
	})

	return entries
}

// parseWholeDocument extracts the main content of a page without structural
// markers. Returns nil if extraction fails or yields too little text.
func (p *Parser) parseWholeDocument(markup, originURL, pageTitle string) *docserve.Entry {
	result, err := trafilatura.Extract(strings.NewReader(markup), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil || result.ContentNode == nil {
		return nil
	}

	rendered, err := renderNode(result.ContentNode)
	if err != nil {
		return nil
	}

	content := p.toText(rendered)
	if len(content) < minFallbackLen {
		return nil
	}

	title := result.Metadata.Title
	if title == "" {
		title = pageTitle
	}
	if title == "" {
		return nil
	}

	return &docserve.Entry{
		Title:   title,
		Content: content,
		URL:     originURL,
		Kind:    docserve.KindAPI,
	}
}

// toText converts an HTML fragment to plain markdown text.
func (p *Parser) toText(fragment string) string {
	if strings.TrimSpace(fragment) == "" {
		return ""
	}
	text, err := p.conv.ConvertString(fragment)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}

// renderNode converts an html.Node to a string.
func renderNode(n *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, n); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// languageClassPrefixes are the class hints emitted by common highlighters.
var languageClassPrefixes = []string{"language-", "lang-", "highlight-source-"}

// detectLanguage inspects class hints on the code block and its container.
func detectLanguage(pre, code *goquery.Selection) string {
	for _, sel := range []*goquery.Selection{code, pre, pre.Parent()} {
		class, ok := sel.Attr("class")
		if !ok {
			continue
		}
		for _, token := range strings.Fields(class) {
			for _, prefix := range languageClassPrefixes {
				if lang, found := strings.CutPrefix(token, prefix); found && lang != "" {
					return strings.ToLower(lang)
				}
			}
		}
	}
	return defaultLanguage
}

// anchor creates a URL-safe fragment from a section title.
// Converts to lowercase, replaces spaces with hyphens, removes special chars.
func anchor(title string) string {
	var sb strings.Builder
	prevHyphen := false

	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			prevHyphen = false
		} else if unicode.IsSpace(r) || r == '-' {
			if !prevHyphen && sb.Len() > 0 {
				sb.WriteRune('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimSuffix(sb.String(), "-")
}
