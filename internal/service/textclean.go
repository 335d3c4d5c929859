package service

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// noiseSelectors are removed before text extraction; they carry navigation
// chrome, not documentation content.
var noiseSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "header", "footer", "aside",
}

// contentSelectors are tried in order; the first match becomes the content
// root, falling back to body.
var contentSelectors = []string{"main", "article", "div.content", "div.documentation"}

// TextCleaner extracts readable documentation text from raw HTML.
type TextCleaner struct{}

func NewTextCleaner() *TextCleaner {
	return &TextCleaner{}
}

// Clean parses rawHTML and returns the page title and normalized text.
// Code blocks survive as backtick-fenced text so examples stay searchable.
func (tc *TextCleaner) Clean(rawHTML string) (title, text string, err error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return "", "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	title = strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}

	for _, sel := range noiseSelectors {
		doc.Find(sel).Remove()
	}

	root := doc.Find("body")
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			root = found.First()
			break
		}
	}

	// Fence code blocks before flattening so their text is not mangled by
	// whitespace normalization.
	root.Find("pre").Each(func(_ int, s *goquery.Selection) {
		code := strings.TrimRight(s.Text(), "\n")
		s.SetText("\n```\n" + code + "\n```\n")
	})
	root.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, s *goquery.Selection) {
		s.SetText("\n\n" + strings.TrimSpace(s.Text()) + "\n\n")
	})
	root.Find("p, li, tr, blockquote").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return title, normalizeWhitespace(root.Text()), nil
}

// normalizeWhitespace collapses runs of spaces within lines and runs of blank
// lines into paragraph breaks, except inside fenced code blocks.
func normalizeWhitespace(raw string) string {
	lines := strings.Split(raw, "\n")
	var b strings.Builder
	inCode := false
	blankRun := 0

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "```" {
			inCode = !inCode
			b.WriteString(trimmed)
			b.WriteByte('\n')
			blankRun = 0
			continue
		}
		if inCode {
			b.WriteString(line)
			b.WriteByte('\n')
			continue
		}
		if trimmed == "" {
			blankRun++
			continue
		}
		if b.Len() > 0 {
			if blankRun > 0 {
				b.WriteString("\n")
			}
		}
		b.WriteString(strings.Join(strings.Fields(trimmed), " "))
		b.WriteByte('\n')
		blankRun = 0
	}

	return strings.TrimSpace(b.String())
}
