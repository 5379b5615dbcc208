package seeder

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/helppanel/backend/internal/models"
)

// ContentProcessor tidies editorial text before it is stored.
type ContentProcessor struct {
	htmlTags *regexp.Regexp
}

func NewContentProcessor() *ContentProcessor {
	return &ContentProcessor{
		htmlTags: regexp.MustCompile(`</?[a-zA-Z][^>]*>`),
	}
}

// CleanContent converts HTML markup to plain text and drops trailing
// whitespace and runs of more than two blank lines. Leading indentation and
// bullet markers are kept.
func (cp *ContentProcessor) CleanContent(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	if cp.htmlTags.MatchString(content) {
		content = cp.htmlToText(content)
	}

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	emptyLines := 0

	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			emptyLines++
			if emptyLines <= 2 {
				cleaned = append(cleaned, "")
			}
			continue
		}
		emptyLines = 0
		cleaned = append(cleaned, line)
	}

	return strings.TrimSpace(strings.Join(cleaned, "\n"))
}

// htmlToText keeps the line structure of block elements and renders list
// items as bullets.
func (cp *ContentProcessor) htmlToText(content string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return cp.htmlTags.ReplaceAllString(content, "")
	}

	doc.Find("script, style").Remove()
	doc.Find("br").ReplaceWithHtml("\n")
	doc.Find("li").Each(func(_ int, s *goquery.Selection) {
		s.PrependHtml("• ")
		s.AppendHtml("\n")
	})
	doc.Find("p, h1, h2, h3, h4, h5, h6, ul, ol, pre, div").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n\n")
	})

	return doc.Text()
}

// CleanLine collapses a single-line field such as a title.
func (cp *ContentProcessor) CleanLine(s string) string {
	s = cp.htmlTags.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// Process normalizes every editorial field of a.
func (cp *ContentProcessor) Process(a *models.HelpArticle) {
	a.ID = strings.TrimSpace(a.ID)
	a.Title = cp.CleanLine(a.Title)
	a.Description = cp.CleanLine(a.Description)
	a.Content = cp.CleanContent(a.Content)
	if c, ok := models.ParseCategory(string(a.Category)); ok {
		a.Category = c
	}
	a.Tags = models.NormalizeTags(a.Tags)
}

// CountWords estimates word count in text
func (cp *ContentProcessor) CountWords(text string) int {
	if text == "" {
		return 0
	}

	words := strings.FieldsFunc(text, func(c rune) bool {
		return unicode.IsSpace(c) || unicode.IsPunct(c)
	})

	// Filter out very short "words"
	count := 0
	for _, word := range words {
		if len(strings.TrimSpace(word)) > 1 {
			count++
		}
	}
	return count
}
