// Package search defines the text and filter matching shared by every
// content store backend.
package search

import (
	"strings"

	"github.com/helppanel/backend/internal/models"
)

// Tokenize splits a free-text query into lower-cased whitespace tokens.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// MatchesQuery reports whether every token of query occurs, ignoring case,
// somewhere in the article's title, description or content.
func MatchesQuery(a models.Article, query string) bool {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		return true
	}
	text := strings.ToLower(a.SearchText())
	for _, tok := range tokens {
		if !strings.Contains(text, tok) {
			return false
		}
	}
	return true
}

// Matches applies the full conjunctive filter: category, tags and query.
func Matches(a models.Article, f models.ArticleFilter) bool {
	if f.Category != "" && a.Category != f.Category {
		return false
	}
	if !a.HasTags(f.Tags) {
		return false
	}
	return MatchesQuery(a, f.Query)
}

// EscapeLike escapes LIKE wildcards so a token is matched literally.
func EscapeLike(token string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(token)
}
