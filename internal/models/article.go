package models

import (
	"strings"
	"time"
)

// Category is the closed set of help article sections.
type Category string

const (
	CategoryManual    Category = "manual"
	CategoryReference Category = "reference"
	CategoryTips      Category = "tips"
)

// ParseCategory normalizes raw input into a known category. The second
// return value is false for anything outside the enum.
func ParseCategory(raw string) (Category, bool) {
	c := Category(strings.ToLower(strings.TrimSpace(raw)))
	switch c {
	case CategoryManual, CategoryReference, CategoryTips:
		return c, true
	}
	return "", false
}

func (c Category) Valid() bool {
	switch c {
	case CategoryManual, CategoryReference, CategoryTips:
		return true
	}
	return false
}

// Article is the canonical help topic shape served to the widget.
type Article struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	Category    Category  `json:"category"`
	Tags        []string  `json:"tags"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	ViewCount   int64     `json:"viewCount"`
}

// SearchText is the text the query filter runs against.
func (a Article) SearchText() string {
	return a.Title + "\n" + a.Description + "\n" + a.Content
}

// HasTags reports whether the article carries every tag in want.
func (a Article) HasTags(want []string) bool {
	if len(want) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(a.Tags))
	for _, t := range a.Tags {
		have[t] = struct{}{}
	}
	for _, t := range want {
		if _, ok := have[t]; !ok {
			return false
		}
	}
	return true
}

// SearchParams is the caller-facing search request. Every field is optional.
type SearchParams struct {
	Query    string   `json:"query,omitempty"`
	Category string   `json:"category,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// ArticleOrder selects the ordering applied by the store.
type ArticleOrder string

const (
	OrderCreatedDesc ArticleOrder = "created_desc"
	OrderCreatedAsc  ArticleOrder = "created_asc"
	OrderViewsDesc   ArticleOrder = "views_desc"
)

// ArticleFilter is the normalized store query. Zero values mean "no filter";
// Limit <= 0 means unlimited.
type ArticleFilter struct {
	Category Category
	Tags     []string
	Query    string
	OrderBy  ArticleOrder
	Limit    int
}

// NormalizeTags trims tags and drops blanks and duplicates, keeping the
// first-seen order.
func NormalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Filter converts caller params into a store filter. Unknown categories are
// dropped rather than rejected.
func (p SearchParams) Filter() ArticleFilter {
	f := ArticleFilter{
		Tags:    NormalizeTags(p.Tags),
		Query:   strings.TrimSpace(p.Query),
		OrderBy: OrderCreatedDesc,
	}
	if c, ok := ParseCategory(p.Category); ok {
		f.Category = c
	}
	return f
}
