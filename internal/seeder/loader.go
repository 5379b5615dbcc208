package seeder

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/helppanel/backend/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data/help_articles.yaml
var defaultCatalog []byte

// articleFile is the on-disk catalog layout.
type articleFile struct {
	Articles []articleEntry `yaml:"articles"`
}

type articleEntry struct {
	ID          string    `yaml:"id"`
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Content     string    `yaml:"content"`
	Category    string    `yaml:"category"`
	Tags        []string  `yaml:"tags"`
	Published   *bool     `yaml:"published"`
	ViewCount   int64     `yaml:"view_count"`
	CreatedAt   time.Time `yaml:"created_at"`
	UpdatedAt   time.Time `yaml:"updated_at"`
}

func (e articleEntry) toModel() models.HelpArticle {
	published := true
	if e.Published != nil {
		published = *e.Published
	}
	return models.HelpArticle{
		ID:          e.ID,
		Title:       e.Title,
		Description: e.Description,
		Content:     e.Content,
		Category:    models.Category(e.Category),
		Tags:        e.Tags,
		IsPublished: published,
		ViewCount:   e.ViewCount,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

// LoadArticles decodes a YAML catalog, cleans every entry and validates
// it. Entries keep file order, which becomes their creation order.
func LoadArticles(r io.Reader) ([]models.HelpArticle, error) {
	var file articleFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode article catalog: %w", err)
	}

	processor := NewContentProcessor()
	seen := make(map[string]bool, len(file.Articles))
	articles := make([]models.HelpArticle, 0, len(file.Articles))

	for i, entry := range file.Articles {
		a := entry.toModel()
		processor.Process(&a)

		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("article %d (%q): %w", i, a.ID, err)
		}
		if seen[a.ID] {
			return nil, fmt.Errorf("duplicate article id %q", a.ID)
		}
		seen[a.ID] = true
		articles = append(articles, a)
	}
	return articles, nil
}

func LoadFile(path string) ([]models.HelpArticle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return LoadArticles(f)
}

// DefaultArticles returns the built-in catalog.
func DefaultArticles() ([]models.HelpArticle, error) {
	return LoadArticles(bytes.NewReader(defaultCatalog))
}
