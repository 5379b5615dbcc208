package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/search"
)

// MemoryStore is an in-process models.ContentStore. It backs the "memory"
// store driver and serves as the test double for the service layer.
type MemoryStore struct {
	mu       sync.RWMutex
	articles []*models.HelpArticle
	byID     map[string]*models.HelpArticle
	events   []models.AnalyticsEvent
	nextSeq  int64
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID: make(map[string]*models.HelpArticle),
		now:  time.Now,
	}
}

// NewMemoryStoreWith returns a store seeded with the given rows in order.
func NewMemoryStoreWith(articles ...models.HelpArticle) (*MemoryStore, error) {
	s := NewMemoryStore()
	for i := range articles {
		a := articles[i]
		if err := s.UpsertArticle(context.Background(), &a); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *MemoryStore) QueryPublishedArticles(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	rows := make([]models.HelpArticle, 0, len(s.articles))
	for _, a := range s.articles {
		if a.IsPublished && search.Matches(a.ToArticle(), filter) {
			rows = append(rows, *a)
		}
	}
	s.mu.RUnlock()

	sortRows(rows, filter.OrderBy)
	if filter.Limit > 0 && len(rows) > filter.Limit {
		rows = rows[:filter.Limit]
	}

	out := make([]models.Article, len(rows))
	for i, row := range rows {
		out[i] = row.ToArticle()
	}
	return out, nil
}

// sortRows mirrors the SQL ordering clauses of ContentStoreImpl.
func sortRows(rows []models.HelpArticle, order models.ArticleOrder) {
	createdAsc := func(a, b models.HelpArticle) bool {
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Seq < b.Seq
	}

	switch order {
	case models.OrderViewsDesc:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].ViewCount != rows[j].ViewCount {
				return rows[i].ViewCount > rows[j].ViewCount
			}
			return createdAsc(rows[i], rows[j])
		})
	case models.OrderCreatedAsc:
		sort.SliceStable(rows, func(i, j int) bool { return createdAsc(rows[i], rows[j]) })
	default:
		sort.SliceStable(rows, func(i, j int) bool { return createdAsc(rows[j], rows[i]) })
	}
}

func (s *MemoryStore) GetPublishedArticleByID(ctx context.Context, id string) (models.Article, error) {
	if err := ctx.Err(); err != nil {
		return models.Article{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.byID[id]
	if !ok || !a.IsPublished {
		return models.Article{}, models.ErrArticleNotFound
	}
	return a.ToArticle(), nil
}

func (s *MemoryStore) IncrementViewCount(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.byID[id]
	if !ok {
		return models.ErrArticleNotFound
	}
	a.ViewCount++
	return nil
}

func (s *MemoryStore) InsertAnalyticsEvent(ctx context.Context, event models.AnalyticsEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := event.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) ListAnalyticsEvents(ctx context.Context) ([]models.AnalyticsEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.AnalyticsEvent, len(s.events))
	copy(out, s.events)
	return out, nil
}

// UpsertArticle inserts a row or refreshes its editorial fields, keeping the
// view count, creation time and insertion sequence of an existing row.
func (s *MemoryStore) UpsertArticle(ctx context.Context, article *models.HelpArticle) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := article.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	row := *article
	row.Tags = append(models.StringArray(nil), article.Tags...)
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = now
	}

	if existing, ok := s.byID[row.ID]; ok {
		row.Seq = existing.Seq
		row.ViewCount = existing.ViewCount
		row.CreatedAt = existing.CreatedAt
		*existing = row
		return nil
	}

	if row.CreatedAt.IsZero() {
		row.CreatedAt = now
	}
	s.nextSeq++
	row.Seq = s.nextSeq
	s.articles = append(s.articles, &row)
	s.byID[row.ID] = &row
	article.Seq = row.Seq
	return nil
}

// ViewCount returns the current counter for id, or -1 when unknown.
func (s *MemoryStore) ViewCount(id string) int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[id]; ok {
		return a.ViewCount
	}
	return -1
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
