package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/search"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ContentStoreImpl implements models.ContentStore on PostgreSQL through GORM.
type ContentStoreImpl struct {
	db *gorm.DB
}

func NewContentStore(db *gorm.DB) *ContentStoreImpl {
	return &ContentStoreImpl{db: db}
}

func (r *ContentStoreImpl) QueryPublishedArticles(ctx context.Context, filter models.ArticleFilter) ([]models.Article, error) {
	q := r.db.WithContext(ctx).
		Model(&models.HelpArticle{}).
		Where("is_published = ?", true)

	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if len(filter.Tags) > 0 {
		q = q.Where("tags @> ?::text[]", models.StringArray(filter.Tags))
	}
	for _, tok := range search.Tokenize(filter.Query) {
		pattern := "%" + search.EscapeLike(tok) + "%"
		q = q.Where("(title ILIKE ? OR description ILIKE ? OR content ILIKE ?)", pattern, pattern, pattern)
	}

	switch filter.OrderBy {
	case models.OrderViewsDesc:
		q = q.Order("view_count DESC").Order("created_at ASC").Order("seq ASC")
	case models.OrderCreatedAsc:
		q = q.Order("created_at ASC").Order("seq ASC")
	default:
		q = q.Order("created_at DESC").Order("seq DESC")
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var rows []models.HelpArticle
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("query help articles: %w", err)
	}

	articles := make([]models.Article, len(rows))
	for i, row := range rows {
		articles[i] = row.ToArticle()
	}
	return articles, nil
}

func (r *ContentStoreImpl) GetPublishedArticleByID(ctx context.Context, id string) (models.Article, error) {
	var row models.HelpArticle
	err := r.db.WithContext(ctx).
		Where("id = ? AND is_published = ?", id, true).
		First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Article{}, models.ErrArticleNotFound
	}
	if err != nil {
		return models.Article{}, fmt.Errorf("get help article %s: %w", id, err)
	}
	return row.ToArticle(), nil
}

// IncrementViewCount bumps the counter without touching updated_at, which
// tracks editorial changes only.
func (r *ContentStoreImpl) IncrementViewCount(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).
		Model(&models.HelpArticle{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return fmt.Errorf("increment view count for %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return models.ErrArticleNotFound
	}
	return nil
}

func (r *ContentStoreImpl) InsertAnalyticsEvent(ctx context.Context, event models.AnalyticsEvent) error {
	return r.db.WithContext(ctx).Create(models.NewAnalyticsRecord(event)).Error
}

func (r *ContentStoreImpl) ListAnalyticsEvents(ctx context.Context) ([]models.AnalyticsEvent, error) {
	var rows []models.HelpAnalyticsEvent
	err := r.db.WithContext(ctx).
		Order("timestamp ASC").
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list analytics events: %w", err)
	}

	events := make([]models.AnalyticsEvent, len(rows))
	for i, row := range rows {
		events[i] = row.ToEvent()
	}
	return events, nil
}

// UpsertArticle inserts or refreshes the editorial fields of an article.
// The view counter and creation time of an existing row are preserved.
func (r *ContentStoreImpl) UpsertArticle(ctx context.Context, article *models.HelpArticle) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "description", "content", "category", "tags", "is_published", "updated_at",
		}),
	}).Create(article).Error
}

// Ping checks the underlying connection.
func (r *ContentStoreImpl) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
