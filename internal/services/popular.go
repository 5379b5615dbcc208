package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/helppanel/backend/internal/models"
	"github.com/sirupsen/logrus"
)

const (
	DefaultPopularLimit = 5
	MaxPopularLimit     = 50
)

// PopularityRanking orders published articles by view count.
type PopularityRanking struct {
	store  models.ContentStore
	logger *logrus.Logger
}

func NewPopularityRanking(store models.ContentStore, logger *logrus.Logger) *PopularityRanking {
	return &PopularityRanking{
		store:  store,
		logger: logger,
	}
}

// TopPopular returns the n most viewed articles. Equal view counts keep
// creation order. n <= 0 means DefaultPopularLimit.
func (p *PopularityRanking) TopPopular(ctx context.Context, n int) ([]models.Article, error) {
	if n <= 0 {
		n = DefaultPopularLimit
	}
	if n > MaxPopularLimit {
		n = MaxPopularLimit
	}

	articles, err := p.store.QueryPublishedArticles(ctx, models.ArticleFilter{OrderBy: models.OrderCreatedAsc})
	if err != nil {
		p.logger.WithError(err).Error("Popular topics query failed")
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].ViewCount > articles[j].ViewCount
	})
	if len(articles) > n {
		articles = articles[:n]
	}

	p.logger.WithFields(logrus.Fields{
		"requested": n,
		"returned":  len(articles),
	}).Debug("Popular topics ranked")
	return articles, nil
}
