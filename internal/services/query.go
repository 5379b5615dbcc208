package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/search"
	"github.com/sirupsen/logrus"
)

// ErrQueryFailed marks a store failure surfaced by a primary content
// operation. Callers are expected to offer a manual retry.
var ErrQueryFailed = errors.New("help content query failed")

// MaxSearchResults caps every search response.
const MaxSearchResults = 50

// ContentQueryService answers filtered searches over published articles.
type ContentQueryService struct {
	store  models.ContentStore
	logger *logrus.Logger
}

func NewContentQueryService(store models.ContentStore, logger *logrus.Logger) *ContentQueryService {
	return &ContentQueryService{
		store:  store,
		logger: logger,
	}
}

// Search returns published articles matching every supplied filter, newest
// first, at most MaxSearchResults of them. No match is an empty slice.
func (s *ContentQueryService) Search(ctx context.Context, params models.SearchParams) ([]models.Article, error) {
	filter := params.Filter()
	filter.Limit = MaxSearchResults

	s.logger.WithFields(logrus.Fields{
		"query":    filter.Query,
		"category": filter.Category,
		"tags":     filter.Tags,
	}).Debug("Searching help content")

	rows, err := s.store.QueryPublishedArticles(ctx, filter)
	if err != nil {
		s.logger.WithError(err).Error("Help content query failed")
		return nil, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	results := make([]models.Article, 0, len(rows))
	for _, a := range rows {
		if !search.Matches(a, filter) {
			s.logger.WithField("topic_id", a.ID).Warn("Store returned an article outside the filter")
			continue
		}
		results = append(results, a)
		if len(results) == MaxSearchResults {
			break
		}
	}

	s.logger.WithField("results", len(results)).Debug("Help content search completed")
	return results, nil
}
