package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
)

// TopicFetchService loads single articles and schedules the view side
// effects of a successful fetch.
type TopicFetchService struct {
	store     models.ContentStore
	runner    tasks.Runner
	analytics *AnalyticsRecorder
	logger    *logrus.Logger
	now       func() time.Time
}

func NewTopicFetchService(store models.ContentStore, runner tasks.Runner, analytics *AnalyticsRecorder, logger *logrus.Logger) *TopicFetchService {
	return &TopicFetchService{
		store:     store,
		runner:    runner,
		analytics: analytics,
		logger:    logger,
		now:       time.Now,
	}
}

// FetchByID returns the published article with the given id. A missing
// article yields found == false and a nil error.
func (s *TopicFetchService) FetchByID(ctx context.Context, id string) (models.Article, bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Article{}, false, nil
	}

	article, err := s.store.GetPublishedArticleByID(ctx, id)
	if errors.Is(err, models.ErrArticleNotFound) {
		s.logger.WithField("topic_id", id).Debug("Help topic not found")
		return models.Article{}, false, nil
	}
	if err != nil {
		s.logger.WithError(err).WithField("topic_id", id).Error("Help topic fetch failed")
		return models.Article{}, false, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}

	s.scheduleViewEffects(id)
	return article, true, nil
}

// scheduleViewEffects queues the view-count bump and the view event. Both
// run detached from the request context.
func (s *TopicFetchService) scheduleViewEffects(id string) {
	fields := logrus.Fields{"topic_id": id}

	s.runner.Submit(tasks.Task{
		Name:   "increment_view_count",
		Fields: fields,
		Run: func(ctx context.Context) error {
			return s.store.IncrementViewCount(ctx, id)
		},
	})

	err := s.analytics.Record(context.Background(), models.AnalyticsEvent{
		TopicID:   id,
		Action:    models.ActionView,
		Timestamp: s.now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithFields(fields).Warn("View event rejected")
	}
}
