package services

import (
	"context"
	"fmt"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
)

// AnalyticsRecorder validates usage events and persists them in the
// background. Persistence failures are logged and dropped.
type AnalyticsRecorder struct {
	store  models.ContentStore
	runner tasks.Runner
	logger *logrus.Logger
}

func NewAnalyticsRecorder(store models.ContentStore, runner tasks.Runner, logger *logrus.Logger) *AnalyticsRecorder {
	return &AnalyticsRecorder{
		store:  store,
		runner: runner,
		logger: logger,
	}
}

// Record rejects invalid events synchronously (the error wraps
// models.ErrInvalidEvent) and otherwise returns nil once the write is queued.
func (r *AnalyticsRecorder) Record(ctx context.Context, event models.AnalyticsEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}

	fields := logrus.Fields{
		"action":   event.Action,
		"topic_id": event.TopicID,
	}
	queued := r.runner.Submit(tasks.Task{
		Name:   "record_analytics",
		Fields: fields,
		Run: func(ctx context.Context) error {
			return r.store.InsertAnalyticsEvent(ctx, event)
		},
	})
	if queued {
		r.logger.WithFields(fields).Debug("Help analytics queued")
	}
	return nil
}

// Summarize aggregates the full event log. It is an administrative batch
// read and is recomputed on every call.
func (r *AnalyticsRecorder) Summarize(ctx context.Context) (models.AnalyticsSummary, error) {
	events, err := r.store.ListAnalyticsEvents(ctx)
	if err != nil {
		r.logger.WithError(err).Error("Failed to load analytics events")
		return models.AnalyticsSummary{}, fmt.Errorf("%w: %w", ErrQueryFailed, err)
	}
	return models.Summarize(events), nil
}
