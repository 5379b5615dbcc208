package services

import (
	"context"

	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
)

// HelpAPI is the surface the help widget consumes. It is implemented by
// HelpService over a content store and by helpclient.Client over HTTP.
type HelpAPI interface {
	Search(ctx context.Context, params models.SearchParams) ([]models.Article, error)
	FetchByID(ctx context.Context, id string) (models.Article, bool, error)
	TopPopular(ctx context.Context, n int) ([]models.Article, error)
	Record(ctx context.Context, event models.AnalyticsEvent) error
	Summarize(ctx context.Context) (models.AnalyticsSummary, error)
}

// HelpService bundles the store-backed help components.
type HelpService struct {
	*ContentQueryService
	*TopicFetchService
	*AnalyticsRecorder
	*PopularityRanking
}

var _ HelpAPI = (*HelpService)(nil)

func NewHelpService(store models.ContentStore, runner tasks.Runner, logger *logrus.Logger) *HelpService {
	analytics := NewAnalyticsRecorder(store, runner, logger)
	return &HelpService{
		ContentQueryService: NewContentQueryService(store, logger),
		TopicFetchService:   NewTopicFetchService(store, runner, analytics, logger),
		AnalyticsRecorder:   analytics,
		PopularityRanking:   NewPopularityRanking(store, logger),
	}
}
