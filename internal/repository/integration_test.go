//go:build integration

package repository

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/helppanel/backend/internal/database"
	"github.com/helppanel/backend/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntegration_ContentStore(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL required for integration tests")
	}

	logger, _ := test.NewNullLogger()
	manager, err := database.NewManager(&database.Config{DatabaseURL: dsn, LogLevel: "silent"}, logger)
	require.NoError(t, err)
	defer manager.Close()
	require.NoError(t, manager.Migrate())

	ctx := context.Background()
	store := NewContentStore(manager.DB)

	// Unique tag so the run does not see rows from other runs.
	run := "it-" + uuid.NewString()[:8]
	t.Cleanup(func() {
		manager.DB.Where("? = ANY(tags)", run).Delete(&models.HelpArticle{})
	})

	base := time.Now().UTC().Truncate(time.Second)
	rows := []models.HelpArticle{
		article(run+"-a", models.CategoryManual, 245, base, run, "dashboard"),
		article(run+"-b", models.CategoryTips, 150, base.Add(time.Minute), run, "tips"),
		article(run+"-c", models.CategoryReference, 300, base.Add(2*time.Minute), run, "api"),
	}
	draft := article(run+"-draft", models.CategoryManual, 999, base, run)
	draft.IsPublished = false
	rows = append(rows, draft)

	for i := range rows {
		require.NoError(t, store.UpsertArticle(ctx, &rows[i]))
	}

	t.Run("tag containment and ordering", func(t *testing.T) {
		got, err := store.QueryPublishedArticles(ctx, models.ArticleFilter{
			Tags:    []string{run},
			OrderBy: models.OrderViewsDesc,
		})
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, run+"-c", got[0].ID)
		assert.Equal(t, run+"-a", got[1].ID)
		assert.Equal(t, run+"-b", got[2].ID)
	})

	t.Run("category and text", func(t *testing.T) {
		got, err := store.QueryPublishedArticles(ctx, models.ArticleFilter{
			Tags:     []string{run},
			Category: models.CategoryTips,
			Query:    "CONTENT for",
		})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, run+"-b", got[0].ID)
	})

	t.Run("fetch and increment", func(t *testing.T) {
		_, err := store.GetPublishedArticleByID(ctx, draft.ID)
		assert.True(t, errors.Is(err, models.ErrArticleNotFound))

		require.NoError(t, store.IncrementViewCount(ctx, run+"-a"))
		got, err := store.GetPublishedArticleByID(ctx, run+"-a")
		require.NoError(t, err)
		assert.Equal(t, int64(246), got.ViewCount)
	})

	t.Run("upsert keeps view count", func(t *testing.T) {
		again := article(run+"-a", models.CategoryManual, 0, base, run, "dashboard")
		again.Title = "Renamed"
		require.NoError(t, store.UpsertArticle(ctx, &again))

		got, err := store.GetPublishedArticleByID(ctx, run+"-a")
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Equal(t, int64(246), got.ViewCount)
	})

	t.Run("analytics round trip", func(t *testing.T) {
		err := store.InsertAnalyticsEvent(ctx, models.AnalyticsEvent{
			TopicID:   run + "-a",
			Action:    models.ActionShare,
			Timestamp: base,
		})
		require.NoError(t, err)
		t.Cleanup(func() {
			manager.DB.Where("article_id = ?", run+"-a").Delete(&models.HelpAnalyticsEvent{})
		})

		events, err := store.ListAnalyticsEvents(ctx)
		require.NoError(t, err)
		var found bool
		for _, e := range events {
			if e.TopicID == run+"-a" && e.Action == models.ActionShare {
				found = true
			}
		}
		assert.True(t, found)
	})
}
