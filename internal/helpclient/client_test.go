package helpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helppanel/backend/internal/api"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/repository"
	"github.com/helppanel/backend/internal/services"
	"github.com/helppanel/backend/internal/tasks"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var created = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

type remote struct {
	client     *Client
	store      *repository.MemoryStore
	dispatcher *tasks.Dispatcher
}

func newRemote(t *testing.T, rows ...models.HelpArticle) *remote {
	t.Helper()
	logger, _ := test.NewNullLogger()

	store, err := repository.NewMemoryStoreWith(rows...)
	require.NoError(t, err)
	d := tasks.NewDispatcher(tasks.Config{Workers: 1, QueueSize: 64}, logger)
	t.Cleanup(func() { _ = d.Close(context.Background()) })

	srv := api.NewServer(services.NewHelpService(store, d, logger), nil, nil, api.Options{Port: "0"}, logger)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return &remote{
		client:     NewClient(ts.URL, logger, WithSessionID("widget-1")),
		store:      store,
		dispatcher: d,
	}
}

func (r *remote) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, r.dispatcher.Close(context.Background()))
}

func row(id string, cat models.Category, views int64, tags ...string) models.HelpArticle {
	return models.HelpArticle{
		ID:          id,
		Title:       "Topic " + id,
		Description: "About " + id,
		Content:     "Details for " + id,
		Category:    cat,
		Tags:        tags,
		IsPublished: true,
		ViewCount:   views,
		CreatedAt:   created,
	}
}

func ids(articles []models.Article) []string {
	out := make([]string, len(articles))
	for i, a := range articles {
		out[i] = a.ID
	}
	return out
}

func TestClient_EndToEndScenario(t *testing.T) {
	r := newRemote(t,
		row("A", models.CategoryManual, 245, "dashboard"),
		row("B", models.CategoryTips, 150, "tips"),
		row("C", models.CategoryReference, 300, "api"),
	)
	ctx := context.Background()

	top, err := r.client.TopPopular(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, ids(top))

	tips, err := r.client.Search(ctx, models.SearchParams{Category: "tips"})
	require.NoError(t, err)
	assert.Equal(t, []string{"B"}, ids(tips))

	_, found, err := r.client.FetchByID(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, found)

	err = r.client.Record(ctx, models.AnalyticsEvent{
		Action:    models.ActionSearch,
		Timestamp: time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC),
		Context:   "export",
	})
	require.NoError(t, err)
	r.drain(t)

	summary, err := r.client.Summarize(ctx)
	require.NoError(t, err)
	assert.Contains(t, summary.SearchQueries, "export")
}

func TestClient_FetchByID(t *testing.T) {
	r := newRemote(t, row("getting started", models.CategoryManual, 7))
	ctx := context.Background()

	got, found, err := r.client.FetchByID(ctx, "getting started")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "getting started", got.ID)
	assert.Equal(t, created, got.CreatedAt.UTC())

	_, found, err = r.client.FetchByID(ctx, "  ")
	require.NoError(t, err)
	assert.False(t, found)

	r.drain(t)
	assert.Equal(t, int64(8), r.store.ViewCount("getting started"))
}

func TestClient_SearchSendsFilters(t *testing.T) {
	r := newRemote(t,
		row("one", models.CategoryTips, 1, "a", "b"),
		row("two", models.CategoryTips, 1, "a"),
	)

	got, err := r.client.Search(context.Background(), models.SearchParams{Tags: []string{"b", "a", "b"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"one"}, ids(got))

	r.drain(t)
	events, err := r.store.ListAnalyticsEvents(context.Background())
	require.NoError(t, err)
	assert.Empty(t, events, "no query, no search event")
}

func TestClient_SearchEventCarriesSession(t *testing.T) {
	r := newRemote(t, row("one", models.CategoryTips, 1))

	_, err := r.client.Search(context.Background(), models.SearchParams{Query: "details"})
	require.NoError(t, err)
	r.drain(t)

	events, err := r.store.ListAnalyticsEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "widget-1", events[0].SessionHash)
}

func TestClient_RecordValidatesLocally(t *testing.T) {
	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer ts.Close()

	logger, _ := test.NewNullLogger()
	c := NewClient(ts.URL, logger)

	err := c.Record(context.Background(), models.AnalyticsEvent{Action: models.ActionView, Timestamp: time.Now()})
	assert.True(t, errors.Is(err, models.ErrInvalidEvent))
	assert.Equal(t, 0, calls)
}

func TestClient_RecordSwallowsDeliveryFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	logger, hook := test.NewNullLogger()
	c := NewClient(ts.URL, logger)

	err := c.Record(context.Background(), models.AnalyticsEvent{TopicID: "x", Action: models.ActionShare, Timestamp: time.Now()})
	assert.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestClient_RecordThroughRunner(t *testing.T) {
	r := newRemote(t, row("one", models.CategoryTips, 1))
	logger, _ := test.NewNullLogger()
	d := tasks.NewDispatcher(tasks.Config{Workers: 1, QueueSize: 4}, logger)

	c := NewClient(r.client.baseURL, logger, WithRunner(d))
	require.NoError(t, c.Record(context.Background(), models.AnalyticsEvent{TopicID: "one", Action: models.ActionShare, Timestamp: time.Now()}))

	require.NoError(t, d.Close(context.Background()))
	assert.Equal(t, int64(1), d.Stats().Completed)

	r.drain(t)
	events, err := r.store.ListAnalyticsEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.ActionShare, events[0].Action)
}

func TestClient_ServerErrorIsQueryFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Help content is temporarily unavailable, please retry"}`))
	}))
	defer ts.Close()

	logger, _ := test.NewNullLogger()
	c := NewClient(ts.URL, logger)

	_, err := c.Search(context.Background(), models.SearchParams{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, services.ErrQueryFailed))

	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
	assert.Contains(t, statusErr.Message, "please retry")

	_, _, err = c.FetchByID(context.Background(), "x")
	assert.True(t, errors.Is(err, services.ErrQueryFailed))
}

func TestClient_Unreachable(t *testing.T) {
	logger, _ := test.NewNullLogger()
	c := NewClient("http://127.0.0.1:1", logger, WithHTTPClient(&http.Client{Timeout: time.Second}))

	_, err := c.TopPopular(context.Background(), 5)
	assert.True(t, errors.Is(err, services.ErrQueryFailed))
}
