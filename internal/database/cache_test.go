package database

import (
	"context"
	"testing"
	"time"

	"github.com/helppanel/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	in := []models.Article{{ID: "a", Title: "A", ViewCount: 3}}
	require.NoError(t, c.Set(ctx, "k", in, 0))

	var out []models.Article
	require.NoError(t, c.Get(ctx, "k", &out))
	assert.Equal(t, in, out)

	out[0].Title = "changed"
	var again []models.Article
	require.NoError(t, c.Get(ctx, "k", &again))
	assert.Equal(t, "A", again[0].Title)
}

func TestMemoryCache_MissAndDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	var out string
	assert.ErrorIs(t, c.Get(ctx, "missing", &out), ErrCacheMiss)

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	assert.Equal(t, 1, c.Len())
	require.NoError(t, c.Delete(ctx, "k", "other"))
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", 1, 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	var out int
	assert.ErrorIs(t, c.Get(ctx, "k", &out), ErrCacheMiss)
}

func TestMemoryCache_Ping(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	assert.NoError(t, c.Ping(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, c.Ping(ctx))
}

func TestSearchResultsKey(t *testing.T) {
	a := SearchResultsKey(models.SearchParams{Query: "Data  Export", Category: "Tips", Tags: []string{"b", "a"}})
	b := SearchResultsKey(models.SearchParams{Query: "data export", Category: "tips", Tags: []string{"a", "b", "a"}})
	assert.Equal(t, a, b)
	assert.Contains(t, a, "help:search:")

	c := SearchResultsKey(models.SearchParams{Query: "data export", Category: "manual", Tags: []string{"a", "b"}})
	assert.NotEqual(t, a, c)
}

func TestPopularTopicsKey(t *testing.T) {
	assert.Equal(t, "help:popular:5", PopularTopicsKey(5))
}
