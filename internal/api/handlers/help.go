package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/helppanel/backend/internal/database"
	"github.com/helppanel/backend/internal/models"
	"github.com/helppanel/backend/internal/services"
	"github.com/helppanel/backend/pkg/utils"
	"github.com/sirupsen/logrus"
)

const unavailableMessage = "Help content is temporarily unavailable, please retry"

type HelpHandler struct {
	help     services.HelpAPI
	cache    database.Cache
	cacheTTL time.Duration
	logger   *logrus.Logger
}

// NewHelpHandler builds the handler. cache may be nil, which disables
// response caching.
func NewHelpHandler(help services.HelpAPI, cache database.Cache, cacheTTL time.Duration, logger *logrus.Logger) *HelpHandler {
	return &HelpHandler{
		help:     help,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// HandleSearch serves GET /content. A non-blank query is tracked as a
// search event.
func (h *HelpHandler) HandleSearch(c *gin.Context) {
	params := models.SearchParams{
		Query:    c.Query("query"),
		Category: c.Query("category"),
		Tags:     parseTags(c.QueryArray("tags")),
	}

	ctx := c.Request.Context()
	key := database.SearchResultsKey(params)

	var articles []models.Article
	if !h.cached(ctx, key, &articles) {
		var err error
		articles, err = h.help.Search(ctx, params)
		if err != nil {
			h.queryFailed(c, "Help search failed", err)
			return
		}
		h.store(ctx, key, articles)
	}

	if query := strings.TrimSpace(params.Query); query != "" {
		h.trackSearch(c, query)
	}

	utils.SuccessResponse(c, http.StatusOK, "Help content retrieved", articles)
}

// HandleGetTopic serves GET /content/:id. Responses are never cached so
// every fetch bumps the view count.
func (h *HelpHandler) HandleGetTopic(c *gin.Context) {
	id := c.Param("id")

	article, found, err := h.help.FetchByID(c.Request.Context(), id)
	if err != nil {
		h.queryFailed(c, "Help topic fetch failed", err)
		return
	}
	if !found {
		utils.ErrorResponse(c, http.StatusNotFound, "Help topic not found", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Help topic retrieved", article)
}

func (h *HelpHandler) HandlePopular(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(services.DefaultPopularLimit)))
	if limit <= 0 {
		limit = services.DefaultPopularLimit
	}
	if limit > services.MaxPopularLimit {
		limit = services.MaxPopularLimit
	}

	ctx := c.Request.Context()
	key := database.PopularTopicsKey(limit)

	var articles []models.Article
	if !h.cached(ctx, key, &articles) {
		var err error
		articles, err = h.help.TopPopular(ctx, limit)
		if err != nil {
			h.queryFailed(c, "Popular topics query failed", err)
			return
		}
		h.store(ctx, key, articles)
	}

	utils.SuccessResponse(c, http.StatusOK, "Popular topics retrieved", articles)
}

// HandleRecordAnalytics serves POST /analytics. Accepted events are
// persisted asynchronously.
func (h *HelpHandler) HandleRecordAnalytics(c *gin.Context) {
	var req models.AnalyticsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid analytics event", err)
		return
	}

	event := req.Event()
	if event.SessionHash == "" {
		event.SessionHash = h.getUserSession(c)
	}

	if err := h.help.Record(c.Request.Context(), event); err != nil {
		if errors.Is(err, models.ErrInvalidEvent) {
			utils.ErrorResponse(c, http.StatusBadRequest, "Invalid analytics event", err)
			return
		}
		h.logger.WithError(err).Error("Failed to record analytics event")
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to record analytics event", nil)
		return
	}

	utils.SuccessResponse(c, http.StatusAccepted, "Analytics event accepted", nil)
}

func (h *HelpHandler) HandleAnalyticsSummary(c *gin.Context) {
	summary, err := h.help.Summarize(c.Request.Context())
	if err != nil {
		h.queryFailed(c, "Analytics summary failed", err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, "Analytics summary retrieved", summary)
}

// Helper methods

func (h *HelpHandler) queryFailed(c *gin.Context, msg string, err error) {
	h.logger.WithError(err).WithField("path", c.FullPath()).Error(msg)
	if errors.Is(err, services.ErrQueryFailed) {
		utils.ErrorResponse(c, http.StatusInternalServerError, unavailableMessage, nil)
		return
	}
	utils.ErrorResponse(c, http.StatusBadGateway, unavailableMessage, nil)
}

func (h *HelpHandler) cached(ctx context.Context, key string, dest interface{}) bool {
	if h.cache == nil {
		return false
	}
	err := h.cache.Get(ctx, key, dest)
	if err == nil {
		h.logger.WithField("key", key).Debug("Served from cache")
		return true
	}
	if !errors.Is(err, database.ErrCacheMiss) {
		h.logger.WithError(err).Warn("Cache read failed")
	}
	return false
}

func (h *HelpHandler) store(ctx context.Context, key string, value interface{}) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(ctx, key, value, h.cacheTTL); err != nil {
		h.logger.WithError(err).Warn("Failed to cache response")
	}
}

func (h *HelpHandler) trackSearch(c *gin.Context, query string) {
	err := h.help.Record(c.Request.Context(), models.AnalyticsEvent{
		Action:      models.ActionSearch,
		Timestamp:   time.Now().UTC(),
		Context:     query,
		SessionHash: h.getUserSession(c),
	})
	if err != nil {
		h.logger.WithError(err).Warn("Failed to track search query")
	}
}

func (h *HelpHandler) getUserSession(c *gin.Context) string {
	if session := c.GetHeader("X-Session-ID"); session != "" {
		return session
	}
	return utils.GenerateSessionID(c.ClientIP() + c.GetHeader("User-Agent"))
}

// parseTags accepts both ?tags=a,b and repeated ?tags=a&tags=b.
func parseTags(raw []string) []string {
	var tags []string
	for _, r := range raw {
		tags = append(tags, strings.Split(r, ",")...)
	}
	return models.NormalizeTags(tags)
}
