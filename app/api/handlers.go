package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/database"
	"github.com/mibuhand/ai-news-direct/app/tasks"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

func NewHandler(cfg *config.Config, stats StatsInterface, fetchLog database.FetchLog,
	aggLog database.AggregationLog, scheduler tasks.TaskSchedulerInterface,
	runner tasks.Runner, version string) *Handler {
	return &Handler{
		cfg:       cfg,
		stats:     stats,
		fetchLog:  fetchLog,
		aggLog:    aggLog,
		scheduler: scheduler,
		runner:    runner,
		version:   version,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"status":        "ok",
		"timestamp":     time.Now().In(time.Local).Format(time.RFC3339),
		"version":       h.version,
		"organizations": h.cfg.Organizations.Len(),
		"sites":         len(h.cfg.Sites),
	}

	if runs, err := h.fetchLog.ListRuns(1); err == nil && len(runs) > 0 {
		health["last_fetch"] = runs[0]
	}

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats := make([]aggregate.Stats, 0, h.cfg.Organizations.Len())
	total := 0

	for _, key := range h.cfg.Organizations.Keys() {
		s, err := h.stats.Stats(key)
		if err != nil {
			slog.Error("Failed to compute stats", "organization", key, "error", err)
			continue
		}
		total += s.TotalAggregated
		stats = append(stats, s)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"organizations":    stats,
		"total_aggregated": total,
	})
}

func (h *Handler) APIListOrganizations(c *gin.Context) {
	orgs := h.cfg.Organizations.All()
	summaries := make([]OrganizationSummary, 0, len(orgs))

	for _, org := range orgs {
		summary := OrganizationSummary{
			Key:       org.Key,
			Name:      org.Name,
			FeedTitle: org.FeedTitle,
		}
		if s, err := h.stats.Stats(org.Key); err == nil {
			summary.TotalAggregated = s.TotalAggregated
		}
		if run, err := h.aggLog.LatestRun(org.Key); err == nil {
			summary.LastAggregation = run
		}
		summaries = append(summaries, summary)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"organizations": summaries,
		"total":         len(summaries),
	})
}

func (h *Handler) APIGetOrganization(c *gin.Context) {
	key := c.Param("key")

	org, err := h.cfg.Organizations.Get(key)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found", "details": err.Error()})
		return
	}

	details := map[string]interface{}{
		"key":          org.Key,
		"name":         org.Name,
		"patterns":     org.Patterns,
		"direct_feeds": org.DirectFeeds,
		"feed_sources": org.FeedSources,
		"base_url":     org.BaseURL,
		"feed_title":   org.FeedTitle,
	}

	if s, err := h.stats.Stats(key); err == nil {
		details["stats"] = s
	}

	runs, err := h.aggLog.ListRuns(key, defaultListLimit)
	if err != nil {
		slog.Error("Database error", "operation", "list_aggregation_runs", "organization", key, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	details["aggregations"] = nonNil(runs)

	c.JSON(http.StatusOK, details)
}

func (h *Handler) APIAggregateOrganization(c *gin.Context) {
	key := c.Param("key")

	if _, err := h.cfg.Organizations.Get(key); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Organization not found", "details": err.Error()})
		return
	}

	task := tasks.NewAggregateTask(key, h.runner)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing aggregate task", "organization", key, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue aggregate task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":      true,
		"message":      "Aggregation enqueued",
		"organization": key,
		"task": gin.H{
			"id":   task.ID,
			"type": task.Type,
		},
	})
}

func (h *Handler) APIListFetches(c *gin.Context) {
	limit, err := listLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
		return
	}

	runs, err := h.fetchLog.ListRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "list_fetch_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"runs":  nonNil(runs),
		"total": len(runs),
	})
}

func (h *Handler) APIGetFetch(c *gin.Context) {
	id := c.Param("id")

	results, err := h.fetchLog.GetResults(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_fetch_results", "run", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}
	if len(results) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Fetch run not found"})
		return
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"run":     id,
		"results": results,
		"total":   len(results),
	})
}

var errInvalidLimit = errors.New("invalid limit")

func listLimit(raw string) (int, error) {
	if raw == "" {
		return defaultListLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errInvalidLimit
	}
	return min(n, maxListLimit), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
