package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidEvent marks an analytics event rejected before reaching the store.
var ErrInvalidEvent = errors.New("invalid analytics event")

// Action is the user interaction an analytics event describes.
type Action string

const (
	ActionView   Action = "view"
	ActionSearch Action = "search"
	ActionShare  Action = "share"
)

func (a Action) Valid() bool {
	switch a {
	case ActionView, ActionSearch, ActionShare:
		return true
	}
	return false
}

// AnalyticsEvent is an append-only usage record. TopicID may be empty for
// search events.
type AnalyticsEvent struct {
	TopicID     string    `json:"topicId"`
	Action      Action    `json:"action"`
	Timestamp   time.Time `json:"timestamp"`
	Context     string    `json:"context,omitempty"`
	SessionHash string    `json:"sessionHash,omitempty"`
}

// Validate checks the required fields. Errors wrap ErrInvalidEvent.
func (e AnalyticsEvent) Validate() error {
	if e.Action == "" {
		return fmt.Errorf("%w: action is required", ErrInvalidEvent)
	}
	if !e.Action.Valid() {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidEvent, e.Action)
	}
	if e.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is required", ErrInvalidEvent)
	}
	if e.Action != ActionSearch && strings.TrimSpace(e.TopicID) == "" {
		return fmt.Errorf("%w: topicId is required for %s events", ErrInvalidEvent, e.Action)
	}
	return nil
}

// AnalyticsSummary is the admin view over the whole event log.
type AnalyticsSummary struct {
	TotalEvents   int            `json:"totalEvents"`
	TopTopics     map[string]int `json:"topTopics"`
	SearchQueries []string       `json:"searchQueries"`
}

// Summarize aggregates an event log: total count, view counts per topic and
// the non-empty contexts of search events in log order.
func Summarize(events []AnalyticsEvent) AnalyticsSummary {
	summary := AnalyticsSummary{
		TotalEvents:   len(events),
		TopTopics:     make(map[string]int),
		SearchQueries: make([]string, 0),
	}
	for _, e := range events {
		switch e.Action {
		case ActionView:
			summary.TopTopics[e.TopicID]++
		case ActionSearch:
			if e.Context != "" {
				summary.SearchQueries = append(summary.SearchQueries, e.Context)
			}
		}
	}
	return summary
}
