package models

import "time"

type AnalyticsRequest struct {
	TopicID     string     `json:"topicId"`
	Action      string     `json:"action" binding:"required"`
	Timestamp   *time.Time `json:"timestamp"`
	Context     string     `json:"context"`
	SessionHash string     `json:"sessionHash"`
}

// Event converts the request body into an event. A missing timestamp stays
// zero so validation rejects it.
func (r AnalyticsRequest) Event() AnalyticsEvent {
	e := AnalyticsEvent{
		TopicID:     r.TopicID,
		Action:      Action(r.Action),
		Context:     r.Context,
		SessionHash: r.SessionHash,
	}
	if r.Timestamp != nil {
		e.Timestamp = *r.Timestamp
	}
	return e
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Timestamp string            `json:"timestamp"`
	Services  map[string]string `json:"services"`
	Tasks     interface{}       `json:"tasks,omitempty"`
}
