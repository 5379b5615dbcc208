package health

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Probe checks one dependency. A failing critical probe makes the whole
// service unhealthy; any other failing probe only degrades it.
type Probe struct {
	Name     string
	Critical bool
	Ping     func(ctx context.Context) error
}

// HealthChecker manages health checks for the store and cache.
type HealthChecker struct {
	probes  []Probe
	logger  *logrus.Logger
	timeout time.Duration
	started time.Time

	mu   sync.RWMutex
	last *OverallHealth
}

func NewHealthChecker(logger *logrus.Logger, probes ...Probe) *HealthChecker {
	return &HealthChecker{
		probes:  probes,
		logger:  logger,
		timeout: 5 * time.Second,
		started: time.Now(),
	}
}

type ServiceHealth struct {
	Name         string `json:"name"`
	Status       string `json:"status"`
	ResponseTime int    `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
	LastChecked  string `json:"last_checked"`
}

type OverallHealth struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
	Uptime   string          `json:"uptime"`
}

func (h *HealthChecker) check(ctx context.Context, p Probe) ServiceHealth {
	ctx, cancel := context.WithTimeout(ctx, h.timeout)
	defer cancel()

	start := time.Now()
	err := p.Ping(ctx)
	responseTime := int(time.Since(start).Milliseconds())

	result := ServiceHealth{
		Name:         p.Name,
		Status:       StatusHealthy,
		ResponseTime: responseTime,
		LastChecked:  time.Now().Format(time.RFC3339),
	}
	if err != nil {
		result.Status = StatusUnhealthy
		result.Error = err.Error()
		h.logger.WithError(err).WithField("service", p.Name).Error("Health check failed")
	}
	return result
}

// CheckAll probes every dependency and remembers the result.
func (h *HealthChecker) CheckAll(ctx context.Context) OverallHealth {
	overall := OverallHealth{
		Status:   StatusHealthy,
		Services: make([]ServiceHealth, 0, len(h.probes)),
		Uptime:   time.Since(h.started).Round(time.Second).String(),
	}

	for _, p := range h.probes {
		result := h.check(ctx, p)
		overall.Services = append(overall.Services, result)

		if result.Status == StatusHealthy {
			continue
		}
		if p.Critical {
			overall.Status = StatusUnhealthy
		} else if overall.Status == StatusHealthy {
			overall.Status = StatusDegraded
		}
	}

	h.mu.Lock()
	h.last = &overall
	h.mu.Unlock()
	return overall
}

// CheckCached returns the last result, or false before the first check.
func (h *HealthChecker) CheckCached() (OverallHealth, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.last == nil {
		return OverallHealth{}, false
	}
	return *h.last, true
}

// PeriodicHealthCheck runs CheckAll every interval until ctx is done.
func (h *HealthChecker) PeriodicHealthCheck(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			health := h.CheckAll(ctx)
			h.logger.WithField("status", health.Status).Debug("Periodic health check completed")
		}
	}
}
