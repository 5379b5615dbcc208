// Package tasks runs fire-and-forget side effects off the request path.
//
// Submitted tasks never block the caller and their failures never flow back
// to it: errors and panics are logged through the dispatcher's own logger
// and counted, then discarded.
package tasks

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc"
)

// Task is a named unit of background work.
type Task struct {
	Name   string
	Fields logrus.Fields
	Run    func(ctx context.Context) error
}

// Runner accepts tasks without blocking. Submit reports whether the task was
// queued.
type Runner interface {
	Submit(task Task) bool
}

type Config struct {
	Workers     int
	QueueSize   int
	TaskTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		Workers:     2,
		QueueSize:   256,
		TaskTimeout: 5 * time.Second,
	}
}

// Stats is a snapshot of dispatcher counters.
type Stats struct {
	Completed int64 `json:"completed"`
	Failed    int64 `json:"failed"`
	Dropped   int64 `json:"dropped"`
}

// Dispatcher is a bounded worker pool implementing Runner.
type Dispatcher struct {
	queue   chan Task
	timeout time.Duration
	logger  *logrus.Logger
	workers conc.WaitGroup

	mu     sync.RWMutex
	closed bool

	completed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

func NewDispatcher(cfg Config, logger *logrus.Logger) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = def.TaskTimeout
	}

	d := &Dispatcher{
		queue:   make(chan Task, cfg.QueueSize),
		timeout: cfg.TaskTimeout,
		logger:  logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.workers.Go(d.work)
	}

	logger.WithFields(logrus.Fields{
		"workers":    cfg.Workers,
		"queue_size": cfg.QueueSize,
	}).Debug("Task dispatcher started")

	return d
}

// Submit queues a task. It returns false, and logs, when the queue is full
// or the dispatcher has been closed.
func (d *Dispatcher) Submit(task Task) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.dropped.Add(1)
		d.entry(task).Warn("Task dropped: dispatcher closed")
		return false
	}

	select {
	case d.queue <- task:
		return true
	default:
		d.dropped.Add(1)
		d.entry(task).Warn("Task dropped: queue full")
		return false
	}
}

// Close stops accepting tasks and waits for queued ones to finish, or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("dispatcher drain interrupted: %w", ctx.Err())
	}
}

func (d *Dispatcher) Stats() Stats {
	return Stats{
		Completed: d.completed.Load(),
		Failed:    d.failed.Load(),
		Dropped:   d.dropped.Load(),
	}
}

func (d *Dispatcher) work() {
	for task := range d.queue {
		d.run(task)
	}
}

func (d *Dispatcher) run(task Task) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.failed.Add(1)
			d.entry(task).WithField("panic", fmt.Sprint(r)).Error("Background task panicked")
		}
	}()

	if err := task.Run(ctx); err != nil {
		d.failed.Add(1)
		d.entry(task).WithError(err).Warn("Background task failed")
		return
	}

	d.completed.Add(1)
	d.entry(task).WithField("duration_ms", time.Since(start).Milliseconds()).Debug("Background task completed")
}

func (d *Dispatcher) entry(task Task) *logrus.Entry {
	return d.logger.WithFields(task.Fields).WithField("task", task.Name)
}
