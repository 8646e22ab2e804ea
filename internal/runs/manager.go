package runs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/storelift/smartstore-lister/internal/pipeline"
)

var ErrNotFound = errors.New("run not found")

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is the caller-visible state of one submission. Credentials never
// appear here.
type Run struct {
	ID          string          `json:"id"`
	Site        string          `json:"site"`
	ProductURL  string          `json:"product_url"`
	Status      Status          `json:"status"`
	Progress    int             `json:"progress"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
}

// Starter is the piece of the pipeline the manager drives.
type Starter interface {
	Run(ctx context.Context, req pipeline.Request) <-chan pipeline.Event
}

// Manager owns the in-memory run registry. Each created run consumes its
// pipeline event stream on a dedicated goroutine and folds it into run state,
// keeping the caller's request path responsive.
type Manager struct {
	pipeline Starter
	logger   *slog.Logger

	mu   sync.RWMutex
	runs map[string]*Run
}

func NewManager(p Starter, logger *slog.Logger) *Manager {
	return &Manager{
		pipeline: p,
		logger:   logger.With("component", "run_manager"),
		runs:     make(map[string]*Run),
	}
}

// Create registers a new run and starts it immediately. The returned snapshot
// reflects the run at creation time; poll Get for progress.
func (m *Manager) Create(ctx context.Context, req pipeline.Request) *Run {
	run := &Run{
		ID:         uuid.New().String(),
		Site:       req.Site,
		ProductURL: req.ProductURL,
		Status:     StatusRunning,
		CreatedAt:  time.Now(),
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.mu.Unlock()

	m.logger.Info("run created", "id", run.ID, "site", req.Site, "url", req.ProductURL)

	events := m.pipeline.Run(ctx, req)
	go m.consume(run.ID, events)

	return m.snapshot(run.ID)
}

func (m *Manager) consume(id string, events <-chan pipeline.Event) {
	for ev := range events {
		m.mu.Lock()
		run := m.runs[id]
		switch ev.Kind {
		case pipeline.EventProgress:
			run.Progress = ev.Progress
		case pipeline.EventSucceeded:
			now := time.Now()
			run.Status = StatusCompleted
			run.Result = ev.Result
			run.CompletedAt = &now
		case pipeline.EventFailed:
			now := time.Now()
			run.Status = StatusFailed
			run.Error = ev.Err.Error()
			run.CompletedAt = &now
		}
		m.mu.Unlock()
	}
	m.logger.Info("run finished", "id", id)
}

// Get returns a snapshot of one run.
func (m *Manager) Get(id string) (*Run, error) {
	run := m.snapshot(id)
	if run == nil {
		return nil, ErrNotFound
	}
	return run, nil
}

// List returns snapshots of all runs, newest first.
func (m *Manager) List() []*Run {
	m.mu.RLock()
	runs := make([]*Run, 0, len(m.runs))
	for _, run := range m.runs {
		copied := *run
		runs = append(runs, &copied)
	}
	m.mu.RUnlock()

	sort.Slice(runs, func(i, j int) bool {
		return runs[i].CreatedAt.After(runs[j].CreatedAt)
	})
	return runs
}

func (m *Manager) snapshot(id string) *Run {
	m.mu.RLock()
	defer m.mu.RUnlock()
	run, ok := m.runs[id]
	if !ok {
		return nil
	}
	copied := *run
	return &copied
}
