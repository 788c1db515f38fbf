package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/logger"
)

// ErrRunNotFound is returned for unknown or foreign run ids
var ErrRunNotFound = errors.New("run not found")

// Manager tracks live runs so they can be commanded by id
type Manager struct {
	mu   sync.Mutex
	runs map[uuid.UUID]*Run
	gen  Generator
	log  *logger.Logger
}

// NewManager creates a Manager that starts runs with gen
func NewManager(gen Generator, log *logger.Logger) *Manager {
	return &Manager{runs: make(map[uuid.UUID]*Run), gen: gen, log: logger.OrNop(log)}
}

// Start launches and registers a run. It is forgotten once it ends.
func (m *Manager) Start(ctx context.Context, req Request, save SaveFunc) *Run {
	r := Start(ctx, m.gen, save, req, m.log)
	m.mu.Lock()
	m.runs[r.ID] = r
	m.mu.Unlock()

	go func() {
		<-r.Done()
		m.mu.Lock()
		delete(m.runs, r.ID)
		m.mu.Unlock()
	}()
	return r
}

// Command sends cmd to the user's run
func (m *Manager) Command(userID, runID uuid.UUID, cmd Command) error {
	m.mu.Lock()
	r, ok := m.runs[runID]
	m.mu.Unlock()
	if !ok || r.UserID != userID {
		return ErrRunNotFound
	}
	return r.Send(cmd)
}

// Active returns the number of live runs
func (m *Manager) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}
