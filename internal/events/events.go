// Package events publishes roadmap lifecycle notifications to a message broker.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Routing keys
const (
	TopicRoadmapGenerated = "roadmap.generated"
	TopicRoadmapProgress  = "roadmap.progress"
	TopicMatchCompleted   = "match.completed"
)

// Publisher delivers events. Publishing is best effort: callers log failures
// and carry on.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
	Close() error
}

// ProgressEvent is published after every persisted progress action
type ProgressEvent struct {
	UserID          uuid.UUID `json:"user_id"`
	RoadmapID       uuid.UUID `json:"roadmap_id"`
	ModuleID        string    `json:"module_id"`
	ResourceID      string    `json:"resource_id,omitempty"`
	Status          string    `json:"status"`
	OverallProgress float64   `json:"overall_progress"`
	Unlocked        []string  `json:"unlocked,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
}

// RoadmapEvent is published when a roadmap is created
type RoadmapEvent struct {
	UserID    uuid.UUID `json:"user_id"`
	RoadmapID uuid.UUID `json:"roadmap_id"`
	Category  string    `json:"category"`
	Modules   int       `json:"modules"`
	Fallback  bool      `json:"fallback"`
	Timestamp time.Time `json:"timestamp"`
}

// MatchEvent is published when a match result is stored
type MatchEvent struct {
	UserID       uuid.UUID `json:"user_id"`
	MatchID      uuid.UUID `json:"match_id"`
	OverallScore float64   `json:"overall_score"`
	Timestamp    time.Time `json:"timestamp"`
}

// Noop discards every event
type Noop struct{}

func (Noop) Publish(context.Context, string, any) error { return nil }
func (Noop) Close() error                               { return nil }

// Message is an event captured by a Recorder
type Message struct {
	Topic   string
	Payload any
}

// Recorder keeps published events in memory
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error // returned by Publish when set
}

func (r *Recorder) Publish(_ context.Context, topic string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{Topic: topic, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages returns a copy of the recorded events
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}
