// Package pipeline runs roadmap generation as a controllable actor: clients
// send pause, resume and stop commands and receive a stream of events.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Command controls a running generation
type Command string

// Commands
const (
	CommandPause  Command = "pause"
	CommandResume Command = "resume"
	CommandStop   Command = "stop"
)

var (
	// ErrUnknownCommand is returned by ParseCommand
	ErrUnknownCommand = errors.New("unknown command")
	// ErrRunFinished is returned when commanding a run that already ended
	ErrRunFinished = errors.New("run already finished")
	// ErrStopped is the error reported by a run stopped on request
	ErrStopped = errors.New("run stopped")
)

// ParseCommand validates a command name
func ParseCommand(s string) (Command, error) {
	switch c := Command(s); c {
	case CommandPause, CommandResume, CommandStop:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
}

// EventType classifies run events
type EventType string

// Event types
const (
	EventStatus   EventType = "status"
	EventProgress EventType = "progress"
	EventResult   EventType = "result"
	EventComplete EventType = "complete"
	EventError    EventType = "error"
)

// Event is emitted by a run. Every run ends with exactly one complete or
// error event, after which the channel is closed.
type Event struct {
	Type      EventType      `json:"type"`
	RunID     string         `json:"run_id"`
	Step      string         `json:"step,omitempty"`
	Category  string         `json:"category,omitempty"`
	Message   string         `json:"message,omitempty"`
	Progress  float64        `json:"progress,omitempty"`
	Roadmap   *types.Roadmap `json:"roadmap,omitempty"`
	Fallback  bool           `json:"fallback,omitempty"`
	Error     string         `json:"error,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Generator produces a roadmap, reporting every state it enters
type Generator interface {
	Run(ctx context.Context, req roadmap.GenerationRequest, userID uuid.UUID, observe roadmap.Observer) (*types.Roadmap, *roadmap.Outcome, error)
}

// SaveFunc persists a generated roadmap
type SaveFunc func(ctx context.Context, rm *types.Roadmap, out *roadmap.Outcome) error

// Request is the input of a run
type Request struct {
	UserID     uuid.UUID
	Generation roadmap.GenerationRequest
}

// Run is a single generation. Its state is owned by the control goroutine;
// the worker only talks to it through channels.
type Run struct {
	ID     uuid.UUID
	UserID uuid.UUID

	commands    chan Command
	checkpoints chan gate
	events      chan Event
	done        chan struct{}
	workerDone  chan struct{}
	cancel      context.CancelFunc

	gen  Generator
	save SaveFunc
	log  *logger.Logger

	progress float64 // worker-owned
	result   *types.Roadmap
	err      error
}

// Start launches a run. The run stops when ctx is cancelled or a stop
// command arrives. save may be nil.
func Start(ctx context.Context, gen Generator, save SaveFunc, req Request, log *logger.Logger) *Run {
	runCtx, cancel := context.WithCancel(ctx)
	r := &Run{
		ID:          uuid.New(),
		UserID:      req.UserID,
		commands:    make(chan Command),
		checkpoints: make(chan gate),
		events:      make(chan Event, 32),
		done:        make(chan struct{}),
		workerDone:  make(chan struct{}),
		cancel:      cancel,
		gen:         gen,
		save:        save,
	}
	r.log = logger.OrNop(log).With("run_id", r.ID.String())

	go r.control(runCtx)
	go r.work(runCtx, req)
	return r
}

// Commands accepts pause, resume and stop
func (r *Run) Commands() chan<- Command { return r.commands }

// Events streams the run's events until it ends
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed when the run has ended and all events were delivered
func (r *Run) Done() <-chan struct{} { return r.done }

// Send delivers a command unless the run already ended
func (r *Run) Send(cmd Command) error {
	select {
	case <-r.done:
		return ErrRunFinished
	default:
	}
	select {
	case r.commands <- cmd:
		return nil
	case <-r.done:
		return ErrRunFinished
	}
}

// Result returns the outcome once Done is closed
func (r *Run) Result() (*types.Roadmap, error) {
	<-r.done
	return r.result, r.err
}

// gate is handed to the control goroutine at every checkpoint. paused tells
// the worker whether it has to wait; release is closed on resume or stop.
type gate struct {
	paused  chan bool
	release chan struct{}
}

// control owns the pause state
func (r *Run) control(ctx context.Context) {
	var (
		paused  bool
		waiting chan struct{}
	)
	release := func() {
		if waiting != nil {
			close(waiting)
			waiting = nil
		}
	}
	for {
		select {
		case cmd := <-r.commands:
			switch cmd {
			case CommandPause:
				paused = true
			case CommandResume:
				paused = false
				release()
			case CommandStop:
				r.log.Info("run stop requested")
				r.cancel()
				paused = false
				release()
			}
		case g := <-r.checkpoints:
			g.paused <- paused
			if paused {
				waiting = g.release
			}
		case <-ctx.Done():
			release()
			<-r.workerDone
			return
		case <-r.workerDone:
			release()
			return
		}
	}
}

// checkpoint blocks while the run is paused
func (r *Run) checkpoint(ctx context.Context) error {
	g := gate{paused: make(chan bool, 1), release: make(chan struct{})}
	select {
	case r.checkpoints <- g:
	case <-ctx.Done():
		return ctx.Err()
	}
	if !<-g.paused {
		return nil
	}

	r.step(StepPaused)
	select {
	case <-g.release:
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.step(StepResumed)
	return nil
}

func (r *Run) work(ctx context.Context, req Request) {
	defer func() {
		close(r.workerDone)
		r.cancel()
		close(r.events)
		close(r.done)
	}()

	r.step(StepStarted)

	observe := func(s roadmap.State) {
		r.step(string(s))
		_ = r.checkpoint(ctx)
	}
	rm, out, err := r.gen.Run(ctx, req.Generation, req.UserID, observe)
	if err == nil {
		err = r.checkpoint(ctx)
	}
	if err == nil && r.save != nil {
		r.step(StepPersisting)
		err = r.save(ctx, rm, out)
	}
	if err != nil {
		if ctx.Err() != nil && errors.Is(err, context.Canceled) {
			err = ErrStopped
		}
		r.fail(err)
		return
	}

	r.result = rm
	r.emit(Event{Type: EventResult, Roadmap: rm, Fallback: out != nil && out.Fallback})
	r.emit(Event{Type: EventProgress, Progress: 100})
	r.emit(Event{Type: EventComplete, Message: "Roadmap ready"})
}

// step emits a status event and, when the step moves progress forward, a
// progress event.
func (r *Run) step(name string) {
	def := Lookup(name)
	r.emit(Event{Type: EventStatus, Step: def.Name, Category: def.Category, Message: def.Message})
	if def.Progress > r.progress {
		r.progress = def.Progress
		r.emit(Event{Type: EventProgress, Step: def.Name, Progress: def.Progress})
	}
}

func (r *Run) fail(err error) {
	r.err = err
	r.log.Warn("run failed", "error", err)
	r.emit(Event{Type: EventError, Error: err.Error()})
}

// emit never blocks the worker for longer than the consumer takes to drain
// the buffer; events are dropped once nobody listens and the run is cancelled.
func (r *Run) emit(e Event) {
	e.RunID = r.ID.String()
	e.Timestamp = time.Now().UTC()
	select {
	case r.events <- e:
	default:
		select {
		case r.events <- e:
		case <-time.After(5 * time.Second):
			r.log.Debug("dropping event, no consumer", "type", string(e.Type))
		}
	}
}
