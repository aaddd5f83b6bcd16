package watch

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// State is the lifecycle phase of a watch task.
type State string

const (
	StateIdle         State = "Idle"
	StateConnecting   State = "Connecting"
	StateStreaming    State = "Streaming"
	StateReconnecting State = "Reconnecting"
	StateTerminated   State = "Terminated"
)

// Task is the cancellable handle of one running watch. It is returned
// immediately; event delivery happens in the background.
type Task struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}

	mu    sync.Mutex
	state State
}

func newTask(cancel context.CancelFunc) *Task {
	return &Task{
		id:     uuid.New().String(),
		cancel: cancel,
		done:   make(chan struct{}),
		state:  StateIdle,
	}
}

// ID uniquely identifies the task for logging and metrics.
func (t *Task) ID() string {
	return t.id
}

// State returns the current lifecycle phase.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// transition moves the task to next unless it already terminated. It reports
// whether the transition was applied.
func (t *Task) transition(next State) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateTerminated {
		return false
	}
	t.state = next
	return true
}

func (t *Task) terminate() {
	t.mu.Lock()
	alreadyDone := t.state == StateTerminated
	t.state = StateTerminated
	t.mu.Unlock()
	if !alreadyDone {
		close(t.done)
	}
}

// Cancel stops the task: the active stream is aborted and no reconnect will
// follow. Cancel is idempotent and safe to call from any goroutine.
func (t *Task) Cancel() {
	t.cancel()
}

// Done is closed once the task reached the terminated state and will emit no
// further events.
func (t *Task) Done() <-chan struct{} {
	return t.done
}
