package transfer

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// Direction of a transfer relative to the device.
type Direction string

const (
	DirectionPull Direction = "pull" // device -> local
	DirectionPush Direction = "push" // local -> device
)

// State is the lifecycle of a Job: pending -> running -> terminal.
type State int

const (
	StatePending State = iota
	StateRunning
	StateCompleted
	StateFailed
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	case StateCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether the state is final.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateFailed || s == StateCancelled
}

// Progress is one throttled update of a running transfer.
type Progress struct {
	JobID  string
	Serial string
	Bytes  int64
	Total  int64
}

// Result is the single terminal event of a Job.
type Result struct {
	JobID     string
	Serial    string
	Direction Direction
	Source    string
	Dest      string
	State     State
	Bytes     int64
	Total     int64
	Err       error
}

// Job is one transfer owned by the Coordinator for its lifetime. Callers
// observe it through the Progress and Done channels only.
type Job struct {
	ID        string
	Serial    string
	Direction Direction
	Source    string
	Dest      string

	mu              sync.Mutex
	state           State
	bytes           int64
	total           int64
	cancelRequested bool

	cancel   context.CancelFunc
	progress chan Progress
	done     chan Result
	terminal sync.Once
	lastEmit time.Time
}

func newJob(serial string, dir Direction, source, dest string, total int64) *Job {
	return &Job{
		ID:        fmt.Sprintf("%d-%04d", time.Now().UnixMilli(), rand.Intn(10000)),
		Serial:    serial,
		Direction: dir,
		Source:    source,
		Dest:      dest,
		state:     StatePending,
		total:     total,
		progress:  make(chan Progress, 64),
		done:      make(chan Result, 1),
	}
}

// Progress returns the per-job update stream. It is closed after the
// terminal event has been delivered on Done.
func (j *Job) Progress() <-chan Progress { return j.progress }

// Done delivers exactly one terminal Result.
func (j *Job) Done() <-chan Result { return j.done }

// State returns the current lifecycle state.
func (j *Job) State() State {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.state
}

// Bytes returns the transferred byte count so far.
func (j *Job) Bytes() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.bytes
}

// Total returns the expected byte count, 0 when unknown.
func (j *Job) Total() int64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.total
}

// Cancel requests cooperative cancellation. It is idempotent and a no-op
// on jobs that already reached a terminal state.
func (j *Job) Cancel() {
	j.mu.Lock()
	if j.state.Terminal() || j.cancelRequested {
		j.mu.Unlock()
		return
	}
	j.cancelRequested = true
	cancel := j.cancel
	j.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// snapshotResult builds the terminal Result under the caller's state.
func (j *Job) snapshotResult(state State, err error) Result {
	return Result{
		JobID:     j.ID,
		Serial:    j.Serial,
		Direction: j.Direction,
		Source:    j.Source,
		Dest:      j.Dest,
		State:     state,
		Bytes:     j.bytes,
		Total:     j.total,
		Err:       err,
	}
}
