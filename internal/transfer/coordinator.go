package transfer

import (
	"bufio"
	"bytes"
	"context"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"adb-commander/internal/adb"
	"adb-commander/internal/events"
)

// Gateway is the slice of the device bridge the coordinator needs. It is
// satisfied by *adb.Client; tests substitute a fake.
type Gateway interface {
	FileSize(ctx context.Context, serial, remotePath string) (int64, error)
	Exists(ctx context.Context, serial, remotePath string) (bool, error)
	Command(ctx context.Context, serial string, args ...string) *exec.Cmd
}

var _ Gateway = (*adb.Client)(nil)

// Recorder persists terminal transfer results. Optional.
type Recorder interface {
	Record(res Result)
}

// RunFunc performs the actual transfer for a job, invoking emit with the
// cumulative byte count as it goes. The default implementation drives an
// adb child process; tests inject their own.
type RunFunc func(ctx context.Context, j *Job, emit func(int64)) error

// Coordinator starts transfers as cancellable background units of work.
// At most one job runs per device at a time; a second request fails fast
// with DeviceBusy, it is never queued.
type Coordinator struct {
	gw        Gateway
	run       RunFunc
	interval  time.Duration
	overwrite bool
	recorder  Recorder

	mu   sync.Mutex
	busy map[string]*Job
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithOverwrite allows transfers to replace an existing destination.
// The default refuses with DestinationExists.
func WithOverwrite(allow bool) Option {
	return func(c *Coordinator) { c.overwrite = allow }
}

// WithProgressInterval sets the minimum gap between progress updates.
func WithProgressInterval(d time.Duration) Option {
	return func(c *Coordinator) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithRecorder registers a terminal-result sink (transfer history).
func WithRecorder(r Recorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

// WithRunner replaces the adb-backed transfer runner. Tests only.
func WithRunner(run RunFunc) Option {
	return func(c *Coordinator) { c.run = run }
}

// NewCoordinator creates a coordinator on top of the device gateway.
func NewCoordinator(gw Gateway, opts ...Option) *Coordinator {
	c := &Coordinator{
		gw:       gw,
		interval: 150 * time.Millisecond,
		busy:     map[string]*Job{},
	}
	c.run = c.adbRun
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Active returns the running job for serial, or nil.
func (c *Coordinator) Active(serial string) *Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.busy[serial]
}

// acquire reserves the device slot for j.
func (c *Coordinator) acquire(serial string, j *Job) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur, ok := c.busy[serial]; ok {
		return adb.NewError(adb.KindDeviceBusy, string(j.Direction), cur.Source, nil)
	}
	c.busy[serial] = j
	return nil
}

func (c *Coordinator) release(serial string, j *Job) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.busy[serial] == j {
		delete(c.busy, serial)
	}
}

// Pull starts a device-to-local transfer. The remote file is probed first
// so an absent source fails with PathNotFound before any local file is
// created or partially written.
func (c *Coordinator) Pull(ctx context.Context, serial, remotePath, localPath string) (*Job, error) {
	job := newJob(serial, DirectionPull, remotePath, localPath, 0)
	if err := c.acquire(serial, job); err != nil {
		return nil, err
	}

	total, err := c.gw.FileSize(ctx, serial, remotePath)
	if err != nil {
		c.release(serial, job)
		return nil, err
	}
	job.mu.Lock()
	job.total = total
	job.mu.Unlock()

	if !c.overwrite {
		if _, err := os.Stat(localPath); err == nil {
			c.release(serial, job)
			return nil, adb.NewError(adb.KindDestinationExists, "pull", localPath, nil)
		}
	}
	if dir := filepath.Dir(localPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			c.release(serial, job)
			return nil, adb.NewError(adb.KindIOError, "pull", localPath, err)
		}
	}

	c.launch(ctx, job)
	return job, nil
}

// Push starts a local-to-device transfer. The local source is stat'ed
// first; the destination is checked against the overwrite policy.
func (c *Coordinator) Push(ctx context.Context, serial, localPath, remotePath string) (*Job, error) {
	job := newJob(serial, DirectionPush, localPath, remotePath, 0)
	if err := c.acquire(serial, job); err != nil {
		return nil, err
	}

	st, err := os.Stat(localPath)
	if err != nil {
		c.release(serial, job)
		if os.IsNotExist(err) {
			return nil, adb.NewError(adb.KindPathNotFound, "push", localPath, err)
		}
		return nil, adb.NewError(adb.KindIOError, "push", localPath, err)
	}
	job.mu.Lock()
	job.total = st.Size()
	job.mu.Unlock()

	if !c.overwrite {
		exists, eerr := c.gw.Exists(ctx, serial, remotePath)
		if eerr != nil {
			c.release(serial, job)
			return nil, eerr
		}
		if exists {
			c.release(serial, job)
			return nil, adb.NewError(adb.KindDestinationExists, "push", remotePath, nil)
		}
	}

	c.launch(ctx, job)
	return job, nil
}

// launch moves the job to running and executes it on its own goroutine.
// Completion is communicated through channels and the EventBus, never by
// touching caller state.
func (c *Coordinator) launch(ctx context.Context, job *Job) {
	jobCtx, cancel := context.WithCancel(ctx)
	job.mu.Lock()
	job.cancel = cancel
	job.state = StateRunning
	job.mu.Unlock()

	go func() {
		defer cancel()
		err := c.run(jobCtx, job, func(n int64) { c.emit(job, n) })
		c.finish(job, err)
	}()
}

// emit records transferred bytes and forwards a throttled, monotonically
// non-decreasing progress update.
func (c *Coordinator) emit(job *Job, n int64) {
	job.mu.Lock()
	if job.state != StateRunning || job.cancelRequested {
		job.mu.Unlock()
		return
	}
	if n < job.bytes {
		n = job.bytes // never report a regression
	}
	if job.total > 0 && n > job.total {
		n = job.total
	}
	job.bytes = n
	now := time.Now()
	final := job.total > 0 && n == job.total
	if !final && now.Sub(job.lastEmit) < c.interval {
		job.mu.Unlock()
		return
	}
	job.lastEmit = now
	update := Progress{JobID: job.ID, Serial: job.Serial, Bytes: n, Total: job.total}
	job.mu.Unlock()

	select {
	case job.progress <- update:
	default:
		// slow consumer; drop the update rather than stall the transfer
	}
	events.GlobalBus.Publish(events.EventTransferProgress, update)
}

// finish delivers the single terminal event and frees the device slot.
func (c *Coordinator) finish(job *Job, err error) {
	job.terminal.Do(func() {
		job.mu.Lock()
		var state State
		switch {
		case job.cancelRequested:
			state = StateCancelled
			err = adb.NewError(adb.KindCancelled, string(job.Direction), job.Source, nil)
		case err != nil:
			state = StateFailed
		default:
			state = StateCompleted
			if job.total > 0 {
				job.bytes = job.total
			}
		}
		job.state = state
		res := job.snapshotResult(state, err)
		job.mu.Unlock()

		c.release(job.Serial, job)
		close(job.progress)
		job.done <- res
		close(job.done)

		if state == StateFailed {
			log.Printf("transfer %s failed: %v", job.ID, err)
		}
		events.GlobalBus.Publish(events.EventTransferDone, res)
		if c.recorder != nil {
			c.recorder.Record(res)
		}
	})
}

// transferArgs builds the adb invocation for a job. Plain pull/push only:
// modern adb rejects the legacy -p flag with a usage error.
func transferArgs(j *Job) []string {
	switch j.Direction {
	case DirectionPull:
		return []string{"pull", j.Source, j.Dest}
	case DirectionPush:
		return []string{"push", j.Source, j.Dest}
	}
	return nil
}

// adbRun drives `adb pull` / `adb push`. Pull progress comes from polling
// the growing local file against the probed total; adb writes incremental
// progress to a tty only, so `[ NN%]` stdout lines are parsed
// opportunistically for clients that do emit them.
func (c *Coordinator) adbRun(ctx context.Context, j *Job, emit func(int64)) error {
	cmd := c.gw.Command(ctx, j.Serial, transferArgs(j)...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return adb.NewError(adb.KindIOError, string(j.Direction), j.Source, err)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return adb.NewError(adb.KindBridgeUnavailable, string(j.Direction), j.Source, err)
	}

	total := j.Total()
	if j.Direction == DirectionPull && total > 0 {
		stop := make(chan struct{})
		defer close(stop)
		go func() {
			tick := time.NewTicker(c.interval)
			defer tick.Stop()
			for {
				select {
				case <-tick.C:
					if st, err := os.Stat(j.Dest); err == nil {
						emit(st.Size())
					}
				case <-stop:
					return
				}
			}
		}()
	}
	scanner := bufio.NewScanner(stdout)
	scanner.Split(scanCRorLF)
	for scanner.Scan() {
		if pct, ok := adb.ParsePercent(scanner.Text()); ok && total > 0 {
			emit(total * int64(pct) / 100)
		}
	}

	werr := cmd.Wait()
	if ctx.Err() != nil {
		// Cancellation killed the child; finish() turns this into the
		// cancelled terminal state.
		return ctx.Err()
	}
	if werr != nil {
		kind := adb.ClassifyOutput(stderr.String())
		if kind == adb.KindDeviceUnavailable {
			kind = adb.KindDeviceDisconnected // vanished mid-transfer
		}
		if kind == adb.KindUnknown {
			kind = adb.KindIOError
		}
		return adb.NewError(kind, string(j.Direction), j.Source, werr)
	}
	emit(total)
	return nil
}

// scanCRorLF splits on both carriage returns and newlines; adb rewrites
// its progress line in place with bare CRs.
func scanCRorLF(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := strings.IndexAny(string(data), "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}
