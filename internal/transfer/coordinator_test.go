package transfer

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"adb-commander/internal/adb"
)

// fakeGateway satisfies Gateway without touching a real adb binary.
type fakeGateway struct {
	sizes  map[string]int64
	exists map[string]bool
}

func (f *fakeGateway) FileSize(_ context.Context, _, remotePath string) (int64, error) {
	if size, ok := f.sizes[remotePath]; ok {
		return size, nil
	}
	return 0, adb.NewError(adb.KindPathNotFound, "stat", remotePath, nil)
}

func (f *fakeGateway) Exists(_ context.Context, _, remotePath string) (bool, error) {
	return f.exists[remotePath], nil
}

func (f *fakeGateway) Command(ctx context.Context, _ string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, "false", args...)
}

func newTestCoordinator(gw Gateway, run RunFunc, opts ...Option) *Coordinator {
	opts = append([]Option{WithRunner(run), WithProgressInterval(time.Millisecond)}, opts...)
	return NewCoordinator(gw, opts...)
}

func waitResult(t *testing.T, j *Job) Result {
	t.Helper()
	select {
	case res := <-j.Done():
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for terminal event")
	}
	return Result{}
}

func TestPullMissingRemoteFailsBeforeLocalWrite(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		t.Fatal("runner must not start when the remote file is absent")
		return nil
	})

	local := filepath.Join(t.TempDir(), "photo.jpg")
	_, err := c.Pull(context.Background(), "R58M123", "/sdcard/DCIM/photo.jpg", local)
	if !adb.IsKind(err, adb.KindPathNotFound) {
		t.Fatalf("expected PathNotFound, got %v", err)
	}
	if _, serr := os.Stat(local); !os.IsNotExist(serr) {
		t.Fatalf("local file must not be created, stat err = %v", serr)
	}
}

func TestPullRefusesExistingDestinationByDefault(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/a.txt": 10}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		return nil
	})

	local := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(local, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := c.Pull(context.Background(), "R58M123", "/sdcard/a.txt", local)
	if !adb.IsKind(err, adb.KindDestinationExists) {
		t.Fatalf("expected DestinationExists, got %v", err)
	}
}

func TestPullOverwriteAllowsExistingDestination(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/a.txt": 10}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		emit(10)
		return nil
	}, WithOverwrite(true))

	local := filepath.Join(t.TempDir(), "a.txt")
	if err := os.WriteFile(local, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/a.txt", local)
	if err != nil {
		t.Fatalf("pull with overwrite failed to start: %v", err)
	}
	res := waitResult(t, job)
	if res.State != StateCompleted {
		t.Fatalf("state = %v, want completed", res.State)
	}
}

func TestPushRefusesExistingRemoteDestination(t *testing.T) {
	gw := &fakeGateway{exists: map[string]bool{"/sdcard/up.bin": true}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		return nil
	})

	local := filepath.Join(t.TempDir(), "up.bin")
	if err := os.WriteFile(local, []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := c.Push(context.Background(), "R58M123", local, "/sdcard/up.bin")
	if !adb.IsKind(err, adb.KindDestinationExists) {
		t.Fatalf("expected DestinationExists, got %v", err)
	}
}

func TestSecondTransferOnBusyDeviceFailsFast(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/big.bin": 100}}
	release := make(chan struct{})
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		<-release
		return nil
	}, WithOverwrite(true))

	dir := t.TempDir()
	first, err := c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(dir, "one.bin"))
	if err != nil {
		t.Fatalf("first pull: %v", err)
	}
	if first.State() != StateRunning {
		t.Fatalf("first job state = %v, want running", first.State())
	}

	_, err = c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(dir, "two.bin"))
	if !adb.IsKind(err, adb.KindDeviceBusy) {
		t.Fatalf("expected DeviceBusy, got %v", err)
	}
	// first job must be unaffected
	if first.State() != StateRunning {
		t.Fatalf("first job disturbed by rejected request: %v", first.State())
	}

	close(release)
	res := waitResult(t, first)
	if res.State != StateCompleted {
		t.Fatalf("first job state = %v, want completed", res.State)
	}

	// slot must be free again
	job3, err := c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(dir, "three.bin"))
	if err != nil {
		t.Fatalf("transfer after release: %v", err)
	}
	waitResult(t, job3)
}

func TestListingAnotherDeviceWhileBusy(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/big.bin": 100}}
	release := make(chan struct{})
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		<-release
		return nil
	})

	dir := t.TempDir()
	_, err := c.Pull(context.Background(), "serial-a", "/sdcard/big.bin", filepath.Join(dir, "a.bin"))
	if err != nil {
		t.Fatalf("pull on serial-a: %v", err)
	}
	// a different device is not blocked
	jobB, err := c.Pull(context.Background(), "serial-b", "/sdcard/big.bin", filepath.Join(dir, "b.bin"))
	if err != nil {
		t.Fatalf("pull on serial-b while serial-a busy: %v", err)
	}
	close(release)
	waitResult(t, jobB)
}

func TestProgressMonotonicAndSingleTerminal(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/big.bin": 1000}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		// out-of-order and duplicate updates must be flattened
		for _, n := range []int64{100, 300, 200, 300, 700, 1000} {
			emit(n)
			time.Sleep(2 * time.Millisecond)
		}
		return nil
	}, WithOverwrite(true))

	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(t.TempDir(), "big.bin"))
	if err != nil {
		t.Fatal(err)
	}

	var last int64 = -1
	for p := range job.Progress() {
		if p.Bytes < last {
			t.Errorf("progress regressed: %d after %d", p.Bytes, last)
		}
		last = p.Bytes
	}

	res := waitResult(t, job)
	if res.State != StateCompleted {
		t.Fatalf("state = %v, want completed", res.State)
	}
	if res.Bytes != res.Total || res.Bytes != 1000 {
		t.Fatalf("terminal bytes = %d, total = %d, want 1000/1000", res.Bytes, res.Total)
	}

	// the done channel is closed after the single terminal event
	if _, open := <-job.Done(); open {
		t.Fatal("done channel delivered a second event")
	}
}

func TestCancelIsCooperativeAndIdempotent(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/big.bin": 1000}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		emit(100)
		<-ctx.Done()
		return ctx.Err()
	}, WithOverwrite(true))

	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(t.TempDir(), "big.bin"))
	if err != nil {
		t.Fatal(err)
	}

	job.Cancel()
	job.Cancel() // idempotent

	res := waitResult(t, job)
	if res.State != StateCancelled {
		t.Fatalf("state = %v, want cancelled", res.State)
	}
	if !adb.IsKind(res.Err, adb.KindCancelled) {
		t.Fatalf("terminal error kind = %v, want Cancelled", adb.KindOf(res.Err))
	}

	// cancelling a terminal job is a no-op
	job.Cancel()
	if job.State() != StateCancelled {
		t.Fatalf("state changed after terminal cancel: %v", job.State())
	}
}

func TestDeviceVanishingMapsToDisconnected(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/big.bin": 1000}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		return adb.NewError(adb.KindDeviceDisconnected, "pull", j.Source, nil)
	}, WithOverwrite(true))

	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/big.bin", filepath.Join(t.TempDir(), "big.bin"))
	if err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, job)
	if res.State != StateFailed {
		t.Fatalf("state = %v, want failed", res.State)
	}
	if !adb.IsKind(res.Err, adb.KindDeviceDisconnected) {
		t.Fatalf("kind = %v, want DeviceDisconnected", adb.KindOf(res.Err))
	}
}

type captureRecorder struct {
	results []Result
}

func (r *captureRecorder) Record(res Result) { r.results = append(r.results, res) }

func TestRecorderReceivesTerminalResult(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/a.txt": 5}}
	rec := &captureRecorder{}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		emit(5)
		return nil
	}, WithOverwrite(true), WithRecorder(rec))

	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/a.txt", filepath.Join(t.TempDir(), "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	waitResult(t, job)
	if len(rec.results) != 1 {
		t.Fatalf("recorder got %d results, want 1", len(rec.results))
	}
	if rec.results[0].State != StateCompleted {
		t.Fatalf("recorded state = %v", rec.results[0].State)
	}
}

func TestTransferArgsPlainPullPush(t *testing.T) {
	cases := []struct {
		job  *Job
		want []string
	}{
		{newJob("R58M123", DirectionPull, "/sdcard/a.txt", "/tmp/a.txt", 5), []string{"pull", "/sdcard/a.txt", "/tmp/a.txt"}},
		{newJob("R58M123", DirectionPush, "/tmp/a.txt", "/sdcard/a.txt", 5), []string{"push", "/tmp/a.txt", "/sdcard/a.txt"}},
	}
	for _, c := range cases {
		got := transferArgs(c.job)
		if len(got) != len(c.want) {
			t.Fatalf("transferArgs(%s) = %v, want %v", c.job.Direction, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Errorf("transferArgs(%s)[%d] = %q, want %q", c.job.Direction, i, got[i], c.want[i])
			}
		}
		for _, a := range got {
			if a == "-p" {
				t.Errorf("transferArgs(%s) carries -p, rejected by current adb", c.job.Direction)
			}
		}
	}
}

func TestCompletesWithoutProgressOutput(t *testing.T) {
	gw := &fakeGateway{sizes: map[string]int64{"/sdcard/a.txt": 512}}
	c := newTestCoordinator(gw, func(ctx context.Context, j *Job, emit func(int64)) error {
		// adb without a tty prints no percent lines at all.
		return nil
	}, WithOverwrite(true))

	job, err := c.Pull(context.Background(), "R58M123", "/sdcard/a.txt", filepath.Join(t.TempDir(), "a.txt"))
	if err != nil {
		t.Fatal(err)
	}
	res := waitResult(t, job)
	if res.State != StateCompleted {
		t.Fatalf("state = %v, want completed", res.State)
	}
	if res.Bytes != 512 || res.Total != 512 {
		t.Fatalf("bytes/total = %d/%d, want 512/512", res.Bytes, res.Total)
	}
}

func TestParsePercentLines(t *testing.T) {
	cases := []struct {
		line string
		pct  int
		ok   bool
	}{
		{"[ 42%] /sdcard/DCIM/photo.jpg", 42, true},
		{"[100%] /sdcard/DCIM/photo.jpg", 100, true},
		{"[  3%] /sdcard/big.bin", 3, true},
		{"/sdcard/DCIM/photo.jpg: 1 file pulled", 0, false},
		{"", 0, false},
	}
	for _, c := range cases {
		pct, ok := adb.ParsePercent(c.line)
		if ok != c.ok || pct != c.pct {
			t.Errorf("ParsePercent(%q) = (%d, %v), want (%d, %v)", c.line, pct, ok, c.pct, c.ok)
		}
	}
}
