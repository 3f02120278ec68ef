package history

import (
	"os"
	"path/filepath"
	"testing"

	"adb-commander/internal/transfer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s
}

func TestRecordAndListTransfers(t *testing.T) {
	s := openTestStore(t)

	local := filepath.Join(t.TempDir(), "photo.jpg")
	if err := os.WriteFile(local, []byte("jpeg bytes"), 0644); err != nil {
		t.Fatal(err)
	}

	s.Record(transfer.Result{
		JobID:     "j1",
		Serial:    "R58M123",
		Direction: transfer.DirectionPull,
		Source:    "/sdcard/DCIM/photo.jpg",
		Dest:      local,
		State:     transfer.StateCompleted,
		Bytes:     10,
		Total:     10,
	})
	s.Record(transfer.Result{
		JobID:     "j2",
		Serial:    "emulator-5554",
		Direction: transfer.DirectionPush,
		Source:    "/nope",
		Dest:      "/sdcard/nope",
		State:     transfer.StateFailed,
	})

	all, err := s.RecentTransfers("", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 records, got %d", len(all))
	}

	only, err := s.RecentTransfers("R58M123", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(only) != 1 {
		t.Fatalf("expected 1 record for R58M123, got %d", len(only))
	}
	if only[0].Hash == "" {
		t.Error("completed pull should carry the local file hash")
	}
	if only[0].State != "completed" {
		t.Errorf("state = %q", only[0].State)
	}
}

func TestTouchDeviceUpserts(t *testing.T) {
	s := openTestStore(t)

	s.TouchDevice("R58M123", "SM_G973F")
	s.TouchDevice("R58M123", "SM_G973F")
	s.TouchDevice("emulator-5554", "sdk_gphone64")

	devices, err := s.RecentDevices(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(devices) != 2 {
		t.Fatalf("expected 2 devices, got %d", len(devices))
	}
}
