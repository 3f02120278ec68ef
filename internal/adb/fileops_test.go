package adb

import (
	"errors"
	"testing"
)

func TestClassifyExistsFailure(t *testing.T) {
	exit1 := errors.New("exit status 1")

	if err := classifyExistsFailure("/sdcard/a.txt", "", "", exit1); err != nil {
		t.Fatalf("plain exit 1 should mean missing path, got %v", err)
	}

	err := classifyExistsFailure("/sdcard/a.txt", "", "adb: device 'R58M123' not found", exit1)
	if !IsKind(err, KindDeviceUnavailable) {
		t.Fatalf("vanished device should surface as DeviceUnavailable, got %v", err)
	}

	err = classifyExistsFailure("/data/secret", "", "test: /data/secret: Permission denied", exit1)
	if !IsKind(err, KindPermissionDenied) {
		t.Fatalf("denied path should surface as PermissionDenied, got %v", err)
	}

	bridge := NewError(KindBridgeUnavailable, "adb", "", errors.New("executable not found"))
	if err := classifyExistsFailure("/sdcard/a.txt", "", "", bridge); !IsKind(err, KindBridgeUnavailable) {
		t.Fatalf("missing binary should pass through, got %v", err)
	}
}
