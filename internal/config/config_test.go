package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, _ := os.Getwd()
	t.Cleanup(func() { os.Chdir(oldWd) })
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestMissingConfigYieldsDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RemoteStartPath != "/sdcard" {
		t.Errorf("remote_start_path default = %q", cfg.RemoteStartPath)
	}
	if cfg.ProgressInterval().Milliseconds() != 150 {
		t.Errorf("progress interval default = %v", cfg.ProgressInterval())
	}
	if cfg.Overwrite {
		t.Error("overwrite must default to false")
	}
}

func TestEnvInterpolationFromDotEnv(t *testing.T) {
	dir := chdirTemp(t)

	cfgText := strings.Join([]string{
		"project_name: test",
		"default_serial: ${ADBC_SERIAL}",
		"remote_start_path: /sdcard",
	}, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfgText), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADBC_SERIAL=R58M123"), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DefaultSerial != "R58M123" {
		t.Fatalf("expected serial from .env, got %q", cfg.DefaultSerial)
	}
}

func TestEnvInterpolationPrecedenceOSTakesPriority(t *testing.T) {
	dir := chdirTemp(t)

	cfgText := "default_serial: ${ADBC_SERIAL}\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfgText), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADBC_SERIAL=from.dotenv"), 0644); err != nil {
		t.Fatal(err)
	}

	os.Setenv("ADBC_SERIAL", "from.os.env")
	defer os.Unsetenv("ADBC_SERIAL")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.DefaultSerial != "from.os.env" {
		t.Fatalf("expected serial from OS env, got %q", cfg.DefaultSerial)
	}
}

func TestRelativeRemoteStartPathRejected(t *testing.T) {
	dir := chdirTemp(t)

	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("remote_start_path: sdcard\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for relative remote_start_path")
	}
}

func TestWatchRequiresRemoteDir(t *testing.T) {
	dir := chdirTemp(t)

	cfgText := "watch:\n  local_dir: /tmp/out\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(cfgText), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when watch.remote_dir is missing")
	}
}

func TestWriteDefaultRoundTrips(t *testing.T) {
	chdirTemp(t)

	if err := WriteDefault(); err != nil {
		t.Fatalf("WriteDefault failed: %v", err)
	}
	if !ConfigExists() {
		t.Fatal("config file not created")
	}
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.RemoteStartPath != "/sdcard" {
		t.Errorf("remote_start_path = %q", cfg.RemoteStartPath)
	}
}
