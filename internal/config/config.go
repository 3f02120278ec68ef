package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const ConfigFileName = "adb-commander.yaml"

// Config is the adb-commander.yaml structure. A missing file is not an
// error; every field has a usable default.
type Config struct {
	ProjectName     string      `yaml:"project_name"`
	AdbPath         string      `yaml:"adb_path"`
	DefaultSerial   string      `yaml:"default_serial"`
	LocalDir        string      `yaml:"local_dir"`
	RemoteStartPath string      `yaml:"remote_start_path"`
	Overwrite       bool        `yaml:"overwrite"`
	ProgressMs      int         `yaml:"progress_interval_ms"`
	Watch           WatchConfig `yaml:"watch"`
}

// WatchConfig drives the auto-push watcher.
type WatchConfig struct {
	LocalDir  string   `yaml:"local_dir"`
	RemoteDir string   `yaml:"remote_dir"`
	Ignores   []string `yaml:"ignores"`
}

// ProgressInterval returns the configured progress throttle.
func (c *Config) ProgressInterval() time.Duration {
	if c.ProgressMs <= 0 {
		return 150 * time.Millisecond
	}
	return time.Duration(c.ProgressMs) * time.Millisecond
}

func defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		RemoteStartPath: "/sdcard",
		LocalDir:        home,
		ProgressMs:      150,
	}
}

// GetConfigPath returns the config file path in the working directory.
func GetConfigPath() string {
	return ConfigFileName
}

// ConfigExists checks whether adb-commander.yaml is present.
func ConfigExists() bool {
	_, err := os.Stat(GetConfigPath())
	return !os.IsNotExist(err)
}

// LoadConfig reads, interpolates and validates adb-commander.yaml. A
// missing file yields the defaults.
func LoadConfig() (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(GetConfigPath())
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", ConfigFileName, err)
	}

	rendered := interpolateEnv(string(data))
	if err := yaml.Unmarshal([]byte(rendered), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFileName, err)
	}

	if cfg.RemoteStartPath == "" {
		cfg.RemoteStartPath = "/sdcard"
	}
	if cfg.LocalDir == "" {
		home, _ := os.UserHomeDir()
		cfg.LocalDir = home
	}
	if !strings.HasPrefix(cfg.RemoteStartPath, "/") {
		return nil, fmt.Errorf("remote_start_path must be absolute, got %q", cfg.RemoteStartPath)
	}
	if cfg.Watch.LocalDir != "" && cfg.Watch.RemoteDir == "" {
		return nil, fmt.Errorf("watch.remote_dir is required when watch.local_dir is set")
	}
	return cfg, nil
}

// WriteDefault writes a commented starter config to the working directory.
func WriteDefault() error {
	content := `# adb-commander configuration
project_name: ""

# Path to the adb executable. Leave empty to auto-detect from PATH,
# ANDROID_SDK_ROOT or ANDROID_HOME.
adb_path: ""

# Device serial to preselect. Leave empty to pick interactively.
default_serial: ""

# Default local directory for pulled files.
local_dir: ""

# Directory opened when browsing a device.
remote_start_path: /sdcard

# Replace existing files on pull/push. When false, transfers onto an
# existing destination fail instead of overwriting.
overwrite: false

# Minimum milliseconds between transfer progress updates.
progress_interval_ms: 150

# Auto-push: mirror changes in a local directory to the device.
watch:
  local_dir: ""
  remote_dir: ""
  ignores:
    - .git
    - "*.tmp"
    - "*.swp"
`
	return os.WriteFile(GetConfigPath(), []byte(content), 0644)
}

var envVarRe = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// interpolateEnv substitutes ${VAR} references. OS environment takes
// precedence over a .env file in the working directory; unknown variables
// resolve to an empty string.
func interpolateEnv(raw string) string {
	dotenv := loadDotEnv(".env")
	return envVarRe.ReplaceAllStringFunc(raw, func(ref string) string {
		name := envVarRe.FindStringSubmatch(ref)[1]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if v, ok := dotenv[name]; ok {
			return v
		}
		return ""
	})
}

// loadDotEnv parses a minimal KEY=VALUE .env file; comments and blank
// lines are skipped.
func loadDotEnv(path string) map[string]string {
	vars := map[string]string{}
	data, err := os.ReadFile(path)
	if err != nil {
		return vars
	}
	for _, ln := range strings.Split(string(data), "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" || strings.HasPrefix(ln, "#") {
			continue
		}
		kv := strings.SplitN(ln, "=", 2)
		if len(kv) != 2 {
			continue
		}
		key := strings.TrimSpace(kv[0])
		val := strings.Trim(strings.TrimSpace(kv[1]), `"'`)
		if key != "" {
			vars[key] = val
		}
	}
	return vars
}
