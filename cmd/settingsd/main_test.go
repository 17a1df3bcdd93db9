package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// writeTestConfig writes a config using the sd medium rooted in a temp dir,
// so state persists across run invocations within one test.
func writeTestConfig(t *testing.T) (configPath, sdRoot string) {
	t.Helper()

	tmpDir := t.TempDir()
	sdRoot = filepath.Join(tmpDir, "sd")
	if err := os.Mkdir(sdRoot, 0o750); err != nil {
		t.Fatalf("creating sd root: %v", err)
	}

	configContent := `
device:
  id: test-device

storage:
  medium: sd
  sd_root: "` + sdRoot + `"
  path: /settings.json

database:
  path: "` + filepath.Join(tmpDir, "settingsd.db") + `"
  wal_mode: true
  busy_timeout: 5

mqtt:
  enabled: false

influxdb:
  enabled: false

logging:
  level: error
  format: text

loop:
  tick_interval_ms: 10
`
	configPath = filepath.Join(tmpDir, "settingsd.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath, sdRoot
}

// runCLI invokes run with -config and returns stdout.
func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, append([]string{"-config", configPath}, args...), &stdout, &stderr)
	return stdout.String(), err
}

// ============================================================================
// Startup
// ============================================================================

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	t.Setenv("SETTINGSD_CONFIG", "/nonexistent/path/settingsd.yaml")

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"list"}, &stdout, &stderr)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config failure", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	var stdout, stderr bytes.Buffer
	err := run(context.Background(), []string{"-config", configPath, "format"}, &stdout, &stderr)
	if !errors.Is(err, errUsage) {
		t.Fatalf("run() error = %v, want errUsage", err)
	}
	if !strings.Contains(stderr.String(), "Usage:") {
		t.Errorf("usage not printed, stderr = %q", stderr.String())
	}
}

func TestRun_Version(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := run(context.Background(), []string{"-version"}, &stdout, &stderr); err != nil {
		t.Fatalf("run(-version) error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "settingsd "+version) {
		t.Errorf("stdout = %q", stdout.String())
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Setenv("SETTINGSD_CONFIG", "")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", got, defaultConfigPath)
	}

	t.Setenv("SETTINGSD_CONFIG", "/etc/settingsd.yaml")
	if got := getConfigPath(); got != "/etc/settingsd.yaml" {
		t.Errorf("getConfigPath() = %q, want env value", got)
	}
}

// ============================================================================
// Maintenance commands
// ============================================================================

func TestCommands_BootstrapAndList(t *testing.T) {
	configPath, sdRoot := writeTestConfig(t)

	out, err := runCLI(t, configPath, "list")
	if err != nil {
		t.Fatalf("list error = %v", err)
	}
	for _, name := range []string{settings.ForcePMKID, settings.ForceProbe, settings.SavePCAP, settings.EnableLED} {
		if !strings.Contains(out, name) {
			t.Errorf("list output missing %s:\n%s", name, out)
		}
	}

	if _, err := os.Stat(filepath.Join(sdRoot, "settings.json")); err != nil {
		t.Errorf("bootstrap did not create the document: %v", err)
	}
}

func TestCommands_SetToggleGet(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "set", settings.SavePCAP, "false"); err != nil {
		t.Fatalf("set error = %v", err)
	}

	out, err := runCLI(t, configPath, "get", settings.SavePCAP)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if strings.TrimSpace(out) != "false" {
		t.Errorf("get after set = %q, want false", out)
	}

	out, err = runCLI(t, configPath, "toggle", settings.SavePCAP)
	if err != nil {
		t.Fatalf("toggle error = %v", err)
	}
	if strings.TrimSpace(out) != settings.SavePCAP+" = true" {
		t.Errorf("toggle output = %q", out)
	}

	out, err = runCLI(t, configPath, "get", settings.SavePCAP)
	if err != nil {
		t.Fatalf("get error = %v", err)
	}
	if strings.TrimSpace(out) != "true" {
		t.Errorf("get after toggle = %q, want true", out)
	}
}

func TestCommands_SetErrors(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{name: "unknown setting", args: []string{"set", "Channel", "6"}, wantErr: settings.ErrKeyNotFound},
		{name: "wrong type", args: []string{"set", settings.EnableLED, "bright"}, wantErr: settings.ErrTypeMismatch},
		{name: "missing value", args: []string{"set", settings.EnableLED}, wantErr: errUsage},
		{name: "toggle unknown", args: []string{"toggle", "Channel"}, wantErr: settings.ErrKeyNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, configPath, tt.args...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCommands_History(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "toggle", settings.EnableLED); err != nil {
		t.Fatalf("toggle error = %v", err)
	}

	out, err := runCLI(t, configPath, "history", "-name", settings.EnableLED)
	if err != nil {
		t.Fatalf("history error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	// Header, the toggle, then the bootstrap entry.
	if len(lines) != 3 {
		t.Fatalf("history lines = %d, want 3:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[1], "local") || !strings.Contains(lines[1], "false") {
		t.Errorf("newest entry = %q, want local change to false", lines[1])
	}
	if !strings.Contains(lines[2], "bootstrap") {
		t.Errorf("oldest entry = %q, want bootstrap", lines[2])
	}
}

func TestCommands_Print(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	out, err := runCLI(t, configPath, "print")
	if err != nil {
		t.Fatalf("print error = %v", err)
	}
	if !strings.HasPrefix(out, "Settings\n") || !strings.Contains(out, "Name: "+settings.ForcePMKID) {
		t.Errorf("print output = %q", out)
	}

	out, err = runCLI(t, configPath, "print", "-json")
	if err != nil {
		t.Fatalf("print -json error = %v", err)
	}
	if !strings.HasPrefix(out, `{"Settings":[{"name":"ForcePMKID"`) {
		t.Errorf("print -json output = %q", out)
	}
}

func TestCommands_DBStatusAndRollback(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	// Opening the store applies the history migrations.
	if _, err := runCLI(t, configPath, "list"); err != nil {
		t.Fatalf("list error = %v", err)
	}

	out, err := runCLI(t, configPath, "db", "status")
	if err != nil {
		t.Fatalf("db status error = %v", err)
	}
	if !strings.Contains(out, "applied") || strings.Contains(out, "pending") {
		t.Errorf("db status after list = %q, want all applied", out)
	}

	out, err = runCLI(t, configPath, "db", "rollback")
	if err != nil {
		t.Fatalf("db rollback error = %v", err)
	}
	if !strings.HasPrefix(out, "rolled back ") {
		t.Errorf("db rollback output = %q", out)
	}

	out, err = runCLI(t, configPath, "db", "status")
	if err != nil {
		t.Fatalf("db status error = %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("db status after rollback = %q, want pending", out)
	}

	// The next store command migrates up again and history works.
	if _, err := runCLI(t, configPath, "history"); err != nil {
		t.Fatalf("history after rollback error = %v", err)
	}
}

func TestCommands_DBUnknownAction(t *testing.T) {
	configPath, _ := writeTestConfig(t)

	if _, err := runCLI(t, configPath, "db", "drop"); !errors.Is(err, errUsage) {
		t.Errorf("db drop error = %v, want errUsage", err)
	}
}

// ============================================================================
// Daemon
// ============================================================================

func TestRun_DaemonStopsOnCancel(t *testing.T) {
	configPath, sdRoot := writeTestConfig(t)
	document := filepath.Join(sdRoot, "settings.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		var stdout, stderr bytes.Buffer
		done <- run(ctx, []string{"-config", configPath}, &stdout, &stderr)
	}()

	deadline := time.After(5 * time.Second)
	for {
		if _, err := os.Stat(document); err == nil {
			break
		}
		select {
		case err := <-done:
			t.Fatalf("run() returned early: %v", err)
		case <-deadline:
			t.Fatal("daemon did not bootstrap the document")
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Let a few ticks pass before shutting down.
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run() error = %v, want clean shutdown", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop after cancel")
	}
}

func TestRun_DaemonMountFailure(t *testing.T) {
	configPath, sdRoot := writeTestConfig(t)
	if err := os.Remove(sdRoot); err != nil {
		t.Fatalf("removing sd root: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var stdout, stderr bytes.Buffer
	err := run(ctx, []string{"-config", configPath, "run"}, &stdout, &stderr)
	if !errors.Is(err, settings.ErrStorageUnavailable) {
		t.Fatalf("run() error = %v, want ErrStorageUnavailable", err)
	}
}
