package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lifeos-app/shell/internal/supervisor"
)

func TestLoadValidManifest(t *testing.T) {
	dir := t.TempDir()
	backendDir := filepath.Join(dir, "apps", "backend")
	if err := os.MkdirAll(backendDir, 0o755); err != nil {
		t.Fatalf("mkdir backend dir: %v", err)
	}
	envFile := filepath.Join(dir, "backend.env")
	if err := os.WriteFile(envFile, []byte("LIFEOS_DB=${DB_PATH}\nLIFEOS_LOG_LEVEL=debug"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	t.Setenv("DB_PATH", "/var/lib/lifeos/db.sqlite")
	t.Setenv("API_TOKEN", "s3cr3t")

	configPath := filepath.Join(dir, "shell.yaml")
	manifest := []byte(`backend:
  mode: development
  projectRoot: .
  env:
    LIFEOS_TOKEN: ${API_TOKEN}
  envFromFile: ./backend.env
  port: 52700
tray:
  tooltip: LifeOS (dev)
api:
  addr: 127.0.0.1:52711
`)
	if err := os.WriteFile(configPath, manifest, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	doc, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if got, want := doc.Backend.Mode, string(supervisor.ModeDevelopment); got != want {
		t.Fatalf("mode mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Backend.ProjectRoot, dir; got != want {
		t.Fatalf("project root not resolved: got %q want %q", got, want)
	}
	if got, want := doc.Backend.Env["LIFEOS_DB"], "/var/lib/lifeos/db.sqlite"; got != want {
		t.Fatalf("env file value mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Backend.Env["LIFEOS_TOKEN"], "s3cr3t"; got != want {
		t.Fatalf("env expansion mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Backend.EnvFromFile, envFile; got != want {
		t.Fatalf("envFromFile not resolved: got %q want %q", got, want)
	}
	if got, want := doc.Tray.Tooltip, "LifeOS (dev)"; got != want {
		t.Fatalf("tooltip mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Tray.OpenLabel, DefaultOpenLabel; got != want {
		t.Fatalf("open label default mismatch: got %q want %q", got, want)
	}
	if got, want := doc.API.Addr, "127.0.0.1:52711"; got != want {
		t.Fatalf("api addr mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Tray.FrontendURL, "http://127.0.0.1:52700"; got != want {
		t.Fatalf("frontend url default mismatch: got %q want %q", got, want)
	}
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	doc, err := Load(filepath.Join(t.TempDir(), "shell.yaml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, want := doc.Backend.Mode, string(supervisor.ModeProduction); got != want {
		t.Fatalf("default mode mismatch: got %q want %q", got, want)
	}
	if got, want := doc.Backend.Port, supervisor.DefaultBackendPort; got != want {
		t.Fatalf("default port mismatch: got %d want %d", got, want)
	}
	if got, want := doc.API.Addr, DefaultAPIAddr; got != want {
		t.Fatalf("default api addr mismatch: got %q want %q", got, want)
	}
	if !doc.Tray.TrayEnabled() {
		t.Fatalf("tray should default to enabled")
	}
	if !doc.Notifications.NotificationsEnabled() {
		t.Fatalf("notifications should default to enabled")
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "shell.yaml")
	if err := os.WriteFile(configPath, []byte("backend:\n  restartPolicy: always\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestLoadRejectsInvalidEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "backend.env")
	if err := os.WriteFile(envFile, []byte("NOT A VALID LINE"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	configPath := filepath.Join(dir, "shell.yaml")
	if err := os.WriteFile(configPath, []byte("backend:\n  envFromFile: ./backend.env\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Fatalf("expected error for malformed env file")
	}
}

func TestInlineEnvOverridesFileEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, "backend.env")
	if err := os.WriteFile(envFile, []byte("LIFEOS_LOG_LEVEL=info"), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	configPath := filepath.Join(dir, "shell.yaml")
	manifest := []byte(`backend:
  env:
    LIFEOS_LOG_LEVEL: debug
  envFromFile: ./backend.env
`)
	if err := os.WriteFile(configPath, manifest, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	doc, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got, want := doc.Backend.Env["LIFEOS_LOG_LEVEL"], "debug"; got != want {
		t.Fatalf("inline env should win: got %q want %q", got, want)
	}
}
