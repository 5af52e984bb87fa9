package supervisor

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func makeProjectTree(t *testing.T) (root, nested string) {
	t.Helper()
	root = t.TempDir()
	backend := filepath.Join(root, "apps", "backend")
	if err := os.MkdirAll(backend, 0o755); err != nil {
		t.Fatalf("mkdir backend tree: %v", err)
	}
	nested = filepath.Join(root, "apps", "desktop", "shell")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir nested dir: %v", err)
	}
	return root, nested
}

func TestFindProjectRootWalksUp(t *testing.T) {
	root, nested := makeProjectTree(t)

	got, err := FindProjectRoot(nested)
	if err != nil {
		t.Fatalf("FindProjectRoot returned error: %v", err)
	}
	if got != root {
		t.Fatalf("project root mismatch: got %q want %q", got, root)
	}
}

func TestFindProjectRootMissingTree(t *testing.T) {
	dir := t.TempDir()
	if _, err := FindProjectRoot(dir); err == nil {
		t.Fatalf("expected error for directory without backend tree")
	}
}

func TestBuildSpecDevelopment(t *testing.T) {
	root, nested := makeProjectTree(t)

	launcher, spec, err := buildSpec(Config{Mode: ModeDevelopment, StartDir: nested})
	if err != nil {
		t.Fatalf("buildSpec returned error: %v", err)
	}
	if got, want := launcher, LauncherProcess; got != want {
		t.Fatalf("launcher mismatch: got %q want %q", got, want)
	}
	if got, want := spec.Workdir, filepath.Join(root, "apps", "backend"); got != want {
		t.Fatalf("workdir mismatch: got %q want %q", got, want)
	}
	if got, want := strings.Join(spec.Command, " "), "python main.py"; got != want {
		t.Fatalf("command mismatch: got %q want %q", got, want)
	}
	if got, want := spec.Env[BackendPortEnv], "52700"; got != want {
		t.Fatalf("port env mismatch: got %q want %q", got, want)
	}
}

func TestBuildSpecDevelopmentExplicitRoot(t *testing.T) {
	root, _ := makeProjectTree(t)

	_, spec, err := buildSpec(Config{
		Mode:        ModeDevelopment,
		ProjectRoot: root,
		Command:     []string{"python3", "main.py", "--reload"},
	})
	if err != nil {
		t.Fatalf("buildSpec returned error: %v", err)
	}
	if got, want := spec.Workdir, filepath.Join(root, "apps", "backend"); got != want {
		t.Fatalf("workdir mismatch: got %q want %q", got, want)
	}
	if got, want := spec.Command[0], "python3"; got != want {
		t.Fatalf("command override ignored: got %q want %q", got, want)
	}
}

func TestBuildSpecProductionDefaults(t *testing.T) {
	launcher, spec, err := buildSpec(Config{Mode: ModeProduction})
	if err != nil {
		t.Fatalf("buildSpec returned error: %v", err)
	}
	if got, want := launcher, LauncherProcess; got != want {
		t.Fatalf("launcher mismatch: got %q want %q", got, want)
	}
	if got, want := strings.Join(spec.Command, " "), "lifeos-backend"; got != want {
		t.Fatalf("command mismatch: got %q want %q", got, want)
	}
	if spec.Workdir != "" {
		t.Fatalf("production workdir should be empty, got %q", spec.Workdir)
	}
}

func TestBuildSpecDefaultsToProduction(t *testing.T) {
	launcher, spec, err := buildSpec(Config{})
	if err != nil {
		t.Fatalf("buildSpec returned error: %v", err)
	}
	if got, want := launcher, LauncherProcess; got != want {
		t.Fatalf("launcher mismatch: got %q want %q", got, want)
	}
	if got, want := spec.Command[0], "lifeos-backend"; got != want {
		t.Fatalf("command mismatch: got %q want %q", got, want)
	}
}

func TestBuildSpecContainer(t *testing.T) {
	launcher, spec, err := buildSpec(Config{Mode: ModeContainer, Image: "ghcr.io/lifeos/backend:latest"})
	if err != nil {
		t.Fatalf("buildSpec returned error: %v", err)
	}
	if got, want := launcher, LauncherDocker; got != want {
		t.Fatalf("launcher mismatch: got %q want %q", got, want)
	}
	if got, want := spec.Image, "ghcr.io/lifeos/backend:latest"; got != want {
		t.Fatalf("image mismatch: got %q want %q", got, want)
	}
	if got, want := strings.Join(spec.Ports, ","), "127.0.0.1:52700:52700"; got != want {
		t.Fatalf("default ports mismatch: got %q want %q", got, want)
	}
}

func TestBuildSpecContainerRequiresImage(t *testing.T) {
	if _, _, err := buildSpec(Config{Mode: ModeContainer}); err == nil {
		t.Fatalf("expected error for container mode without image")
	}
}

func TestBuildSpecUnsupportedMode(t *testing.T) {
	if _, _, err := buildSpec(Config{Mode: Mode("staging")}); err == nil {
		t.Fatalf("expected error for unsupported mode")
	}
}
