package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/lifeos-app/shell/internal/launch"
)

// BackendPortEnv is the environment variable carrying the backend's
// listening port. It is injected on every launch regardless of mode.
const BackendPortEnv = "LIFEOS_PORT"

// DefaultBackendPort is the well-known port the backend listens on.
const DefaultBackendPort = 52700

// Mode selects the executable resolution strategy for the backend.
type Mode string

const (
	// ModeDevelopment runs the backend from the project tree with a system
	// interpreter.
	ModeDevelopment Mode = "development"
	// ModeProduction runs the packaged backend executable from the search
	// path.
	ModeProduction Mode = "production"
	// ModeContainer runs the backend image through the container daemon.
	ModeContainer Mode = "container"
)

// Launcher registry keys.
const (
	LauncherProcess = "process"
	LauncherDocker  = "docker"
)

var (
	defaultDevCommand  = []string{"python", "main.py"}
	defaultProdCommand = []string{"lifeos-backend"}
)

// backendRelDir is the backend's location inside the project tree; the
// development resolver walks up from its start directory until it finds it.
const backendRelDir = "apps/backend"

// Config describes the backend to supervise.
type Config struct {
	// Mode selects the resolution strategy. Defaults to ModeProduction.
	Mode Mode
	// Command overrides the mode's default argv.
	Command []string
	// ProjectRoot pins the project root for development mode. When empty
	// the root is discovered by walking up from StartDir.
	ProjectRoot string
	// StartDir is where development-mode root discovery begins. Defaults to
	// the current working directory.
	StartDir string
	// Workdir overrides the working directory for the backend.
	Workdir string
	// Env holds extra environment variables passed to the backend.
	Env map[string]string
	// Port is the backend's listening port. Defaults to DefaultBackendPort.
	Port int
	// Image is the backend container image. Required in container mode.
	Image string
	// Ports lists container port publications. Defaults to publishing Port
	// on the loopback interface in container mode.
	Ports []string
}

// Clone creates a deep copy of the config.
func (c Config) Clone() Config {
	cp := c
	if c.Command != nil {
		cp.Command = append([]string(nil), c.Command...)
	}
	if c.Env != nil {
		cp.Env = make(map[string]string, len(c.Env))
		for k, v := range c.Env {
			cp.Env[k] = v
		}
	}
	if c.Ports != nil {
		cp.Ports = append([]string(nil), c.Ports...)
	}
	return cp
}

func (c Config) port() int {
	if c.Port > 0 {
		return c.Port
	}
	return DefaultBackendPort
}

// buildSpec translates the config into a launch spec plus the name of the
// launcher that should run it.
func buildSpec(cfg Config) (string, launch.Spec, error) {
	spec := launch.Spec{Workdir: cfg.Workdir}

	spec.Env = make(map[string]string, len(cfg.Env)+1)
	for k, v := range cfg.Env {
		spec.Env[k] = v
	}
	spec.Env[BackendPortEnv] = strconv.Itoa(cfg.port())

	mode := cfg.Mode
	if mode == "" {
		mode = ModeProduction
	}

	switch mode {
	case ModeDevelopment:
		root := cfg.ProjectRoot
		if root == "" {
			var err error
			root, err = FindProjectRoot(cfg.StartDir)
			if err != nil {
				return "", launch.Spec{}, err
			}
		}
		if spec.Workdir == "" {
			spec.Workdir = filepath.Join(root, filepath.FromSlash(backendRelDir))
		}
		spec.Command = append([]string(nil), defaultDevCommand...)
		if len(cfg.Command) > 0 {
			spec.Command = append([]string(nil), cfg.Command...)
		}
		return LauncherProcess, spec, nil

	case ModeProduction:
		spec.Command = append([]string(nil), defaultProdCommand...)
		if len(cfg.Command) > 0 {
			spec.Command = append([]string(nil), cfg.Command...)
		}
		return LauncherProcess, spec, nil

	case ModeContainer:
		if cfg.Image == "" {
			return "", launch.Spec{}, fmt.Errorf("container mode requires an image")
		}
		spec.Image = cfg.Image
		if len(cfg.Command) > 0 {
			spec.Command = append([]string(nil), cfg.Command...)
		}
		spec.Ports = append([]string(nil), cfg.Ports...)
		if len(spec.Ports) == 0 {
			port := cfg.port()
			spec.Ports = []string{fmt.Sprintf("127.0.0.1:%d:%d", port, port)}
		}
		return LauncherDocker, spec, nil
	}

	return "", launch.Spec{}, fmt.Errorf("unsupported mode %q (supported values: development, production, container)", mode)
}

// FindProjectRoot walks up from start looking for the directory that
// contains the backend tree. An empty start means the current working
// directory.
func FindProjectRoot(start string) (string, error) {
	dir := start
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve start directory: %w", err)
	}

	for current := abs; ; {
		candidate := filepath.Join(current, filepath.FromSlash(backendRelDir))
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return current, nil
		}
		parent := filepath.Dir(current)
		if parent == current {
			return "", fmt.Errorf("no %s directory found walking up from %s", backendRelDir, abs)
		}
		current = parent
	}
}
