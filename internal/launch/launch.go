package launch

import (
	"context"
	"time"
)

// Log entry sources.
const (
	LogSourceStdout = "stdout"
	LogSourceStderr = "stderr"
	LogSourceSystem = "system"
)

// LogEntry is a single line emitted by a launched backend.
type LogEntry struct {
	Timestamp time.Time
	Message   string
	Source    string
	Level     string
}

// Spec describes how to launch the backend service.
type Spec struct {
	// Command is the argv to execute. Required for process launchers.
	Command []string
	// Image is the container image to run. Required for container launchers.
	Image string
	// Workdir is the working directory for the launched process.
	Workdir string
	// Env holds environment overrides applied on top of the host environment.
	Env map[string]string
	// Ports lists port publications in "host:container" form. Only container
	// launchers interpret these.
	Ports []string
}

// Clone creates a deep copy of the spec.
func (s Spec) Clone() Spec {
	cp := s
	if s.Command != nil {
		cp.Command = append([]string(nil), s.Command...)
	}
	if s.Env != nil {
		cp.Env = make(map[string]string, len(s.Env))
		for k, v := range s.Env {
			cp.Env[k] = v
		}
	}
	if s.Ports != nil {
		cp.Ports = append([]string(nil), s.Ports...)
	}
	return cp
}

// Handle references a launched backend. It is owned by the supervisor; the
// underlying OS resources are released once Terminate has been issued and the
// launcher's reaper has collected the exit status.
type Handle interface {
	// PID returns the operating system process identifier. Informational
	// only; it is logged on successful start.
	PID() int

	// Terminate delivers a best-effort termination signal. It does not wait
	// for the backend to exit and is safe to call on an already-dead backend.
	Terminate() error

	// Logs returns a channel of log lines produced by the backend. The
	// channel is closed once the backend has exited and the streams have
	// drained. A nil channel indicates the launcher does not stream logs.
	Logs() <-chan LogEntry
}

// Launcher spawns backend instances.
type Launcher interface {
	// Launch starts the backend described by spec and returns a handle to
	// it. Implementations make exactly one spawn attempt and surface
	// failures via the returned error.
	Launch(ctx context.Context, spec Spec) (Handle, error)
}

// Registry maps launcher identifiers to their concrete implementations.
type Registry map[string]Launcher

// Clone returns a shallow copy of the registry, allowing callers to avoid
// accidental mutation of shared maps.
func (r Registry) Clone() Registry {
	dup := make(Registry, len(r))
	for k, v := range r {
		dup[k] = v
	}
	return dup
}
