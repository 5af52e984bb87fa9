package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lifeos-app/shell/internal/launch"
	"github.com/lifeos-app/shell/internal/metrics"
)

var (
	// ErrAlreadyStarted is returned when Start is invoked while a backend is
	// already tracked or another start is in flight.
	ErrAlreadyStarted = errors.New("backend already started")

	// ErrUnknownLauncher is returned when the configured mode maps to a
	// launcher that is not present in the registry.
	ErrUnknownLauncher = errors.New("unknown launcher")
)

// Supervisor manages the single backend process's lifecycle from spawn to
// termination. It owns at most one live handle at a time; every read and
// write of the handle happens under the mutex, which is never held across
// the spawn or terminate system calls.
//
// The supervisor does not observe the backend exiting on its own. A backend
// that crashes leaves the supervisor reporting Running with a stale handle;
// the launcher's reaper still collects the exit status so no zombie remains.
type Supervisor struct {
	launchers launch.Registry

	mu       sync.Mutex
	handle   launch.Handle
	starting bool
}

// New constructs a supervisor that spawns backends using the provided
// launcher registry.
func New(launchers launch.Registry) *Supervisor {
	return &Supervisor{launchers: launchers.Clone()}
}

// Start makes a single attempt to spawn the backend described by cfg and
// returns its process identifier. The slot is reserved under the lock before
// spawning, so concurrent Start calls spawn at most one process; the losers
// receive ErrAlreadyStarted. A spawn failure leaves the supervisor Idle and
// is reported through the returned error only — the caller decides whether
// the shell keeps running without a backend.
//
// The spawn is not cancellable once issued: the backend is detached from the
// caller's context so that Stop's signal remains the sole termination path.
func (s *Supervisor) Start(ctx context.Context, cfg Config) (int, error) {
	launcherName, spec, err := buildSpec(cfg)
	if err != nil {
		return 0, err
	}
	launcher, ok := s.launchers[launcherName]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownLauncher, launcherName)
	}

	s.mu.Lock()
	if s.handle != nil || s.starting {
		s.mu.Unlock()
		return 0, ErrAlreadyStarted
	}
	s.starting = true
	s.mu.Unlock()

	handle, err := launcher.Launch(context.WithoutCancel(ctx), spec)

	s.mu.Lock()
	s.starting = false
	if err != nil {
		s.mu.Unlock()
		metrics.IncBackendSpawnFailure()
		return 0, fmt.Errorf("spawn backend: %w", err)
	}
	s.handle = handle
	s.mu.Unlock()

	metrics.IncBackendSpawn()
	metrics.SetBackendUp(true)
	return handle.PID(), nil
}

// Stop takes the handle out under the lock and, if one was present, delivers
// a best-effort termination signal. The take-and-clear is the linearization
// point: when two callers race, exactly one signals the backend and the
// other observes an empty slot and no-ops. Stop never waits for the backend
// to exit and swallows termination failures.
func (s *Supervisor) Stop() {
	s.mu.Lock()
	handle := s.handle
	s.handle = nil
	s.mu.Unlock()

	if handle == nil {
		return
	}

	metrics.SetBackendUp(false)
	metrics.IncBackendTermination()
	_ = handle.Terminate()
}

// Running reports whether a backend handle is currently tracked. Diagnostics
// only; the lock-protected transitions in Start and Stop are what prevent
// races.
func (s *Supervisor) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.handle != nil
}

// PID returns the tracked backend's process identifier, or zero when Idle.
func (s *Supervisor) PID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return 0
	}
	return s.handle.PID()
}

// Logs returns the tracked backend's log channel, or nil when Idle.
func (s *Supervisor) Logs() <-chan launch.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.handle == nil {
		return nil
	}
	return s.handle.Logs()
}
