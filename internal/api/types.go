package api

import (
	stdcontext "context"
	"errors"
	"time"
)

var (
	ErrEmptyTitle     = errors.New("notification title is required")
	ErrNotifyDisabled = errors.New("notifications are disabled")
)

// BackendReport describes the supervised backend's current state. The
// running flag reflects whether a handle is tracked, not whether the process
// is provably alive; a backend that exited on its own still reports running
// until the shell stops it.
type BackendReport struct {
	Running     bool      `json:"running"`
	PID         int       `json:"pid,omitempty"`
	Mode        string    `json:"mode"`
	Port        int       `json:"port"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Controller exposes the shell operations the invocation transport needs.
type Controller interface {
	// Notify forwards a notification to the operating system.
	Notify(ctx stdcontext.Context, title, body string) error

	// BackendPort returns the fixed port the backend listens on. Static
	// configuration, not derived from the supervisor.
	BackendPort(ctx stdcontext.Context) (int, error)

	// BackendStatus reports the supervisor's view of the backend.
	BackendStatus(ctx stdcontext.Context) (*BackendReport, error)
}
