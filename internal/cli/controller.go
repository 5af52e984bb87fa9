package cli

import (
	stdcontext "context"
	"strings"
	"time"

	"github.com/lifeos-app/shell/internal/api"
	"github.com/lifeos-app/shell/internal/config"
	"github.com/lifeos-app/shell/internal/notify"
	"github.com/lifeos-app/shell/internal/supervisor"
)

// shellController adapts the running shell to the control API surface.
type shellController struct {
	sup      *supervisor.Supervisor
	cfg      *config.Shell
	notifier notify.Notifier
}

func newShellController(sup *supervisor.Supervisor, cfg *config.Shell, notifier notify.Notifier) *shellController {
	return &shellController{sup: sup, cfg: cfg, notifier: notifier}
}

func (c *shellController) Notify(ctx stdcontext.Context, title, body string) error {
	if strings.TrimSpace(title) == "" {
		return api.ErrEmptyTitle
	}
	if !c.cfg.Notifications.NotificationsEnabled() {
		return api.ErrNotifyDisabled
	}
	return c.notifier.Notify(title, body)
}

func (c *shellController) BackendPort(ctx stdcontext.Context) (int, error) {
	return c.cfg.Backend.Port, nil
}

func (c *shellController) BackendStatus(ctx stdcontext.Context) (*api.BackendReport, error) {
	return &api.BackendReport{
		Running:     c.sup.Running(),
		PID:         c.sup.PID(),
		Mode:        c.cfg.Backend.Mode,
		Port:        c.cfg.Backend.Port,
		GeneratedAt: time.Now().UTC(),
	}, nil
}
