package notify

import (
	"fmt"
	"strings"

	"github.com/gen2brain/beeep"

	"github.com/lifeos-app/shell/internal/metrics"
)

// Notifier delivers (title, body) pairs to the user. Implementations are
// stateless passthroughs; delivery failures are surfaced to the caller and
// never escalate beyond logging.
type Notifier interface {
	Notify(title, body string) error
}

type systemNotifier struct{}

// NewSystem returns a notifier backed by the operating system's notification
// service. appName labels the notifications where the platform supports it.
func NewSystem(appName string) Notifier {
	if appName != "" {
		beeep.AppName = appName
	}
	return systemNotifier{}
}

func (systemNotifier) Notify(title, body string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("notification title is required")
	}
	if err := beeep.Notify(title, body, ""); err != nil {
		return fmt.Errorf("deliver notification: %w", err)
	}
	metrics.IncNotification()
	return nil
}

type noopNotifier struct{}

// NewNoop returns a notifier that silently discards everything. Used when
// notifications are disabled in configuration.
func NewNoop() Notifier {
	return noopNotifier{}
}

func (noopNotifier) Notify(title, body string) error {
	return nil
}
