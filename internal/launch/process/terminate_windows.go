//go:build windows

package process

import (
	"errors"
	"fmt"
	"os"
)

// Terminate kills the backend process. Windows offers no portable graceful
// signal for a detached child, so the handle falls back to a hard kill and
// treats an already-exited process as success.
func (h *processHandle) Terminate() error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill backend: %w", err)
	}
	return nil
}
