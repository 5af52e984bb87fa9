//go:build !windows

package process

import (
	"errors"
	"fmt"
	"syscall"
)

// Terminate signals the backend's process group with SIGTERM. It does not
// wait for the process to exit; the reaper goroutine collects the status.
func (h *processHandle) Terminate() error {
	if h.cmd.Process == nil {
		return nil
	}
	if err := syscall.Kill(-h.cmd.Process.Pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("signal backend process group: %w", err)
	}
	return nil
}
