package process

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"

	"github.com/lifeos-app/shell/internal/launch"
)

type launcherImpl struct{}

// New constructs a launcher that runs the backend as a local process.
func New() launch.Launcher {
	return &launcherImpl{}
}

func (l *launcherImpl) Launch(ctx context.Context, spec launch.Spec) (launch.Handle, error) {
	if len(spec.Command) == 0 {
		return nil, fmt.Errorf("process launcher requires a command")
	}

	cmd := exec.CommandContext(ctx, spec.Command[0], spec.Command[1:]...)
	if spec.Workdir != "" {
		cmd.Dir = spec.Workdir
	}

	env := os.Environ()
	if spec.Env != nil {
		overrides := make([]string, 0, len(spec.Env))
		for k, v := range spec.Env {
			overrides = append(overrides, fmt.Sprintf("%s=%s", k, v))
		}
		env = append(env, overrides...)
	}
	cmd.Env = env

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("backend stdout: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("backend stderr: %w", err)
	}

	configureCmdSysProcAttr(cmd)

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start backend: %w", err)
	}

	h := &processHandle{
		cmd:  cmd,
		logs: make(chan launch.LogEntry, 64),
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go h.streamLogs(stdout, launch.LogSourceStdout, &wg)
	go h.streamLogs(stderr, launch.LogSourceStderr, &wg)

	// Reap the child so a backend that exits on its own never lingers as a
	// zombie, even though the supervisor does not observe the exit. Wait
	// closes the pipes, so it must not run until both readers have drained
	// them or trailing log lines are lost.
	go func() {
		wg.Wait()
		close(h.logs)
		_ = cmd.Wait()
	}()

	return h, nil
}

type processHandle struct {
	cmd  *exec.Cmd
	logs chan launch.LogEntry
}

func (h *processHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h *processHandle) Logs() <-chan launch.LogEntry {
	return h.logs
}

func (h *processHandle) streamLogs(r io.Reader, source string, wg *sync.WaitGroup) {
	defer wg.Done()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\n")
		entry := launch.LogEntry{Message: line, Source: source}
		if source == launch.LogSourceStderr {
			entry.Level = "warn"
		}
		h.logs <- entry
	}
}
