package docker

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/strslice"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
	"github.com/docker/go-connections/nat"

	"github.com/lifeos-app/shell/internal/launch"
)

const stopTimeout = 10 * time.Second

type launcherImpl struct {
	client     *client.Client
	clientOnce sync.Once
	clientErr  error
}

// New returns a Docker backed launcher implementation.
func New() launch.Launcher {
	return &launcherImpl{}
}

func (l *launcherImpl) getClient() (*client.Client, error) {
	l.clientOnce.Do(func() {
		cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
		if err != nil {
			l.clientErr = err
			return
		}
		l.client = cli
	})
	return l.client, l.clientErr
}

func (l *launcherImpl) Launch(ctx context.Context, spec launch.Spec) (launch.Handle, error) {
	if spec.Image == "" {
		return nil, errors.New("container launcher requires an image")
	}

	cli, err := l.getClient()
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}

	if err := ensureImage(ctx, cli, spec.Image); err != nil {
		return nil, err
	}

	containerCfg, hostCfg, err := buildConfigs(spec)
	if err != nil {
		return nil, err
	}

	createResp, err := cli.ContainerCreate(ctx, containerCfg, hostCfg, &network.NetworkingConfig{}, nil, "")
	if err != nil {
		return nil, fmt.Errorf("container create: %w", err)
	}
	containerID := createResp.ID

	if err := cli.ContainerStart(ctx, containerID, types.ContainerStartOptions{}); err != nil {
		return nil, fmt.Errorf("container start: %w", err)
	}

	pid := 0
	if inspect, err := cli.ContainerInspect(ctx, containerID); err == nil && inspect.State != nil {
		pid = inspect.State.Pid
	}

	h := newContainerHandle(cli, containerID, pid)
	h.startLogStreamer()
	return h, nil
}

type containerHandle struct {
	cli         *client.Client
	containerID string
	pid         int

	logs    chan launch.LogEntry
	logCtx  context.Context
	logStop context.CancelFunc
	logOnce sync.Once
}

func newContainerHandle(cli *client.Client, id string, pid int) *containerHandle {
	logCtx, logCancel := context.WithCancel(context.Background())
	return &containerHandle{
		cli:         cli,
		containerID: id,
		pid:         pid,
		logs:        make(chan launch.LogEntry, 128),
		logCtx:      logCtx,
		logStop:     logCancel,
	}
}

func (h *containerHandle) PID() int {
	return h.pid
}

func (h *containerHandle) startLogStreamer() {
	h.logOnce.Do(func() {
		go func() {
			defer close(h.logs)
			reader, err := h.cli.ContainerLogs(h.logCtx, h.containerID, types.ContainerLogsOptions{
				ShowStdout: true,
				ShowStderr: true,
				Follow:     true,
				Tail:       "all",
			})
			if err != nil {
				return
			}
			defer reader.Close()

			stdout := newLogWriter(h.logCtx, h.logs, launch.LogSourceStdout, "")
			stderr := newLogWriter(h.logCtx, h.logs, launch.LogSourceStderr, "warn")
			_, _ = stdcopy.StdCopy(stdout, stderr, reader)
			stdout.Close()
			stderr.Close()
		}()
	})
}

// Terminate asks the daemon to stop the container. A container that is
// already gone counts as success.
func (h *containerHandle) Terminate() error {
	defer h.logStop()
	ctx, cancel := context.WithTimeout(context.Background(), stopTimeout+5*time.Second)
	defer cancel()

	sec := int(stopTimeout.Seconds())
	opts := container.StopOptions{Timeout: &sec}
	if err := h.cli.ContainerStop(ctx, h.containerID, opts); err != nil {
		if client.IsErrNotFound(err) {
			return nil
		}
		return fmt.Errorf("container stop: %w", err)
	}
	return nil
}

func (h *containerHandle) Logs() <-chan launch.LogEntry {
	return h.logs
}

type logWriter struct {
	ctx    context.Context
	ch     chan<- launch.LogEntry
	source string
	level  string
	buf    bytes.Buffer
	mu     sync.Mutex
}

func newLogWriter(ctx context.Context, ch chan<- launch.LogEntry, source, level string) *logWriter {
	return &logWriter{ctx: ctx, ch: ch, source: source, level: level}
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	total := len(p)
	reader := bufio.NewReader(bytes.NewReader(p))
	for {
		segment, err := reader.ReadBytes('\n')
		if len(segment) > 0 {
			if segment[len(segment)-1] == '\n' {
				w.buf.Write(segment[:len(segment)-1])
				w.emit(w.buf.String())
				w.buf.Reset()
			} else {
				w.buf.Write(segment)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return total, err
		}
	}
	return total, nil
}

func (w *logWriter) emit(line string) {
	if line == "" {
		return
	}
	select {
	case w.ch <- launch.LogEntry{Message: line, Source: w.source, Level: w.level}:
	case <-w.ctx.Done():
	}
}

func (w *logWriter) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.buf.Len() == 0 {
		return
	}
	w.emit(w.buf.String())
	w.buf.Reset()
}

func ensureImage(ctx context.Context, cli *client.Client, imageName string) error {
	_, _, err := cli.ImageInspectWithRaw(ctx, imageName)
	if err == nil {
		return nil
	}
	if !client.IsErrNotFound(err) {
		return fmt.Errorf("inspect image: %w", err)
	}
	reader, err := cli.ImagePull(ctx, imageName, types.ImagePullOptions{})
	if err != nil {
		return fmt.Errorf("pull image: %w", err)
	}
	defer reader.Close()
	_, _ = io.Copy(io.Discard, reader)
	return nil
}

func buildConfigs(spec launch.Spec) (*container.Config, *container.HostConfig, error) {
	env := make([]string, 0, len(spec.Env))
	for k, v := range spec.Env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)

	exposed := nat.PortSet{}
	bindings := nat.PortMap{}
	for _, portSpec := range spec.Ports {
		mappings, err := nat.ParsePortSpec(portSpec)
		if err != nil {
			return nil, nil, fmt.Errorf("parse port %q: %w", portSpec, err)
		}
		for _, mapping := range mappings {
			exposed[mapping.Port] = struct{}{}
			bindings[mapping.Port] = append(bindings[mapping.Port], mapping.Binding)
		}
	}

	var cmdSlice []string
	if len(spec.Command) > 0 {
		cmdSlice = append([]string(nil), spec.Command...)
	}

	config := &container.Config{
		Image:        spec.Image,
		Env:          env,
		Cmd:          strslice.StrSlice(cmdSlice),
		ExposedPorts: exposed,
	}
	host := &container.HostConfig{PortBindings: bindings}
	return config, host, nil
}
