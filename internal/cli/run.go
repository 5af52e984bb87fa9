package cli

import (
	stdcontext "context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	apihttp "github.com/lifeos-app/shell/internal/api/http"
	"github.com/lifeos-app/shell/internal/cliutil"
	"github.com/lifeos-app/shell/internal/launch"
	"github.com/lifeos-app/shell/internal/launch/docker"
	"github.com/lifeos-app/shell/internal/launch/process"
	"github.com/lifeos-app/shell/internal/notify"
	"github.com/lifeos-app/shell/internal/supervisor"
	"github.com/lifeos-app/shell/internal/tray"
)

var newAPIServer = apihttp.NewServer

func newRunCmd(ctx *context) *cobra.Command {
	var noTray bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the shell: backend supervisor, tray menu and control API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.loadConfig()
			if err != nil {
				return err
			}

			runCtx, cancel := stdcontext.WithCancel(cmd.Context())
			defer cancel()

			notifier := notify.NewNoop()
			if cfg.Notifications.NotificationsEnabled() {
				notifier = notify.NewSystem(cfg.Notifications.AppName)
			}

			sup := supervisor.New(launch.Registry{
				supervisor.LauncherProcess: process.New(),
				supervisor.LauncherDocker:  docker.New(),
			})

			// A backend that fails to spawn is reported but does not take the
			// shell down; the tray and API stay available.
			if pid, err := sup.Start(runCtx, cfg.SupervisorConfig()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "warn: backend not started: %v\n", err)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Backend started (pid %d, mode %s)\n", pid, cfg.Backend.Mode)
			}

			if logs := sup.Logs(); logs != nil {
				go streamBackendLogs(cmd, logs)
			}

			control := newShellController(sup, cfg, notifier)
			server, err := newAPIServer(apihttp.Config{Addr: cfg.API.Addr, Controller: control})
			if err != nil {
				sup.Stop()
				return err
			}
			serverErr := make(chan error, 1)
			go func() {
				serverErr <- server.Run(runCtx)
			}()
			fmt.Fprintf(cmd.OutOrStdout(), "Control API listening on %s\n", server.Addr())

			if cfg.Tray.TrayEnabled() && !noTray {
				actions := tray.Actions{
					FrontendURL: cfg.Tray.FrontendURL,
					BriefPath:   cfg.Tray.BriefPath,
					OnQuit:      cancel,
					ReportError: func(err error) {
						fmt.Fprintf(cmd.ErrOrStderr(), "warn: %v\n", err)
					},
				}
				go func() {
					<-runCtx.Done()
					tray.Quit()
				}()
				tray.Run(tray.Menu{
					Tooltip:    cfg.Tray.Tooltip,
					OpenLabel:  cfg.Tray.OpenLabel,
					BriefLabel: cfg.Tray.BriefLabel,
					QuitLabel:  cfg.Tray.QuitLabel,
				}, actions)
				cancel()
			} else {
				<-runCtx.Done()
			}

			sup.Stop()

			if err := <-serverErr; err != nil &&
				!errors.Is(err, stdcontext.Canceled) &&
				!errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noTray, "no-tray", false, "run headless without the system tray menu")
	return cmd
}

func streamBackendLogs(cmd *cobra.Command, logs <-chan launch.LogEntry) {
	out := cmd.OutOrStdout()
	human := false
	if f, ok := out.(*os.File); ok {
		human = term.IsTerminal(int(f.Fd()))
	}
	if human {
		for entry := range logs {
			fmt.Fprintln(out, cliutil.FormatHuman(entry))
		}
		return
	}
	enc := json.NewEncoder(out)
	for entry := range logs {
		cliutil.EncodeLogEntry(enc, cmd.ErrOrStderr(), entry)
	}
}
