package cli

import (
	"github.com/spf13/cobra"

	"github.com/lifeos-app/shell/internal/config"
	"github.com/lifeos-app/shell/internal/tui"
)

func newDashCmd(ctx *context) *cobra.Command {
	var apiAddr string
	cmd := &cobra.Command{
		Use:   "dash",
		Short: "Open a terminal dashboard for a running shell",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr := apiAddr
			if !cmd.Flags().Changed("api") {
				if cfg, err := ctx.loadConfig(); err == nil {
					addr = cfg.API.Addr
				}
			}
			return tui.New(addr).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&apiAddr, "api", config.DefaultAPIAddr, "address of the shell's control API")
	return cmd
}
