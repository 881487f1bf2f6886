package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aktsk/ff7-medit/internal/server"
)

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the bridge operations over websocket",
		Long:  "Serve the bridge operations over websocket at /ws, with a liveness probe at /healthz.",
		Run:   runServe,
	}
	cmd.Flags().StringP("listen", "l", "", "Listen address (overrides config)")
	cmd.Flags().StringSlice("allow-origin", nil, "Browser origins allowed to connect, e.g. http://localhost:3000 (default same host only)")
	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, args []string) {
	a := mustApp(cmd)
	addr := a.cfg.Listen
	if cmd.Flags().Changed("listen") {
		addr, _ = cmd.Flags().GetString("listen")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []server.Option{server.WithLogger(a.log)}
	if origins, _ := cmd.Flags().GetStringSlice("allow-origin"); len(origins) > 0 {
		opts = append(opts, server.WithOriginCheck(server.AllowOrigins(origins)))
	}
	srv := server.New(a.registry, opts...)
	if err := srv.Run(ctx, addr); err != nil {
		exitErr("serve", err)
	}
}
