package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"distserve/internal/server"
	"distserve/internal/system"
)

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := system.SetLevel(cfg.LogLevel); err != nil {
		return err
	}
	srv, err := server.New(cfg, system.Logger)
	if err != nil {
		return err
	}
	ln, err := server.Listen(cfg.Addr())
	if err != nil {
		return err
	}

	// Handle Ctrl+C
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if open, _ := cmd.Flags().GetBool("open"); open {
		url := server.LocalURL(ln) + "/"
		if err := server.OpenBrowser(url); err != nil {
			system.Logger.Warn("failed to open browser", "url", url, "err", err)
		}
	}
	return srv.Serve(ctx, ln, cmd.OutOrStdout())
}
