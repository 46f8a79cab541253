package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"resume-portal/internal/bootstrap"
	"resume-portal/internal/shared/config"
)

var (
	loadConfig = config.Load
	buildApp   = bootstrap.Build
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "resumectl: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resumectl",
		Short: "Resume portal operations CLI",
		Long: `resumectl runs maintenance tasks against the same stores the API uses:
retention sweeps, bulk imports, ad-hoc searches and password hashing for AUTH_ACCOUNTS.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newSweepCmd(),
		newImportCmd(),
		newSearchCmd(),
		newHashPasswordCmd(),
	)
	return cmd
}

// withApp builds the application for one command and closes it afterwards.
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	app, err := buildApp(loadConfig())
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	defer app.Close(context.WithoutCancel(ctx))
	return fn(app)
}
