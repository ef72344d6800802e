package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskdeck/taskdeck/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	Addr string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the workflow HTTP API",
		Long: `Serve the workflow HTTP API over the project directory.

Exposes transitions, document reconciliation, available commands, and
the project tree as JSON endpoints. Shuts down gracefully on SIGINT or
SIGTERM.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", ":8645", "listen address")

	return cmd
}

func runServe(rootOpts *RootOptions, opts *ServeOptions, cmd *cobra.Command) error {
	ws, err := openWorkspace(rootOpts)
	if err != nil {
		return err
	}
	defer ws.Close()

	srv := &http.Server{
		Addr:    opts.Addr,
		Handler: server.New(ws.store, ws.provider, ws.engine).Handler(),
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("serving workflow API", "addr", opts.Addr, "project", rootOpts.ProjectDir)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return WrapExitError(ExitCommandError, "server failed", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return WrapExitError(ExitCommandError, fmt.Sprintf("shutdown after signal on %s", opts.Addr), err)
	}
	slog.Info("server stopped")
	return <-errCh
}
