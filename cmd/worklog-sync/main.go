package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"worklog-sync/internal/app"
	"worklog-sync/internal/config"
)

var Version = "dev"

type rootOptions struct {
	verbose  bool
	settings string
	logger   *slog.Logger
}

func main() {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "worklog-sync",
		Short:         "Schedule daily work logs and submit them to OpenProject",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.verbose {
				level = slog.LevelDebug
			}
			// Prompts and reports own stdout.
			opts.logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(opts.logger)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&opts.settings, "config", "", "Settings file (default: worklog.yaml when present)")

	rootCmd.AddCommand(runCmd(opts))
	rootCmd.AddCommand(planCmd(opts))
	rootCmd.AddCommand(checkCmd(opts))
	rootCmd.AddCommand(historyCmd(opts))
	rootCmd.AddCommand(serveCmd(opts))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		slog.Error("worklog-sync failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func (o *rootOptions) app() (*app.App, error) {
	cfg, err := config.Load(o.settings)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return app.New(o.logger, cfg, os.Stdin, os.Stdout)
}

func runCmd(opts *rootOptions) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process a work log file date by date and submit time entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			sum, err := a.Run(cmd.Context(), file)
			if err != nil {
				return err
			}
			opts.logger.Info("run completed",
				slog.Int("submitted", sum.Submitted),
				slog.Int("skipped", sum.Skipped),
				slog.Int("declined_dates", sum.Declined))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "logs.json", "Work log file")
	return cmd
}

func planCmd(opts *rootOptions) *cobra.Command {
	var (
		file    string
		offline bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a run would do without writing anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			return a.Plan(cmd.Context(), file, offline)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "logs.json", "Work log file")
	cmd.Flags().BoolVar(&offline, "offline", false, "Only print the computed schedules; do not contact OpenProject")
	return cmd
}

func checkCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify credentials, project mappings and permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			return a.Check(cmd.Context())
		},
	}
}

func historyCmd(opts *rootOptions) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List the most recent journal entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			a, err := opts.app()
			if err != nil {
				return err
			}
			return a.History(cmd.Context(), limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum rows")
	return cmd
}

func serveCmd(opts *rootOptions) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the scheduling endpoint over HTTP",
		Long: `Serve GET /healthz and POST /schedule.

POST a work log document to /schedule, optionally with ?start=HH:MM, to get
the computed day schedules and rejected entries as JSON.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := opts.app()
			if err != nil {
				return err
			}
			srv := a.HTTPServer(addr)
			errCh := make(chan error, 1)
			go func() {
				opts.logger.Info("http server listening", slog.String("addr", addr))
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-cmd.Context().Done():
			}
			opts.logger.Info("shutting down")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	return cmd
}
