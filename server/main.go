package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/meikuraledutech/blueprint/api"
	"github.com/meikuraledutech/blueprint/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newLogger writes timestamped lines to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	verbose    bool

	loader *config.Loader
	logger *log.Logger
}

// level resolves the effective log level; --verbose always wins.
func (a *app) level(cfg *config.Config) log.Level {
	if a.verbose {
		return log.DebugLevel
	}
	lvl, err := log.ParseLevel(cfg.Log.Level)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "blueprint",
		Short:        "Serve node graphs with link validation and cycle checks",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loader, err := config.NewLoader(a.configPath)
			if err != nil {
				return err
			}
			a.loader = loader
			a.logger = newLogger(os.Stderr, a.level(loader.Config()))
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newServeCmd(a))
	root.AddCommand(newSchemaCmd(a))
	return root
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func newSchemaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the storage schema",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "create",
		Short: "Create tables or verify the backend is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st storeHandle) error {
				if err := st.CreateSchema(cmd.Context()); err != nil {
					return err
				}
				a.logger.Info("schema created", "driver", a.loader.Config().Store.Driver)
				return nil
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "drop",
		Short: "Drop every stored graph",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(cmd.Context(), func(st storeHandle) error {
				if err := st.DropSchema(cmd.Context()); err != nil {
					return err
				}
				a.logger.Info("schema dropped", "driver", a.loader.Config().Store.Driver)
				return nil
			})
		},
	})
	return cmd
}

func (a *app) withStore(ctx context.Context, fn func(st storeHandle) error) error {
	st, err := openStore(ctx, a.loader.Config().Store, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(st)
}

func (a *app) serve(ctx context.Context) error {
	cfg := a.loader.Config()

	st, err := openStore(ctx, cfg.Store, a.logger)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := st.CreateSchema(ctx); err != nil {
		return err
	}

	a.loader.OnChange(func(next *config.Config) {
		a.logger.SetLevel(a.level(next))
		a.logger.Info("config reloaded", "log_level", next.Log.Level)
	})
	stop, err := a.loader.Watch(func(err error) {
		a.logger.Warn("config reload failed", "err", err)
	})
	if err != nil {
		return err
	}
	defer stop()

	srv := api.New(st, api.Options{
		MaxSessions:  cfg.Server.MaxSessions,
		StoreTimeout: cfg.Store.Timeout,
		Logger:       a.logger.WithPrefix("api"),
	})
	web := srv.App()

	errc := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", cfg.Server.Addr, "store", cfg.Store.Driver)
		errc <- web.Listen(cfg.Server.Addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := web.ShutdownWithContext(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("save open graphs: %w", err))
	}
	return errors.Join(errs...)
}
