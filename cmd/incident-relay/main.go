package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AltairaLabs/incident-relay/internal/relay"
	"github.com/AltairaLabs/incident-relay/internal/relay/config"
	"github.com/AltairaLabs/incident-relay/internal/servicenow"
)

const version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type options struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "incident-relay",
		Short:         "WebSocket relay for ServiceNow incident tools",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts, cmd.ErrOrStderr())
		},
	}
	cmd.SetVersionTemplate("ServiceNow incident relay v{{.Version}}\n")

	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file (default $"+config.EnvConfigPath+")")
	cmd.Flags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	return cmd
}

// run loads configuration, builds the relay and serves until ctx ends
func run(ctx context.Context, opts *options, stderr io.Writer) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		bootLogger := newLogger(stderr, slog.LevelInfo)
		if errors.Is(err, config.ErrMissingCredentials) {
			bootLogger.Error("ServiceNow credentials missing",
				"required", []string{config.EnvInstanceURL, config.EnvUsername, config.EnvPassword},
			)
		} else {
			bootLogger.Error("Failed to load configuration", "error", err)
		}
		return err
	}

	logLevel, _ := config.ParseLevel(cfg.LogLevel)
	if opts.debug {
		logLevel = slog.LevelDebug
	}
	logger := newLogger(stderr, logLevel)
	slog.SetDefault(logger)

	logger.Info("Starting ServiceNow incident relay",
		"version", cfg.Version,
		"debug", opts.debug,
		"http_port", cfg.HTTP.Port,
		"grpc_port", cfg.GRPC.Port,
		"instance_url", cfg.ServiceNow.InstanceURL,
	)

	client, err := servicenow.NewClient(
		cfg.ServiceNow.InstanceURL,
		cfg.ServiceNow.Username,
		cfg.ServiceNow.Password,
		servicenow.WithTimeout(cfg.ServiceNow.Timeout),
		servicenow.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("create ServiceNow client: %w", err)
	}

	server, err := relay.NewServer(cfg, client, logger)
	if err != nil {
		return fmt.Errorf("create relay server: %w", err)
	}

	if err := server.Run(ctx); err != nil {
		logger.Error("Relay stopped with error", "error", err)
		return err
	}
	return nil
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}
