// Package main is the entry point for the civic complaint mailer.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shineum/civicmail/internal/account"
	"github.com/shineum/civicmail/internal/config"
	"github.com/shineum/civicmail/internal/dispatch"
	"github.com/shineum/civicmail/internal/report"
	"github.com/shineum/civicmail/internal/transport"
	"github.com/shineum/civicmail/internal/transport/ses"
	"github.com/shineum/civicmail/internal/transport/smtp"
	"github.com/shineum/civicmail/internal/transport/stdout"
	smtptls "github.com/shineum/civicmail/internal/tls"
)

var rootCmd = &cobra.Command{
	Use:           "civicmail",
	Short:         "Send the scheduled civic complaint email",
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Print the account and template rotation for the next two weeks",
	Args:  cobra.NoArgs,
	RunE:  runSchedule,
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print today's message without sending it",
	Args:  cobra.NoArgs,
	RunE:  runRender,
}

// errDispatchFailed makes the process exit non-zero after a failed run.
var errDispatchFailed = errors.New("dispatch failed")

func init() {
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		slog.Error("civicmail exited with error", "error", err)
		os.Exit(1)
	}
}

// app holds everything built at startup.
type app struct {
	cfg        *config.Config
	bundle     *config.Bundle
	dispatcher *dispatch.Dispatcher
	logger     *slog.Logger
	closers    []func()
}

func (a *app) close() {
	for _, fn := range a.closers {
		fn()
	}
}

// setup loads configuration and wires the dispatcher. When preview is set
// the stdout transport is used and missing credentials are tolerated.
func setup(ctx context.Context, preview bool) (*app, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg, err := loadConfig(os.Getenv("CIVICMAIL_CONFIG"))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	bundle, err := cfg.Bundle(logger)
	if err != nil {
		return nil, err
	}
	templates, err := cfg.TemplateStore()
	if err != nil {
		return nil, err
	}

	accounts, err := account.BuildActive(cfg.Catalog(), os.Getenv, logger)
	if err != nil {
		if !preview || !errors.Is(err, account.ErrNoAccounts) {
			return nil, err
		}
		accounts = []account.Account{{Name: "preview", Address: "preview@example.com"}}
	}

	a := &app{cfg: cfg, bundle: bundle, logger: logger}

	var tr transport.Transport
	if preview {
		tr = stdout.New()
	} else {
		tr, err = selectTransport(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	opts := dispatch.Options{
		Bundle:    bundle,
		Accounts:  accounts,
		Templates: templates,
		Transport: tr,
		Logger:    logger,
	}
	if !preview && cfg.ReportEnabled() {
		nc, err := report.Connect(cfg.Report.NATSURL)
		if err != nil {
			logger.Warn("outcome reporting disabled", "error", err)
		} else {
			a.closers = append(a.closers, nc.Close)
			opts.Reporter = report.New(nc, cfg.Report.Subject, logger)
			logger.Info("reporting outcomes", "subject", cfg.Report.Subject)
		}
	}

	a.dispatcher, err = dispatch.New(opts)
	if err != nil {
		a.close()
		return nil, err
	}

	names := make([]string, 0, len(accounts))
	for _, acct := range accounts {
		names = append(names, acct.Name)
	}
	logger.Info("civicmail configured",
		"accounts", strings.Join(names, ","),
		"transport", tr.Name(),
		"recipients", len(bundle.To)+len(bundle.Cc)+len(bundle.Bcc),
		"schedule", bundle.Daily.String(),
	)
	return a, nil
}

func runRoot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	a, err := setup(ctx, false)
	if err != nil {
		return err
	}
	defer a.close()

	if automated() {
		a.logger.Info("automated mode, running once")
		out := a.dispatcher.Run(ctx, time.Now())
		if !out.OK() {
			return fmt.Errorf("%w: %s", errDispatchFailed, out.Reason)
		}
		return nil
	}

	a.logger.Info("starting daily scheduler", "at", a.bundle.Daily.String())
	return a.bundle.Daily.Run(ctx, a.logger, func(ctx context.Context, now time.Time) {
		// Failures are logged and reported by the dispatcher; the loop keeps going.
		a.dispatcher.Run(ctx, now)
	})
}

func runSchedule(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	printRotation(cmd.OutOrStdout(), a.dispatcher, a.bundle, time.Now(), 14)
	return nil
}

func runRender(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd.Context(), true)
	if err != nil {
		return err
	}
	defer a.close()

	plan := a.dispatcher.Plan(time.Now())
	msg := a.dispatcher.Build(plan, a.logger)
	return stdout.NewWithWriter(cmd.OutOrStdout()).Send(cmd.Context(), plan.Account, msg)
}

// automated reports whether the process runs under a CI scheduler.
func automated() bool {
	return os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("CIVICMAIL_AUTOMATED") != ""
}

// loadConfig loads configuration from the specified path (YAML + env override)
// or from the built-in defaults and environment variables if no path is given.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// setupLogger installs and returns the global slog logger with the
// specified level and format.
func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level

	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stderr, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// selectTransport chooses the delivery backend based on configuration.
func selectTransport(ctx context.Context, cfg *config.Config, logger *slog.Logger) (transport.Transport, error) {
	switch cfg.Delivery.Provider {
	case "smtp", "":
		tlsConfig, err := smtptls.ClientConfig(cfg.Delivery.CAFile)
		if err != nil {
			return nil, err
		}
		logger.Info("using SMTP transport", "timeout", cfg.Delivery.Timeout.String())
		return smtp.New(smtp.Config{
			Timeout:   cfg.Delivery.Timeout,
			TLSConfig: tlsConfig,
			Logger:    logger,
		}), nil

	case "ses":
		if !cfg.SESConfigured() {
			return nil, errors.New("SES transport selected but SES_REGION and SES_SENDER are required")
		}
		logger.Info("using AWS SES transport",
			"region", cfg.Delivery.SES.Region,
			"sender", cfg.Delivery.SES.Sender,
		)
		t, err := ses.New(ctx, ses.Config{
			Region:          cfg.Delivery.SES.Region,
			AccessKeyID:     cfg.Delivery.SES.AccessKeyID,
			SecretAccessKey: cfg.Delivery.SES.SecretAccessKey,
			Sender:          cfg.Delivery.SES.Sender,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create SES transport: %w", err)
		}
		return t, nil

	case "stdout":
		logger.Info("dry run, using stdout transport")
		return stdout.New(), nil

	default:
		return nil, fmt.Errorf("unknown delivery provider %q", cfg.Delivery.Provider)
	}
}
