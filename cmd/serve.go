package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/shaharia-lab/mailnotify/internal/api"
	"github.com/shaharia-lab/mailnotify/internal/build"
	"github.com/shaharia-lab/mailnotify/internal/config"
	"github.com/shaharia-lab/mailnotify/internal/eventbus"
	"github.com/shaharia-lab/mailnotify/internal/logger"
	"github.com/shaharia-lab/mailnotify/internal/notification"
	"github.com/shaharia-lab/mailnotify/internal/scheduler"
	"github.com/shaharia-lab/mailnotify/internal/server"
	"github.com/shaharia-lab/mailnotify/internal/service"
	"github.com/shaharia-lab/mailnotify/internal/storage"
	"github.com/shaharia-lab/mailnotify/internal/telemetry"
)

// NewServeCmd returns the "serve" subcommand that runs the HTTP intake.
func NewServeCmd(cfg *config.AppConfig) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the stage event intake server",
		Long: `Start the HTTP server that accepts stage events on POST /api/events/stage,
queues them and mails every recipient in SMTP_RECIPIENTS.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// CLI flags override env config.
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			serverURL := fmt.Sprintf("http://localhost:%d", cfg.Port)
			logFile := filepath.Join(cfg.LogDir(), "system.log")
			printBanner(cmd.OutOrStdout(), build.Version, serverURL, logFile)

			if err := runServe(cmd.Context(), cfg); err != nil {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "An error occurred. Please check the logs at: %s\n", logFile)
				return err
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&port, "port", cfg.Port, "HTTP server port (overrides PORT env var)")
	return cmd
}

func runServe(ctx context.Context, cfg *config.AppConfig) error {
	if ctx == nil {
		ctx = context.Background()
	}

	fileLogger, logCloser, err := logger.NewSystemLogger(cfg.LogDir(), cfg.SlogLevel())
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() { _ = logCloser.Close() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	tel, err := telemetry.Setup(ctx, telemetry.Config{
		Enabled:        cfg.OTelEnabled,
		ServiceName:    "mailnotify",
		ServiceVersion: build.Version,
		Endpoint:       cfg.OTelEndpoint,
		Insecure:       cfg.OTelInsecure,
		SampleRatio:    cfg.OTelSampleRatio,
		Registerer:     reg,
	})
	if err != nil {
		fileLogger.Error("failed to set up telemetry", "error", err)
		return fmt.Errorf("setting up telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			fileLogger.Warn("telemetry shutdown", "error", err)
		}
	}()
	sysLogger := tel.Logger(fileLogger)

	sysLogger.Info("mailnotify starting",
		slog.Int("port", cfg.Port),
		slog.String("data_dir", cfg.DataDir),
		slog.String("version", build.Version),
		slog.String("commit", build.CommitSHA),
		slog.String("build_date", build.BuildDate),
	)

	settings := cfg.SMTPSettings()
	if err := settings.Validate(); err != nil {
		sysLogger.Error("invalid SMTP configuration", "error", err)
		return fmt.Errorf("invalid SMTP configuration: %w", err)
	}
	recipients := cfg.Recipients()
	if len(recipients) == 0 {
		sysLogger.Warn("SMTP_RECIPIENTS is empty, stage events will not be mailed")
	}

	db, err := storage.NewSQLiteDB(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("opening delivery log: %w", err)
	}
	defer func() { _ = db.Close() }()
	store := storage.NewSQLiteDeliveryStore(db)

	metrics := notification.NewMetrics(reg)
	stageEvents, err := tel.Meter("github.com/shaharia-lab/mailnotify/cmd").Int64Counter("mailnotify.stage_events",
		metric.WithDescription("Stage events taken off the queue, by state."))
	if err != nil {
		return fmt.Errorf("creating stage event counter: %w", err)
	}

	dispatchers := notification.NewDispatcherCache(
		notification.WithLogger(sysLogger),
		notification.WithMetrics(metrics),
		notification.WithPropertyOverrides(cfg.PropertyOverrides()),
	)
	dispatcher := dispatchers.Get(settings)
	handler := notification.NewHandler(dispatcher, recipients, cfg.NotifyPolicy(), store, sysLogger)

	bus := eventbus.New(cfg.EventWorkers, 0, sysLogger)
	// Queued events are still delivered while shutting down.
	deliverCtx := context.WithoutCancel(ctx)
	bus.Subscribe(func(e eventbus.Event) {
		if e.Type != notification.EventStageStatus {
			return
		}
		stageEvents.Add(deliverCtx, 1, metric.WithAttributes(attribute.String("state", e.Stage.NormalizedState())))
		handler.Handle(deliverCtx, e.ID, e.Stage)
	})
	defer bus.Close()

	retention, err := scheduler.New(scheduler.Config{
		Store:     store,
		Retention: time.Duration(cfg.LogRetentionDays) * 24 * time.Hour,
		Logger:    sysLogger,
	})
	if err != nil {
		return fmt.Errorf("creating retention scheduler: %w", err)
	}
	if err := retention.Start(); err != nil {
		return fmt.Errorf("starting retention scheduler: %w", err)
	}
	defer func() {
		if err := retention.Stop(); err != nil {
			sysLogger.Warn("stopping retention scheduler", "error", err)
		}
	}()

	notificationSvc := service.NewNotificationService(settings, dispatcher, bus, store, cfg.ServerURL, sysLogger)
	apiSrv := api.New(notificationSvc, sysLogger)
	srv := server.New(apiSrv, reg, cfg.Port, sysLogger, server.WithMiddleware(tel.HTTPMiddleware))

	sysLogger.Info("server ready", "url", fmt.Sprintf("http://localhost:%d", cfg.Port), "recipients", len(recipients))
	return srv.Run(ctx)
}
