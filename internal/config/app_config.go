package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kelseyhightower/envconfig"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	SMTPHost     string `envconfig:"SMTP_HOST"`
	SMTPPort     int    `envconfig:"SMTP_PORT" default:"25"`
	SMTPUsername string `envconfig:"SMTP_USERNAME"`
	SMTPPassword string `envconfig:"SMTP_PASSWORD"`
	SMTPFrom     string `envconfig:"SMTP_FROM"`
	SMTPTLS      bool   `envconfig:"SMTP_TLS" default:"false"`

	// SMTPRecipients is a comma separated list of addresses that receive stage notifications.
	SMTPRecipients string `envconfig:"SMTP_RECIPIENTS"`

	// ConnectionTimeout and Timeout are operator overrides in milliseconds.
	// When empty the dispatcher's built-in 60000 ms default applies; 0 means
	// no timeout.
	ConnectionTimeout string `envconfig:"MAIL_SMTP_CONNECTIONTIMEOUT"`
	Timeout           string `envconfig:"MAIL_SMTP_TIMEOUT"`

	// NotifyOn lists the stage states that produce mail.
	NotifyOn string `envconfig:"NOTIFY_ON" default:"Passed,Failed,Cancelled"`

	// ServerURL is the CI server base URL used for links in mail bodies.
	ServerURL string `envconfig:"SERVER_URL"`

	// Port is the HTTP server port. Defaults to 8991.
	Port int `envconfig:"PORT" default:"8991"`

	// DataDir is the root data directory. Defaults to ~/.mailnotify.
	DataDir string `envconfig:"MAILNOTIFY_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, warn, error). Defaults to info.
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	LogRetentionDays int `envconfig:"LOG_RETENTION_DAYS" default:"30"`
	EventWorkers     int `envconfig:"EVENT_WORKERS" default:"3"`

	// OpenTelemetry export of traces and logs over OTLP gRPC. Metrics are
	// always served on /metrics.
	OTelEnabled     bool    `envconfig:"OTEL_ENABLED" default:"false"`
	OTelEndpoint    string  `envconfig:"OTEL_EXPORTER_OTLP_ENDPOINT" default:"localhost:4317"`
	OTelInsecure    bool    `envconfig:"OTEL_EXPORTER_OTLP_INSECURE" default:"true"`
	OTelSampleRatio float64 `envconfig:"OTEL_TRACES_SAMPLE_RATIO" default:"1"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.mailnotify if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".mailnotify")
	}
	for name, v := range map[string]string{
		"MAIL_SMTP_CONNECTIONTIMEOUT": c.ConnectionTimeout,
		"MAIL_SMTP_TIMEOUT":           c.Timeout,
	} {
		if v == "" {
			continue
		}
		if ms, err := strconv.Atoi(strings.TrimSpace(v)); err != nil || ms < 0 {
			return nil, fmt.Errorf("loading config: %s must be a non-negative number of milliseconds, got %q", name, v)
		}
	}
	return &c, nil
}

// SMTPSettings returns the dispatcher settings described by the environment.
func (c *AppConfig) SMTPSettings() notification.Settings {
	return notification.Settings{
		Host:     c.SMTPHost,
		Port:     c.SMTPPort,
		Username: c.SMTPUsername,
		Password: c.SMTPPassword,
		FromAddr: c.SMTPFrom,
		TLS:      c.SMTPTLS,
	}
}

// PropertyOverrides returns the operator-level timeout overrides that are set.
func (c *AppConfig) PropertyOverrides() notification.Properties {
	p := notification.Properties{}
	if v := strings.TrimSpace(c.ConnectionTimeout); v != "" {
		p[notification.PropConnectionTimeout] = v
	}
	if v := strings.TrimSpace(c.Timeout); v != "" {
		p[notification.PropTimeout] = v
	}
	return p
}

// Recipients returns the configured notification recipients.
func (c *AppConfig) Recipients() []string {
	return notification.ParseRecipients(c.SMTPRecipients)
}

// NotifyPolicy returns the stage states that produce mail.
func (c *AppConfig) NotifyPolicy() notification.NotifyPolicy {
	var states []string
	for _, s := range strings.Split(c.NotifyOn, ",") {
		if s = strings.TrimSpace(s); s != "" {
			states = append(states, s)
		}
	}
	if len(states) == 0 {
		return notification.DefaultNotifyPolicy()
	}
	return notification.NotifyPolicy{States: states}
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogDir returns the path to the log directory.
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// DBPath returns the path to the delivery log database.
func (c *AppConfig) DBPath() string {
	return filepath.Join(c.DataDir, "mailnotify.db")
}
