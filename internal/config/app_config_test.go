package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"upper case", "DEBUG", slog.LevelDebug},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_Paths(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}
	assert.Equal(t, "/data/logs", c.LogDir())
	assert.Equal(t, "/data/mailnotify.db", c.DBPath())
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"SMTP_HOST", "SMTP_PORT", "SMTP_USERNAME", "SMTP_PASSWORD", "SMTP_FROM", "SMTP_TLS",
		"SMTP_RECIPIENTS", "MAIL_SMTP_CONNECTIONTIMEOUT", "MAIL_SMTP_TIMEOUT", "NOTIFY_ON",
		"SERVER_URL", "PORT", "MAILNOTIFY_DATA_DIR", "LOG_LEVEL", "LOG_RETENTION_DAYS", "EVENT_WORKERS",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_TRACES_SAMPLE_RATIO",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	clearEnv(t)
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "587")
	t.Setenv("SMTP_USERNAME", "bot")
	t.Setenv("SMTP_PASSWORD", "secret")
	t.Setenv("SMTP_FROM", "ci@example.com")
	t.Setenv("SMTP_TLS", "true")
	t.Setenv("SMTP_RECIPIENTS", "dev@example.com, ops@example.com ,")
	t.Setenv("MAILNOTIFY_DATA_DIR", "/tmp/test-mailnotify")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, notification.Settings{
		Host:     "smtp.example.com",
		Port:     587,
		Username: "bot",
		Password: "secret",
		FromAddr: "ci@example.com",
		TLS:      true,
	}, cfg.SMTPSettings())
	assert.Equal(t, []string{"dev@example.com", "ops@example.com"}, cfg.Recipients())
	assert.Equal(t, "/tmp/test-mailnotify", cfg.DataDir)
	assert.Equal(t, 8991, cfg.Port)
	assert.False(t, cfg.OTelEnabled)
	assert.Equal(t, "localhost:4317", cfg.OTelEndpoint)
	assert.True(t, cfg.OTelInsecure)
	assert.InDelta(t, 1.0, cfg.OTelSampleRatio, 1e-9)
	assert.Equal(t, 30, cfg.LogRetentionDays)
	assert.Empty(t, cfg.PropertyOverrides())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.SMTPPort)
	assert.False(t, cfg.SMTPTLS)
	assert.Equal(t, filepath.Join(home, ".mailnotify"), cfg.DataDir)
	assert.Equal(t, notification.DefaultNotifyPolicy(), cfg.NotifyPolicy())
}

func TestLoad_TimeoutOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILNOTIFY_DATA_DIR", t.TempDir())
	t.Setenv("MAIL_SMTP_CONNECTIONTIMEOUT", "5000")

	cfg, err := Load()
	require.NoError(t, err)

	overrides := cfg.PropertyOverrides()
	assert.Equal(t, notification.Properties{notification.PropConnectionTimeout: "5000"}, overrides)

	props := notification.BuildProperties(cfg.SMTPSettings(), overrides)
	assert.Equal(t, "5000", props[notification.PropConnectionTimeout])
	assert.Equal(t, "60000", props[notification.PropTimeout])
}

func TestLoad_InvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("MAILNOTIFY_DATA_DIR", t.TempDir())
	t.Setenv("MAIL_SMTP_TIMEOUT", "soon")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_SMTP_TIMEOUT")
}

func TestNotifyPolicy_FromEnv(t *testing.T) {
	c := &AppConfig{NotifyOn: "failed, cancelled"}
	p := c.NotifyPolicy()
	assert.True(t, p.Allows(notification.StageEvent{State: "Failed"}))
	assert.False(t, p.Allows(notification.StageEvent{State: "Passed"}))
}
