package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaharia-lab/mailnotify/internal/config"
	"github.com/shaharia-lab/mailnotify/internal/logger"
	"github.com/shaharia-lab/mailnotify/internal/notification"
)

type sendOptions struct {
	to         string
	subject    string
	body       string
	configPath string
	strict     bool
}

// NewSendCmd returns the "send" subcommand that makes one delivery attempt.
func NewSendCmd(cfg *config.AppConfig) *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a single notification mail",
		Long: `Send one plain-text mail using the SMTP settings from the environment
or from a YAML file given with --config. A failed delivery is reported but
only changes the exit code when --strict is set.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.to, "to", "", "Recipient address")
	cmd.Flags().StringVar(&opts.subject, "subject", "", "Mail subject")
	cmd.Flags().StringVar(&opts.body, "body", "", "Plain-text mail body")
	cmd.Flags().StringVar(&opts.configPath, "config", "", "YAML file with smtp settings (overrides SMTP_* env vars)")
	cmd.Flags().BoolVar(&opts.strict, "strict", false, "Exit non-zero when delivery fails")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func runSend(cmd *cobra.Command, cfg *config.AppConfig, opts sendOptions) error {
	settings := cfg.SMTPSettings()
	overrides := cfg.PropertyOverrides()

	if opts.configPath != "" {
		f, err := config.LoadSettingsFile(opts.configPath)
		if err != nil {
			return err
		}
		settings = f.SMTP
		overrides = notification.MergeDefaults(f.Overrides, overrides)
	} else if err := settings.Validate(); err != nil {
		return fmt.Errorf("invalid SMTP configuration: %w", err)
	}

	d := notification.NewDispatcher(settings,
		notification.WithLogger(logger.New(cmd.ErrOrStderr(), cfg.SlogLevel())),
		notification.WithPropertyOverrides(overrides),
	)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	res := d.Send(ctx, opts.subject, opts.body, opts.to)
	printResult(cmd.OutOrStdout(), opts.to, res)

	if opts.strict && !res.OK() {
		return fmt.Errorf("delivery failed: %s", res.Reason)
	}
	return nil
}
