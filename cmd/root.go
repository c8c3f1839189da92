package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/shaharia-lab/mailnotify/internal/config"
)

// NewRootCmd returns the mailnotify root command with all subcommands attached.
func NewRootCmd(cfg *config.AppConfig) *cobra.Command {
	var noColor bool

	root := &cobra.Command{
		Use:   "mailnotify",
		Short: "Build-stage email notifications over SMTP",
		Long: `mailnotify turns CI stage status changes into email. It can send a
single message from the command line or run an HTTP intake that queues
stage events and mails every configured recipient.`,
		SilenceUsage: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if noColor {
				lipgloss.SetColorProfile(termenv.Ascii)
			}
		},
	}
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored terminal output")

	root.AddCommand(NewSendCmd(cfg))
	root.AddCommand(NewServeCmd(cfg))
	root.AddCommand(NewVersionCmd())
	return root
}

// Execute loads the environment configuration and runs the root command.
func Execute() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := NewRootCmd(cfg).ExecuteContext(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
