package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/shaharia-lab/mailnotify/internal/notification"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	okStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	failStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// printBanner writes the startup banner. It is the only terminal output
// during normal operation; structured logs go to the log file.
func printBanner(w io.Writer, version, serverURL, logFile string) {
	_, _ = fmt.Fprintln(w, titleStyle.Render("mailnotify "+version))
	_, _ = fmt.Fprintf(w, "Listening on %s\n", serverURL)
	_, _ = fmt.Fprintf(w, "  POST %s/api/events/stage\n", serverURL)
	_, _ = fmt.Fprintf(w, "  GET  %s/api/deliveries\n", serverURL)
	_, _ = fmt.Fprintf(w, "  GET  %s/health\n", serverURL)
	_, _ = fmt.Fprintf(w, "  GET  %s/metrics\n", serverURL)
	_, _ = fmt.Fprintln(w, dimStyle.Render("Logs: "+logFile))
	_, _ = fmt.Fprintln(w)
}

// printResult reports the outcome of a single send.
func printResult(w io.Writer, recipient string, res notification.Result) {
	if res.OK() {
		_, _ = fmt.Fprintf(w, "%s mail to %s\n", okStyle.Render("sent"), recipient)
	} else {
		_, _ = fmt.Fprintf(w, "%s mail to %s (%s): %v\n", failStyle.Render("failed"), recipient, res.Reason, res.Err)
	}
	if res.CloseErr != nil {
		_, _ = fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("warning: closing the connection failed: %v", res.CloseErr)))
	}
}
