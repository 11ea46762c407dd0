// Command console is a terminal dashboard for operators: it lists devices
// with their liveness and queues commands for them.
package main

import (
	"fmt"
	"os"

	"fleetpulse/cmd/console/ui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
)

func main() {
	server := pflag.String("server", envOr("FLEETPULSE_SERVER", "http://127.0.0.1:8080"), "fleetpulse server URL")
	token := pflag.String("token", os.Getenv("FLEETPULSE_TOKEN"), "bearer token; skips the login screen")
	pflag.Parse()

	p := tea.NewProgram(ui.NewRootModel(ui.NewSession(*server, *token)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "console:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
