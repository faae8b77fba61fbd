package main

import (
	"context"
	"os"

	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version set via ldflags during build
var version = "dev"

func main() {
	// Ensure logger is closed on exit
	defer func() { _ = logger.Close() }()

	if err := fang.Execute(context.Background(), rootCmd, fang.WithVersion(version)); err != nil {
		logger.Error("Command execution failed: %v", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "frenzy",
	Short: "Plugin-hosting chat bot with an embedded event bus",
	Long: `frenzy is a chat-bot backend that hosts plugins behind a webhook
ingress. Inbound platform events flow through an embedded NATS JetStream
event log to each plugin's interaction router; plugins drive modal
wizards whose state rides in the view metadata.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(setupCmd)
	rootCmd.AddCommand(doctorCmd)
}
