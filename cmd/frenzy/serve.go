package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Stage2Sec/frenzy/internal/bus"
	"github.com/Stage2Sec/frenzy/internal/chat"
	"github.com/Stage2Sec/frenzy/internal/config"
	"github.com/Stage2Sec/frenzy/internal/example"
	"github.com/Stage2Sec/frenzy/internal/logger"
	"github.com/Stage2Sec/frenzy/internal/npk"
	"github.com/Stage2Sec/frenzy/internal/plugin"
	"github.com/Stage2Sec/frenzy/internal/server"
	"github.com/spf13/cobra"
)

var serveFlags struct {
	port    int
	dataDir string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bot: webhook ingress, event bus, and plugins",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&serveFlags.port, "port", "p", 0, "Webhook listen port (overrides config)")
	serveCmd.Flags().StringVar(&serveFlags.dataDir, "data-dir", "", "Data directory for the event log (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if serveFlags.port != 0 {
		cfg.Port = serveFlags.port
	}
	if serveFlags.dataDir != "" {
		cfg.DataDir = serveFlags.dataDir
	}
	if cfg.SlackToken == "" {
		return fmt.Errorf("no slack token configured, set FRENZY_SLACK_TOKEN or run 'frenzy setup'")
	}

	applyLogConfig(cfg)

	ctx := cmd.Context()

	// Event bus
	ns, err := bus.StartEmbedded(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("starting event bus: %w", err)
	}
	nc, err := bus.ConnectInProcess(ns)
	if err != nil {
		ns.Shutdown()
		return fmt.Errorf("connecting to event bus: %w", err)
	}
	defer func() {
		if err := bus.Shutdown(nc, ns); err != nil {
			logger.Error("Event bus shutdown failed: %v", err)
		}
	}()

	js, err := bus.NewJetStream(nc)
	if err != nil {
		return fmt.Errorf("creating jetstream context: %w", err)
	}
	if _, err := bus.SetupStream(ctx, js); err != nil {
		return fmt.Errorf("setting up event stream: %w", err)
	}

	// Plugins
	client := chat.NewWebAPIClient(cfg.SlackToken)
	host := plugin.NewHost(nc, js, client)
	defer host.Close()

	if npkPlugin, err := npk.New(ctx, cfg); err != nil {
		logger.Error("Skipping npk plugin: %v", err)
	} else if err := host.Load(ctx, npkPlugin); err == nil {
		defer npkPlugin.Shutdown()
	}
	if err := host.Load(ctx, example.New()); err != nil {
		logger.Warn("Skipping example plugin: %v", err)
	}

	// Ingress
	srv := server.New(cfg.Port, host)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received %s, shutting down", sig)
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ingress failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ingress shutdown failed: %v", err)
	}
	return nil
}

// applyLogConfig layers the config file's log settings over the
// env-initialized defaults.
func applyLogConfig(cfg *config.Config) {
	if cfg.LogLevel != "" {
		if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
			logger.Default.SetLevel(level)
		}
	}
	if cfg.LogFile != "" && os.Getenv("FRENZY_LOG_FILE") == "" {
		if f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644); err == nil {
			logger.Default.SetOutput(f)
		}
	}
}
