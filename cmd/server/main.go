// Package main provides the entry point for the gateway server. It accepts
// chat-completion requests in the OpenAI Responses, Google ADK, and OpenAI
// Assistants wire protocols and forwards them to one configured chat-model
// backend.
package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"github.com/modelrelay/modelrelay/internal/api"
	"github.com/modelrelay/modelrelay/internal/config"
	"github.com/modelrelay/modelrelay/internal/gateway"
	"github.com/modelrelay/modelrelay/internal/logging"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func init() {
	logging.SetupBaseLogger()
}

func main() {
	var configPath string
	var host string
	var port int
	flag.StringVar(&configPath, "config", "config.yaml", "path to the configuration file")
	flag.StringVar(&host, "host", "", "listen address override")
	flag.IntVar(&port, "port", 0, "listen port override")
	flag.Parse()

	// A missing .env file is fine; environment stays as-is.
	_ = godotenv.Load()

	log.WithFields(log.Fields{"version": Version, "commit": Commit, "built": BuildDate}).Info("starting gateway")

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.WithError(err).Fatal("failed to load configuration")
		}
		log.WithField("path", configPath).Warn("config file not found, using defaults")
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	if host != "" {
		cfg.Host = host
	}
	if port > 0 {
		cfg.Port = port
	}
	if envKey := os.Getenv("UPSTREAM_API_KEY"); envKey != "" {
		cfg.Upstream.APIKey = envKey
	}

	logging.SetLogLevel(cfg.LoggingLevel)
	if err = logging.ConfigureLogOutput(cfg.LoggingToFile, cfg.LogDir); err != nil {
		log.WithError(err).Fatal("failed to configure log output")
	}

	if cfg.Upstream.BaseURL == "" {
		log.Fatal("upstream.base-url must be configured")
	}
	invoker := gateway.NewOpenAIInvoker(cfg.Upstream.BaseURL, cfg.Upstream.APIKey, time.Duration(cfg.Upstream.TimeoutSeconds)*time.Second)
	resolver := gateway.NewStaticResolver(cfg.Upstream.Models)
	if len(cfg.Upstream.Models) == 0 {
		log.Warn("no upstream models configured, model-dependent endpoints will report unavailable")
	}

	server := api.New(cfg, invoker, resolver)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if errWatch := config.Watch(ctx, configPath, func(updated *config.Config) {
			server.UpdateConfig(updated)
		}); errWatch != nil {
			log.WithError(errWatch).Warn("config watcher stopped")
		}
	}()

	go func() {
		if errServe := server.Start(); errServe != nil {
			log.WithError(errServe).Fatal("server stopped unexpectedly")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err = server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
}
