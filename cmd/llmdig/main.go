// Command llmdig runs the DNS-to-LLM bridge server: a UDP DNS server that
// answers TXT queries by forwarding the encoded question to an LLM backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/llmdig/llmdig/internal/api"
	"github.com/llmdig/llmdig/internal/config"
	"github.com/llmdig/llmdig/internal/logging"
	"github.com/llmdig/llmdig/internal/server"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// cliFlags holds parsed command-line flag values.
type cliFlags struct {
	configPath string
	logLevel   string
	port       int
	host       string
}

func parseFlags() cliFlags {
	var f cliFlags
	flag.StringVar(&f.configPath, "config", "config.toml", "Path to TOML configuration file")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.IntVar(&f.port, "port", 0, "Override DNS server bind port")
	flag.StringVar(&f.host, "host", "", "Override DNS server bind host")
	flag.Parse()
	return f
}

// applyCLIOverrides applies command-line overrides to the config.
func applyCLIOverrides(cfg *config.Config, f cliFlags) {
	if f.logLevel != "" {
		cfg.Logging.Level = f.logLevel
	}
	if f.port != 0 {
		cfg.Server.Port = f.port
	}
	if f.host != "" {
		cfg.Server.Host = f.host
	}
}

func run() error {
	flags := parseFlags()

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyCLIOverrides(cfg, flags)

	logger := logging.Configure(logging.Config{
		Level:            cfg.Logging.Level,
		Structured:       cfg.Logging.Structured,
		StructuredFormat: cfg.Logging.StructuredFormat,
	})
	logger.Info("LLMdig starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"backend", cfg.LLM.Backend,
		"model", cfg.LLM.Model,
	)

	runner, err := server.New(cfg, logger)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var apiSrv *api.Server
	if cfg.API.Enabled {
		apiSrv = api.New(cfg, logger)
		apiSrv.Handler().SetDNSStatsFunc(runner.Stats().Snapshot)
		apiSrv.Handler().SetCacheStatsFunc(runner.CacheSnapshot)
		logger.Info("management api starting", "addr", apiSrv.Addr())

		go func() {
			serveErr := apiSrv.ListenAndServe()
			if serveErr == nil || errors.Is(serveErr, http.ErrServerClosed) {
				return
			}
			logger.Error("management api error", "err", serveErr)
			cancel()
		}()
	}

	err = runner.Run(ctx)

	if apiSrv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = apiSrv.Shutdown(shutdownCtx)
		shutdownCancel()
	}

	if err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info("LLMdig stopped")
	return nil
}
