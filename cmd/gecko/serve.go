package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/evdanil/gecko/internal/catalog"
	"github.com/evdanil/gecko/internal/editorsvc"
	"github.com/evdanil/gecko/internal/gkconfig"
	"github.com/evdanil/gecko/internal/obslog"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the editor-integration daemon (HTTP + WebSocket scan API)",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := gkconfig.Load(cfgFile)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := obslog.New(obslog.Config(cfg.Log))

	var manifests []catalog.Manifest
	for _, p := range cfg.RuleSet.Paths {
		ms, err := catalog.LoadDir(p)
		if err != nil {
			return fmt.Errorf("load rule manifests from %s: %w", p, err)
		}
		manifests = append(manifests, ms...)
	}
	ruleSet, err := catalog.Build(manifests)
	if err != nil {
		return fmt.Errorf("build rule catalog: %w", err)
	}
	logger.Info("loaded rule catalog", "rules", len(ruleSet), "paths", cfg.RuleSet.Paths)

	svc, err := editorsvc.NewServer(editorsvc.Config{
		Logger:          logger,
		RuleSet:         ruleSet,
		ForestCacheSize: cfg.Server.ForestCacheSize,
		RescanRate:      cfg.Server.RescanRatePerSecond,
		RescanBurst:     cfg.Server.RescanBurst,
		MetricsEnabled:  cfg.Metrics.Enabled,
		MetricsPath:     cfg.Metrics.Path,
	})
	if err != nil {
		return fmt.Errorf("construct editor service: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      svc.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("editor service listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("editor service stopped: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down editor service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	logger.Info("editor service exited")
	return nil
}
