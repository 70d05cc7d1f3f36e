// Package main provides the entry point for the Tabsverse server application.
package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/tabsverse/tabsverse-server/internal/di"
	"github.com/tabsverse/tabsverse-server/internal/di/providers"
	"github.com/tabsverse/tabsverse-server/internal/logger"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap server: %v\n", err)
		os.Exit(1)
	}

	// Get logger for shutdown messages
	log := do.MustInvoke[*logger.Logger](injector)

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	// Stop accepting requests before the stores they use are closed.
	if httpHandle, err := do.Invoke[*providers.HTTPServerHandle](injector); err == nil {
		if err := httpHandle.Shutdown(); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
	}

	// The container shuts down the remaining Shutdownable handles.
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	log.Info("Goodbye")
}
