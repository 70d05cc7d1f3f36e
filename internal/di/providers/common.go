package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// orphanSweepInterval is how often the background job rescans cover storage.
	orphanSweepInterval = 24 * time.Hour
)
