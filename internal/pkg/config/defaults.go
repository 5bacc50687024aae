package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultServerHost             = "0.0.0.0"
	DefaultServerPort             = 8080
	DefaultShutdownTimeoutSeconds = 15
	DefaultMaxUploadSizeMB        = 10
	DefaultCleanupInterval        = 1 * time.Hour
	DefaultTaskTTL                = 24 * time.Hour

	// Processing defaults
	DefaultTaskTimeoutSeconds = 600
	DefaultCacheTTLMinutes    = 60

	// Analysis defaults
	DefaultAnalysisMaxRetries              = 3
	DefaultAnalysisOperationTimeoutSeconds = 60
	DefaultAnalysisRetryPauseSeconds       = 1

	// Logging defaults
	DefaultLogLevel = "info"
)
