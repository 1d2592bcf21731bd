// Package config holds the tunables for running the piece-storage
// subsystem as a standalone process.
package config

import "time"

// Config for the Writer Process and its surrounding pipeline.
type Config struct {
	// RootDir is the directory scratch and final files are placed under.
	RootDir string
	// BatchConcurrency bounds how many pieces a single writeBatch call
	// writes to disk concurrently before running its merge check.
	BatchConcurrency int
	// MergeRetryInterval is how often the Writer Process re-runs its
	// BufferWritten handling on an internal ticker, so that merges blocked
	// on a missing dep get re-checked even with no new pieces arriving. A
	// zero or negative value disables the ticker.
	MergeRetryInterval time.Duration
	// LogLevel is one of "debug", "info", "notice", "warning", "error",
	// "critical".
	LogLevel string
}

// DefaultConfig is used when no configuration is supplied.
var DefaultConfig = Config{
	RootDir:            "./downloads",
	BatchConcurrency:   4,
	MergeRetryInterval: 5 * time.Second,
	LogLevel:           "info",
}
