// Package logger provides the structured logging interface used across tweetsweep.
//
// It wraps zerolog behind a small Logger interface with field chaining, a
// global instance for the CLI, and capture/no-op implementations for tests.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	log := logger.GetLogger().WithField("kind", "liked")
//	log.WithField("id", item.ID).Info("Item archived")
//	log.WithError(err).Error("Destroy failed")
//
// Testing:
//
//	tl := logger.NewTestLogger()
//	component := New(..., tl)
//	assert.True(t, tl.HasMessage("Item archived"))
package logger
