// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (SBC images running journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",
//		Format: "text",
//		Modules: map[string]string{
//			"loop":   "debug",
//			"router": "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("animation")
//	logger.Warn("Frame write failed", "error", err)
//
// Levels can be changed without restarting (the config watcher does this):
//
//	logging.SetLevels("info", map[string]string{"transport": "debug"})
//
// # Viewing Logs
//
//	journalctl -t stripnode -f
//	journalctl -t stripnode MODULE=router
package logging
