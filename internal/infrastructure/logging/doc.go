// Package logging provides structured logging for parkrunner.
//
// This package wraps Go's standard log/slog package so every component
// logs the same way: key/value pairs, a service and version field on every
// record, and a component field added with Component.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, file
//	  file: "./logs/parkrunner.log"
//
// Per-cycle control loop detail (steering samples, sonar readings) is
// logged at debug; actions and events at info.
//
// # Usage
//
//	logger, err := logging.New(cfg.Logging, version)
//	if err != nil { ... }
//	defer logger.Close()
//	logger.Component("planner").Info("route planned", "cost", 42.0)
package logging
