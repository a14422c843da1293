// Package logging provides structured logging for Gray Logic Audio.
//
// It wraps log/slog so every component logs the same way: JSON in
// production, text on a developer's terminal, and a fixed pair of default
// fields (service, version) on every entry.
//
// Logging is configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Components receive a child logger tagged with their name:
//
//	logger := logging.New(cfg.Logging, version)
//	discoveryLog := logger.Component("discovery")
//	discoveryLog.Info("speaker found", "name", dev.Name, "uuid", dev.UUID)
//
// Never log MQTT passwords or InfluxDB tokens.
package logging
