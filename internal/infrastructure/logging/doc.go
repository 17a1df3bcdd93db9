// Package logging provides structured logging for settingsd.
//
// This package wraps Go's standard log/slog package so the store, the
// history recorder and the change feeds all emit entries with the same
// default fields (service, version) and the same level filtering.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	store.SetLogger(logger.Component("settings"))
//
// Never log broker passwords or InfluxDB tokens.
package logging
