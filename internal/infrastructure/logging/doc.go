// Package logging provides structured logging using uber/zap.
//
// Two modes:
//   - Production: JSON output for machine parsing
//   - Development: colored console output, debug level
//
// Engine components receive a named *zap.Logger (Component) and never
// construct their own; a nil logger is replaced with a no-op one (OrNop).
//
// Example Usage:
//
//	logger := logging.NewFromLevel(cfg.Logging.Level, cfg.Logging.Development)
//	resolver := module.NewResolver(registry, logger.Component("resolver"))
//	logger.Info("Server starting", zap.String("port", "8000"))
package logging
