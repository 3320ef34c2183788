// Package logger provides structured logging for steady services using
// zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("cache")
//	log.Info("entry evicted", logger.Fields("key", key))
package logger
