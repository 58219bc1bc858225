// Package logger provides structured logging for tpcgraph using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. The node engine only
// depends on a small leveled interface, which *Logger satisfies; Capture
// satisfies it too and keeps entries in memory for tests.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.GetGlobalLogger().WithNode("source")
//	log.Info("node starting", logger.Fields(logger.FieldCPU, 2))
package logger
