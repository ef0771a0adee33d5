// Package logger provides structured logging for toolflow using zerolog.
//
// Loggers are plain values passed to the pipeline, tool registry and event
// bus at construction time. A process-wide default exists for convenience
// but nothing in toolflow requires it.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.New(&cfg, "toolflow").WithComponent("workflow")
//	log.Info("step completed", logger.Fields(logger.FieldStep, "lint"))
package logger
