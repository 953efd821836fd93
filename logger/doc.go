// Package logger is a thin layer over zerolog taking fields as maps.
//
// Output is JSON or a compact console format:
//
//	logging:
//	  level: debug
//	  format: json
//
// Packages log through a component logger. Get returns the one registered
// under the name, which tests use to capture output:
//
//	log := logger.Get("scheduler").WithContext(ctx)
//	log.Info("schedule computed", logger.Fields("steps", 25, "memory", 11264))
package logger
