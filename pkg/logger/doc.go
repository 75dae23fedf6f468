// Package logger provides a small leveled, structured logger.
//
// Messages carry key/value fields:
//
//	log := logger.NewLogger(logger.LevelDebug, os.Stderr)
//	log.Debug("evaluating project", logger.F("path", path), logger.F("target", "net8.0"))
//
// Libraries in this module accept a Logger and default to NewSilentLogger,
// so nothing is printed unless the caller opts in.
package logger
