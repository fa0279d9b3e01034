// Package log provides revent's structured logging facade.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Internally it is backed by the standard
// library slog via a bridge handler that feeds a formatter/outputs pipeline,
// so output stays consistent across the codebase while remaining compatible
// with the slog ecosystem.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.DebugLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("registry"))
//	l.Debug("registry.update", log.Int("changed", 3))
//
// To integrate libraries that write through the standard library logger
// (Pebble does), use RedirectStdLog.
package log
