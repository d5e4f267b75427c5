// Package logging assembles structured slog loggers for kaldiark commands.
//
// It owns the console and JSON handlers, maps config levels and formats onto
// slog, and exposes helpers for component-scoped loggers and run-scoped
// context fields. Output goes to stderr so command results on stdout stay
// machine-readable. A no-op logger is provided for tests and library calls
// that were not handed one.
package logging
