// Package logging assembles structured slog loggers used across videolens.
//
// It owns the console (plain or colour) and JSON handlers, keeps console
// output on stderr so results written to stdout stay clean, and exposes
// context-aware helpers that tag lines with correlation IDs and stages. A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
