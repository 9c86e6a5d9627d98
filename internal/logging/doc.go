// Package logging builds the slog loggers used across docbind.
package logging
