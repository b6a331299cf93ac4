// Package logging provides structured logging built on log/slog.
//
// Every component receives a *Logger (or a derived child via With) so log
// lines share the service/version default fields and honour the configured
// level, format and destination.
package logging
