package logger

import (
	"log/slog"
	"time"
)

// LogEconomy logs an economy operation.
func LogEconomy(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "econ")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogQuery logs database operations.
func LogQuery(query string, duration time.Duration, err error, attrs ...any) {
	base := []any{
		slog.String("type", "db"),
		slog.String("query", query),
		slog.Duration("took", duration),
	}
	base = append(base, attrs...)

	if err != nil {
		slog.Error("Query failed", append(base, slog.Any("error", err))...)
	} else {
		slog.Info("Query executed", base...)
	}
}

// LogSystem logs system events.
func LogSystem(msg string, attrs ...any) {
	baseAttrs := []any{slog.String("type", "sys")}
	slog.Info(msg, append(baseAttrs, attrs...)...)
}

// LogError logs error events.
func LogError(msg string, err error, attrs ...any) {
	baseAttrs := []any{
		slog.String("type", "error"),
		slog.Any("error", err),
	}
	slog.Error(msg, append(baseAttrs, attrs...)...)
}
