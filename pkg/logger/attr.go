package logger

import (
	"log/slog"
	"time"
)

// Error records err under "error". A nil error yields an empty Attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func UserID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("user_id", id)
}

func SessionID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("session_id", id)
}

func RequestID(id string) slog.Attr {
	if id == "" {
		return slog.Attr{}
	}
	return slog.String("request_id", id)
}

// Tier records a membership tier name.
func Tier(name string) slog.Attr {
	return slog.String("tier", name)
}

// Status records a payment or gateway status.
func Status(status string) slog.Attr {
	return slog.String("status", status)
}

// Source records where a membership record was resolved from.
func Source(source string) slog.Attr {
	return slog.String("source", source)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
