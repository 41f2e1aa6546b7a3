package payment

import (
	"log/slog"
	"time"
)

// ServiceOption configures the payment service.
type ServiceOption func(*service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNotifier sets who is told about payments this process completed.
func WithNotifier(n Notifier) ServiceOption {
	return func(s *service) {
		if n != nil {
			s.notifier = n
		}
	}
}

func WithRecorder(r Recorder) ServiceOption {
	return func(s *service) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides how nonce references are generated.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *service) {
		if fn != nil {
			s.newID = fn
		}
	}
}
