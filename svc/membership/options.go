package membership

import (
	"log/slog"
	"time"
)

// ServiceOption configures the membership service.
type ServiceOption func(*service)

func WithLogger(l *slog.Logger) ServiceOption {
	return func(s *service) {
		if l != nil {
			s.log = l
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

// WithLocation sets the time zone whose calendar days and months drive the rollovers.
func WithLocation(loc *time.Location) ServiceOption {
	return func(s *service) {
		if loc != nil {
			s.loc = loc
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
