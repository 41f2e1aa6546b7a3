package httpserver

import (
	"errors"
	"time"
)

type Config struct {
	Addr              string        `env:"HTTP_ADDR" envDefault:":8080"`             // Addr is the address the server listens on.
	ReadHeaderTimeout time.Duration `env:"HTTP_READ_HEADER_TIMEOUT" envDefault:"5s"` // ReadHeaderTimeout bounds reading request headers.
	ReadTimeout       time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`       // ReadTimeout bounds reading the entire request.
	WriteTimeout      time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"0s"`       // WriteTimeout is zero by default so status streams are not cut off.
	IdleTimeout       time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`      // IdleTimeout is the keep-alive idle limit.
	ShutdownTimeout   time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"`   // ShutdownTimeout is the time allowed for in-flight requests to finish.
	ReadinessTimeout  time.Duration `env:"HTTP_READINESS_TIMEOUT" envDefault:"2s"`   // ReadinessTimeout bounds every readiness check.
}

func (c Config) Validate() error {
	if c.Addr == "" {
		return errors.Join(ErrInvalidConfig, errors.New("HTTP_ADDR is empty"))
	}
	if c.ShutdownTimeout <= 0 {
		return errors.Join(ErrInvalidConfig, errors.New("HTTP_SHUTDOWN_TIMEOUT must be positive"))
	}
	return nil
}
