package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/ratelimiter"
	"github.com/dmitrymomot/membership/pkg/secrets"
)

const (
	driverPostgres = "postgres"
	driverMongo    = "mongo"
	driverMemory   = "memory"
	driverRedis    = "redis"

	gatewayArifPay  = "arifpay"
	gatewayPaddle   = "paddle"
	gatewayDisabled = "disabled"
)

var errInvalidConfig = errors.New("membershipd: invalid configuration")

// AppConfig selects the drivers and process-wide settings.
type AppConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Service  string `env:"SERVICE_NAME" envDefault:"membershipd"`
	LogLevel string `env:"LOG_LEVEL"`
	// AppSecret is the root key every signing key is derived from. membershipd keygen prints one.
	AppSecret string `env:"APP_SECRET"`

	StorageDriver string        `env:"STORAGE_DRIVER" envDefault:"postgres"`
	CacheDriver   string        `env:"CACHE_DRIVER" envDefault:"memory"`
	CacheCapacity int           `env:"CACHE_CAPACITY" envDefault:"10000"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"10m"`
	GatewayDriver string        `env:"GATEWAY_DRIVER" envDefault:"arifpay"`

	// WebhookSigned requires an X-Webhook-Signature on inbound notifications. The secret is
	// WebhookSecret, or a key derived from AppSecret when that is empty.
	WebhookSigned bool          `env:"WEBHOOK_SIGNED" envDefault:"false"`
	WebhookSecret string        `env:"WEBHOOK_SECRET"`
	PollInterval  time.Duration `env:"PAYMENT_POLL_INTERVAL" envDefault:"3s"`

	// AdminToken guards /internal/v1, which grants tiers and credits without payment.
	// The routes are not mounted when it is empty.
	AdminToken string `env:"ADMIN_TOKEN"`

	CheckoutRate ratelimiter.Config
}

func (c AppConfig) Validate() error {
	if err := secrets.ValidateKey([]byte(c.AppSecret)); err != nil {
		return fmt.Errorf("%w: APP_SECRET: %w", errInvalidConfig, err)
	}
	if !slices.Contains([]string{driverPostgres, driverMongo, driverMemory}, c.StorageDriver) {
		return fmt.Errorf("%w: STORAGE_DRIVER must be postgres, mongo or memory, got %q", errInvalidConfig, c.StorageDriver)
	}
	if !slices.Contains([]string{driverRedis, driverMemory}, c.CacheDriver) {
		return fmt.Errorf("%w: CACHE_DRIVER must be redis or memory, got %q", errInvalidConfig, c.CacheDriver)
	}
	if !slices.Contains([]string{gatewayArifPay, gatewayPaddle, gatewayDisabled}, c.GatewayDriver) {
		return fmt.Errorf("%w: GATEWAY_DRIVER must be arifpay, paddle or disabled, got %q", errInvalidConfig, c.GatewayDriver)
	}
	if c.CacheCapacity <= 0 {
		return fmt.Errorf("%w: CACHE_CAPACITY must be positive", errInvalidConfig)
	}
	if c.AdminToken != "" && len(c.AdminToken) < secrets.KeySize {
		return fmt.Errorf("%w: ADMIN_TOKEN must be at least %d characters", errInvalidConfig, secrets.KeySize)
	}
	if err := c.CheckoutRate.Validate(); err != nil {
		return fmt.Errorf("%w: CHECKOUT_RATE_*: %w", errInvalidConfig, err)
	}
	if c.LogLevel != "" {
		if _, err := logger.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("%w: LOG_LEVEL: %w", errInvalidConfig, err)
		}
	}
	return nil
}

// webhookKey returns the inbound notification secret, or nil when signatures are off.
func (c AppConfig) webhookKey() ([]byte, error) {
	if !c.WebhookSigned {
		return nil, nil
	}
	if c.WebhookSecret != "" {
		return []byte(c.WebhookSecret), nil
	}
	derived, err := derivedWebhookSecret(c.AppSecret)
	if err != nil {
		return nil, err
	}
	return []byte(derived), nil
}

// derivedWebhookSecret is the hex form handed to the gateway operator by keygen --webhook.
func derivedWebhookSecret(appSecret string) (string, error) {
	key, err := secrets.DeriveKey([]byte(appSecret), secrets.PurposeWebhook)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
