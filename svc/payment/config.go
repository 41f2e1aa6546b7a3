package payment

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds checkout settings loaded from the environment.
type Config struct {
	Currency    string `env:"PAYMENT_CURRENCY" envDefault:"ETB"`
	CountryCode string `env:"PAYMENT_COUNTRY_CODE" envDefault:"251"`
	// RequirePhone rejects checkouts without a phone number; mobile-money gateways need one.
	RequirePhone bool   `env:"PAYMENT_REQUIRE_PHONE" envDefault:"true"`
	SuccessURL   string `env:"PAYMENT_SUCCESS_URL" envDefault:"http://localhost:8080/payments/return"`
	CancelURL    string `env:"PAYMENT_CANCEL_URL" envDefault:"http://localhost:8080/payments/return?cancelled=1"`
	ErrorURL     string `env:"PAYMENT_ERROR_URL"`
	NotifyURL    string `env:"PAYMENT_NOTIFY_URL" envDefault:"http://localhost:8080/webhooks/payments"`

	BeneficiaryAccount string `env:"PAYMENT_BENEFICIARY_ACCOUNT"`
	BeneficiaryBank    string `env:"PAYMENT_BENEFICIARY_BANK"`

	SessionTTL time.Duration `env:"PAYMENT_SESSION_TTL" envDefault:"24h"`
	// NonceTTL bounds how late a notification may still be matched to its user.
	NonceTTL  time.Duration `env:"PAYMENT_NONCE_TTL" envDefault:"720h"`
	MaxMonths int           `env:"PAYMENT_MAX_MONTHS" envDefault:"12"`
	Language  string        `env:"PAYMENT_LANGUAGE" envDefault:"en"`
	// ConfirmNotifications re-reads a pushed success from the gateway before applying it.
	ConfirmNotifications bool `env:"PAYMENT_CONFIRM_NOTIFICATIONS" envDefault:"true"`
}

func (c Config) Validate() error {
	if c.Currency == "" {
		return fmt.Errorf("%w: PAYMENT_CURRENCY is required", ErrInvalidConfig)
	}
	if c.CountryCode == "" || !isDigits(c.CountryCode) {
		return fmt.Errorf("%w: PAYMENT_COUNTRY_CODE must be digits", ErrInvalidConfig)
	}
	for name, raw := range map[string]string{
		"PAYMENT_SUCCESS_URL": c.SuccessURL,
		"PAYMENT_CANCEL_URL":  c.CancelURL,
		"PAYMENT_NOTIFY_URL":  c.NotifyURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%w: %s must be an absolute URL", ErrInvalidConfig, name)
		}
	}
	if c.SessionTTL <= 0 || c.NonceTTL < c.SessionTTL {
		return fmt.Errorf("%w: PAYMENT_NONCE_TTL must be at least PAYMENT_SESSION_TTL", ErrInvalidConfig)
	}
	if c.MaxMonths < 1 {
		return fmt.Errorf("%w: PAYMENT_MAX_MONTHS must be positive", ErrInvalidConfig)
	}
	if (c.BeneficiaryAccount == "") != (c.BeneficiaryBank == "") {
		return fmt.Errorf("%w: PAYMENT_BENEFICIARY_ACCOUNT and PAYMENT_BENEFICIARY_BANK must be set together", ErrInvalidConfig)
	}
	return nil
}

// DefaultConfig returns the values used when the environment sets nothing.
func DefaultConfig() Config {
	return Config{
		Currency:     "ETB",
		CountryCode:  "251",
		RequirePhone: true,
		SuccessURL:   "http://localhost:8080/payments/return",
		CancelURL:    "http://localhost:8080/payments/return?cancelled=1",
		NotifyURL:    "http://localhost:8080/webhooks/payments",
		SessionTTL:   24 * time.Hour,
		NonceTTL:     30 * 24 * time.Hour,
		MaxMonths:    12,
		Language:     "en",

		ConfirmNotifications: true,
	}
}
