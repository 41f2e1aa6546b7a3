package email

import (
	"fmt"
	"net/mail"
)

// Config holds email delivery settings. Both Postmark tokens empty selects the dev sender.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL" envDefault:"noreply@example.com"`
	SupportEmail         string `env:"SUPPORT_EMAIL" envDefault:"support@example.com"`
	DevDir               string `env:"EMAIL_DEV_DIR" envDefault:".emails"`
}

func (c Config) Validate() error {
	if (c.PostmarkServerToken == "") != (c.PostmarkAccountToken == "") {
		return fmt.Errorf("%w: POSTMARK_SERVER_TOKEN and POSTMARK_ACCOUNT_TOKEN must be set together", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(c.SenderEmail); err != nil {
		return fmt.Errorf("%w: SENDER_EMAIL must be a valid email address", ErrInvalidConfig)
	}
	if _, err := mail.ParseAddress(c.SupportEmail); err != nil {
		return fmt.Errorf("%w: SUPPORT_EMAIL must be a valid email address", ErrInvalidConfig)
	}
	return nil
}

// UsesPostmark reports whether the config carries Postmark credentials.
func (c Config) UsesPostmark() bool {
	return c.PostmarkServerToken != "" && c.PostmarkAccountToken != ""
}

// NewSender returns a Postmark sender when credentials are configured and a DevSender otherwise.
func NewSender(cfg Config) (Sender, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.UsesPostmark() {
		return NewPostmark(cfg)
	}
	return NewDevSender(cfg.DevDir), nil
}
