package payment

import (
	"strings"

	"github.com/safar/storefront/internal/config"
)

const defaultCurrency = "INR"

// Settings is the payment configuration handed to checkout at construction.
// The zero value is the unconfigured variant.
type Settings struct {
	KeyID         string
	KeySecret     string
	WebhookSecret string
	Currency      string
	Gateway       Gateway
}

func Unconfigured() Settings {
	return Settings{Currency: defaultCurrency}
}

// NewSettings builds a Razorpay-backed Settings from config, or the
// unconfigured variant when the key id or secret is missing.
func NewSettings(cfg config.PaymentConfig) Settings {
	currency := strings.ToUpper(cfg.Currency)
	if currency == "" {
		currency = defaultCurrency
	}

	if cfg.KeyID == "" || cfg.KeySecret == "" {
		s := Unconfigured()
		s.Currency = currency
		s.WebhookSecret = cfg.WebhookSecret
		return s
	}

	return Settings{
		KeyID:         cfg.KeyID,
		KeySecret:     cfg.KeySecret,
		WebhookSecret: cfg.WebhookSecret,
		Currency:      currency,
		Gateway:       NewRazorpayGateway(cfg.KeyID, cfg.KeySecret),
	}
}

// Enabled reports whether orders can be created and verified.
func (s Settings) Enabled() bool {
	return s.Gateway != nil && s.KeyID != "" && s.KeySecret != ""
}

func (s Settings) WebhookEnabled() bool {
	return s.WebhookSecret != ""
}
