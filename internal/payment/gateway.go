package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotConfigured = errors.New("payment gateway not configured")

// IntentRequest describes a remote charge intent. AmountMinor is in the
// currency's minor unit (paise for INR).
type IntentRequest struct {
	AmountMinor int64
	Currency    string
	Receipt     string
	Notes       map[string]string
}

type Intent struct {
	ID          string
	AmountMinor int64
	Currency    string
}

// Gateway creates remote payment intents at the provider.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error)
}

var hundred = decimal.NewFromInt(100)

// ToMinorUnits converts a two-decimal amount to minor units, rounding half
// away from zero.
func ToMinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(hundred).Round(0).IntPart()
}
