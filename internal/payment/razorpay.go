package payment

import (
	"context"
	"fmt"

	razorpay "github.com/razorpay/razorpay-go"
)

type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateIntent(ctx context.Context, req IntentRequest) (*Intent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}

	body, err := g.client.Order.Create(map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("razorpay create order: %w", err)
	}

	return intentFromResponse(body, req)
}

// intentFromResponse reads the order id and echoes of amount and currency
// from the decoded provider JSON. Numbers arrive as float64.
func intentFromResponse(body map[string]interface{}, req IntentRequest) (*Intent, error) {
	id, _ := body["id"].(string)
	if id == "" {
		return nil, fmt.Errorf("razorpay create order: response missing id")
	}

	intent := &Intent{
		ID:          id,
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}
	if amount, ok := body["amount"].(float64); ok {
		intent.AmountMinor = int64(amount)
	}
	if currency, ok := body["currency"].(string); ok && currency != "" {
		intent.Currency = currency
	}

	return intent, nil
}
