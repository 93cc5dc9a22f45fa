package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/payment"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

// Service turns carts into pending orders backed by a remote payment intent
// and completes them once the client proves payment.
type Service struct {
	repo     Repository
	settings payment.Settings
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(repo Repository, settings payment.Settings, logger *slog.Logger) *Service {
	return &Service{
		repo:     repo,
		settings: settings,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateResult is what the client needs to open the provider checkout.
// OrderID is the remote intent id; InternalOrderID is ours.
type CreateResult struct {
	OrderID         string `json:"orderId"`
	Amount          int64  `json:"amount"`
	Currency        string `json:"currency"`
	KeyID           string `json:"keyId"`
	InternalOrderID string `json:"internalOrderId"`
}

type VerifyRequest struct {
	UserID    string
	IntentID  string
	PaymentID string
	Signature string
}

type VerifyResult struct {
	OrderID string
	// Transitioned is false when the order had already been completed,
	// typically by the webhook.
	Transitioned bool
}

func (s *Service) Create(ctx context.Context, userID string) (*CreateResult, error) {
	if !s.settings.Enabled() {
		return nil, ErrGatewayUnavailable
	}

	lines, err := s.repo.ListCartLines(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}

	key := IdempotencyKey(userID, lines)

	existing, err := s.repo.FindPendingOrder(ctx, key)
	switch {
	case err == nil:
		s.logger.InfoContext(ctx, "reusing pending order",
			"order_id", existing.ID,
			"intent_id", existing.PaymentIntentID)
		return s.resultFor(existing), nil
	case !errors.Is(err, database.ErrOrderNotFound):
		return nil, fmt.Errorf("find pending order: %w", err)
	}

	total := decimal.Zero
	items := make([]store.NewOrderItem, 0, len(lines))
	for _, line := range lines {
		total = total.Add(line.Subtotal())
		items = append(items, store.NewOrderItem{
			ProductID: line.ProductID,
			Price:     line.Price,
			Quantity:  line.Quantity,
		})
	}

	intent, err := s.settings.Gateway.CreateIntent(ctx, payment.IntentRequest{
		AmountMinor: payment.ToMinorUnits(total),
		Currency:    s.settings.Currency,
		Receipt:     fmt.Sprintf("order_%d", s.now().UnixMilli()),
		Notes:       map[string]string{"userId": userID},
	})
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	order, err := s.repo.CreateOrder(ctx, store.NewOrder{
		UserID:          userID,
		TotalAmount:     total,
		PaymentIntentID: intent.ID,
		IdempotencyKey:  key,
		Items:           items,
	})
	if errors.Is(err, database.ErrDuplicatePendingOrder) {
		// A concurrent create for the same cart won; its intent is the one
		// the client should pay.
		existing, findErr := s.repo.FindPendingOrder(ctx, key)
		if findErr != nil {
			return nil, fmt.Errorf("find pending order after conflict: %w", findErr)
		}
		s.logger.WarnContext(ctx, "discarding duplicate payment intent",
			"order_id", existing.ID,
			"discarded_intent_id", intent.ID)
		return s.resultFor(existing), nil
	}
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID,
		"intent_id", intent.ID,
		"amount", intent.AmountMinor,
		"items", len(order.Items))

	return &CreateResult{
		OrderID:         intent.ID,
		Amount:          intent.AmountMinor,
		Currency:        intent.Currency,
		KeyID:           s.settings.KeyID,
		InternalOrderID: order.ID,
	}, nil
}

func (s *Service) resultFor(order *models.Order) *CreateResult {
	return &CreateResult{
		OrderID:         order.PaymentIntentID,
		Amount:          payment.ToMinorUnits(order.TotalAmount),
		Currency:        s.settings.Currency,
		KeyID:           s.settings.KeyID,
		InternalOrderID: order.ID,
	}
}

// Verify checks the client-side payment signature and completes the order.
// A bad signature never touches storage.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	if !s.settings.Enabled() {
		return nil, ErrGatewayUnavailable
	}

	if !payment.VerifyPaymentSignature(s.settings.KeySecret, req.IntentID, req.PaymentID, req.Signature) {
		s.logger.WarnContext(ctx, "payment signature mismatch", "intent_id", req.IntentID)
		return nil, ErrInvalidSignature
	}

	order, err := s.repo.GetOrderByPaymentIntent(ctx, req.IntentID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order.UserID != req.UserID {
		return nil, ErrOrderNotFound
	}

	transitioned, err := s.repo.CompleteOrder(ctx, order.ID, req.UserID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotPending) || errors.Is(err, database.ErrOrderNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("complete order: %w", err)
	}

	s.logger.InfoContext(ctx, "payment verified",
		"order_id", order.ID,
		"payment_id", req.PaymentID,
		"transitioned", transitioned)

	return &VerifyResult{OrderID: order.ID, Transitioned: transitioned}, nil
}
