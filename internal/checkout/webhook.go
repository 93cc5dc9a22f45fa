package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/payment"
)

const (
	EventPaymentCaptured = "payment.captured"
	EventPaymentFailed   = "payment.failed"
)

type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeNoop      Outcome = "noop"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
)

type webhookEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// Reconciler applies provider webhook notifications to order status. It can
// race with Service.Verify; both go through the same conditional transition.
type Reconciler struct {
	repo     Repository
	settings payment.Settings
	logger   *slog.Logger
}

func NewReconciler(repo Repository, settings payment.Settings, logger *slog.Logger) *Reconciler {
	return &Reconciler{
		repo:     repo,
		settings: settings,
		logger:   logger,
	}
}

// Handle verifies rawBody against signature and applies the event. eventID is
// the provider's delivery id; repeated ids are acknowledged without
// reprocessing. It returns an error only when the caller should reject the
// delivery.
func (r *Reconciler) Handle(ctx context.Context, rawBody []byte, signature, eventID string) (Outcome, error) {
	if !r.settings.Enabled() || !r.settings.WebhookEnabled() {
		return "", ErrGatewayUnavailable
	}
	if signature == "" {
		return "", ErrMissingSignature
	}
	if !payment.VerifyWebhookSignature(r.settings.WebhookSecret, rawBody, signature) {
		r.logger.WarnContext(ctx, "webhook signature mismatch", "event_id", eventID)
		return "", ErrInvalidSignature
	}

	var event webhookEvent
	if err := json.Unmarshal(rawBody, &event); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	if eventID != "" {
		seen, err := r.repo.WebhookEventProcessed(ctx, eventID)
		if err != nil {
			return "", fmt.Errorf("check webhook event: %w", err)
		}
		if seen {
			r.logger.InfoContext(ctx, "duplicate webhook event", "event_id", eventID, "event", event.Event)
			return OutcomeDuplicate, nil
		}
	}

	outcome, err := r.apply(ctx, event)
	if err != nil {
		return "", err
	}

	if eventID != "" {
		if err := r.repo.RecordWebhookEvent(ctx, eventID, event.Event); err != nil {
			return "", fmt.Errorf("record webhook event: %w", err)
		}
	}

	return outcome, nil
}

func (r *Reconciler) apply(ctx context.Context, event webhookEvent) (Outcome, error) {
	var target string
	switch event.Event {
	case EventPaymentCaptured:
		target = models.OrderStatusCompleted
	case EventPaymentFailed:
		target = models.OrderStatusFailed
	default:
		r.logger.InfoContext(ctx, "ignoring webhook event", "event", event.Event)
		return OutcomeIgnored, nil
	}

	intentID := event.Payload.Payment.Entity.OrderID
	if intentID == "" {
		// Payments made outside an order (payment links, QR) carry no order_id.
		r.logger.WarnContext(ctx, "webhook payment without order id",
			"event", event.Event,
			"payment_id", event.Payload.Payment.Entity.ID)
		return OutcomeIgnored, nil
	}

	order, err := r.repo.GetOrderByPaymentIntent(ctx, intentID)
	if err != nil {
		if errors.Is(err, database.ErrOrderNotFound) {
			r.logger.WarnContext(ctx, "webhook for unknown order", "event", event.Event, "intent_id", intentID)
			return OutcomeIgnored, nil
		}
		return "", fmt.Errorf("get order: %w", err)
	}

	changed, err := r.repo.TransitionOrder(ctx, order.ID, models.OrderStatusPending, target)
	if err != nil {
		return "", fmt.Errorf("transition order: %w", err)
	}
	if !changed {
		r.logger.InfoContext(ctx, "webhook left order unchanged",
			"event", event.Event,
			"order_id", order.ID,
			"status", order.Status)
		return OutcomeNoop, nil
	}

	r.logger.InfoContext(ctx, "order status updated via webhook",
		"event", event.Event,
		"order_id", order.ID,
		"payment_id", event.Payload.Payment.Entity.ID,
		"status", target)
	return OutcomeApplied, nil
}
