package checkout

import (
	"context"
	"database/sql"

	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
)

// Repository is the persistence checkout needs. Implementations return the
// database sentinels (ErrOrderNotFound, ErrDuplicatePendingOrder,
// ErrOrderNotPending) unwrapped.
type Repository interface {
	ListCartLines(ctx context.Context, userID string) ([]models.CartLine, error)
	FindPendingOrder(ctx context.Context, idempotencyKey string) (*models.Order, error)
	CreateOrder(ctx context.Context, order store.NewOrder) (*models.Order, error)
	GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error)
	// CompleteOrder marks the order completed and clears the user's cart
	// atomically. It reports whether this call performed the transition.
	CompleteOrder(ctx context.Context, orderID, userID string) (bool, error)
	TransitionOrder(ctx context.Context, orderID, from, to string) (bool, error)
	WebhookEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordWebhookEvent(ctx context.Context, eventID, eventType string) error
}

type SQLRepository struct {
	db *sql.DB
}

func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) ListCartLines(ctx context.Context, userID string) ([]models.CartLine, error) {
	return store.ListCartLines(ctx, r.db, userID)
}

func (r *SQLRepository) FindPendingOrder(ctx context.Context, idempotencyKey string) (*models.Order, error) {
	return store.FindPendingOrderByIdempotencyKey(ctx, r.db, idempotencyKey)
}

func (r *SQLRepository) CreateOrder(ctx context.Context, order store.NewOrder) (*models.Order, error) {
	return store.CreateOrder(ctx, r.db, order)
}

func (r *SQLRepository) GetOrderByPaymentIntent(ctx context.Context, intentID string) (*models.Order, error) {
	return store.GetOrderByPaymentIntent(ctx, r.db, intentID)
}

func (r *SQLRepository) CompleteOrder(ctx context.Context, orderID, userID string) (bool, error) {
	return store.CompleteOrderAndClearCart(ctx, r.db, orderID, userID)
}

func (r *SQLRepository) TransitionOrder(ctx context.Context, orderID, from, to string) (bool, error) {
	return store.TransitionOrderStatus(ctx, r.db, orderID, from, to)
}

func (r *SQLRepository) WebhookEventProcessed(ctx context.Context, eventID string) (bool, error) {
	return store.WebhookEventProcessed(ctx, r.db, eventID)
}

func (r *SQLRepository) RecordWebhookEvent(ctx context.Context, eventID, eventType string) error {
	_, err := store.RecordWebhookEvent(ctx, r.db, eventID, eventType)
	return err
}
