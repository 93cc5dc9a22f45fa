package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/payment"
	"github.com/safar/storefront/internal/store"
)

type fakeRepo struct {
	mu        sync.Mutex
	carts     map[string][]models.CartLine
	orders    map[string]*models.Order
	events    map[string]string
	nextID    int
	mutations int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		carts:  map[string][]models.CartLine{},
		orders: map[string]*models.Order{},
		events: map[string]string{},
	}
}

func (r *fakeRepo) ListCartLines(_ context.Context, userID string) ([]models.CartLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.CartLine(nil), r.carts[userID]...), nil
}

func (r *fakeRepo) FindPendingOrder(_ context.Context, key string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.IdempotencyKey == key && o.Status == models.OrderStatusPending {
			cp := *o
			return &cp, nil
		}
	}
	return nil, database.ErrOrderNotFound
}

func (r *fakeRepo) CreateOrder(_ context.Context, in store.NewOrder) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if in.IdempotencyKey != "" && o.IdempotencyKey == in.IdempotencyKey && o.Status == models.OrderStatusPending {
			return nil, database.ErrDuplicatePendingOrder
		}
	}

	r.nextID++
	r.mutations++
	order := &models.Order{
		ID:              fmt.Sprintf("order-%d", r.nextID),
		UserID:          in.UserID,
		TotalAmount:     in.TotalAmount,
		Status:          models.OrderStatusPending,
		PaymentIntentID: in.PaymentIntentID,
		IdempotencyKey:  in.IdempotencyKey,
	}
	for i, item := range in.Items {
		order.Items = append(order.Items, models.OrderItem{
			ID:        fmt.Sprintf("%s-item-%d", order.ID, i),
			OrderID:   order.ID,
			ProductID: item.ProductID,
			Price:     item.Price,
			Quantity:  item.Quantity,
		})
	}
	r.orders[order.ID] = order

	cp := *order
	return &cp, nil
}

func (r *fakeRepo) GetOrderByPaymentIntent(_ context.Context, intentID string) (*models.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == intentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, database.ErrOrderNotFound
}

func (r *fakeRepo) CompleteOrder(_ context.Context, orderID, userID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok {
		return false, database.ErrOrderNotFound
	}
	changed := false
	switch o.Status {
	case models.OrderStatusPending:
		o.Status = models.OrderStatusCompleted
		changed = true
		r.mutations++
	case models.OrderStatusFailed:
		return false, database.ErrOrderNotPending
	}
	delete(r.carts, userID)
	return changed, nil
}

func (r *fakeRepo) TransitionOrder(_ context.Context, orderID, from, to string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderID]
	if !ok || o.Status != from {
		return false, nil
	}
	o.Status = to
	r.mutations++
	return true, nil
}

func (r *fakeRepo) WebhookEventProcessed(_ context.Context, eventID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.events[eventID]
	return ok, nil
}

func (r *fakeRepo) RecordWebhookEvent(_ context.Context, eventID, eventType string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[eventID] = eventType
	return nil
}

func (r *fakeRepo) status(orderID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[orderID].Status
}

func (r *fakeRepo) orderCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.orders)
}

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	requests []payment.IntentRequest
	err      error
}

func (g *fakeGateway) CreateIntent(_ context.Context, req payment.IntentRequest) (*payment.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	g.calls++
	g.requests = append(g.requests, req)
	return &payment.Intent{
		ID:          fmt.Sprintf("ord_%d", g.calls),
		AmountMinor: req.AmountMinor,
		Currency:    req.Currency,
	}, nil
}

const (
	testKeySecret     = "key_secret"
	testWebhookSecret = "webhook_secret"
)

func testSettings(gw payment.Gateway) payment.Settings {
	return payment.Settings{
		KeyID:         "rzp_test_key",
		KeySecret:     testKeySecret,
		WebhookSecret: testWebhookSecret,
		Currency:      "INR",
		Gateway:       gw,
	}
}
