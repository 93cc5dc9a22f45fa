package store_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/store"
	"github.com/shopspring/decimal"
)

func cartOrder(t *testing.T, lines []models.CartLine, userID, intentID, key string) store.NewOrder {
	t.Helper()

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

	return store.NewOrder{
		UserID:          userID,
		TotalAmount:     total,
		PaymentIntentID: intentID,
		IdempotencyKey:  key,
		Items:           items,
	}
}

func TestCreateOrderFromCart(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "buyer@example.com")
	productA := createTestProduct(t, db, "product-a", "10.00")
	productB := createTestProduct(t, db, "product-b", "5.00")

	if _, err := store.AddCartItem(ctx, db, user.ID, productA.ID, 2); err != nil {
		t.Fatalf("Add product A: %v", err)
	}
	if _, err := store.AddCartItem(ctx, db, user.ID, productB.ID, 1); err != nil {
		t.Fatalf("Add product B: %v", err)
	}

	lines, err := store.ListCartLines(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List cart: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("Expected 2 cart lines, got %d", len(lines))
	}

	order, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_test_1", "key-1"))
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	if order.Status != models.OrderStatusPending {
		t.Errorf("Expected pending status, got %s", order.Status)
	}
	if got := order.TotalAmount.StringFixed(2); got != "25.00" {
		t.Errorf("Expected total 25.00, got %s", got)
	}

	// Price snapshots must survive later catalog changes.
	newPrice := decimal.RequireFromString("99.00")
	if _, err := store.UpdateProduct(ctx, db, productA.ID, store.ProductPatch{Price: &newPrice}); err != nil {
		t.Fatalf("Update product: %v", err)
	}

	fetched, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if len(fetched.Items) != 2 {
		t.Fatalf("Expected 2 order items, got %d", len(fetched.Items))
	}

	prices := map[string]string{}
	for _, item := range fetched.Items {
		prices[item.ProductID] = item.Price.StringFixed(2)
	}
	if prices[productA.ID] != "10.00" {
		t.Errorf("Expected product A snapshot 10.00, got %s", prices[productA.ID])
	}
	if prices[productB.ID] != "5.00" {
		t.Errorf("Expected product B snapshot 5.00, got %s", prices[productB.ID])
	}
	if got := fetched.TotalAmount.StringFixed(2); got != "25.00" {
		t.Errorf("Expected stored total 25.00, got %s", got)
	}
}

func TestCreateOrderDuplicatePendingKey(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "dup@example.com")
	product := createTestProduct(t, db, "dup-product", "12.50")
	lines := []models.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}}

	first, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_dup_1", "same-key"))
	if err != nil {
		t.Fatalf("Create first order: %v", err)
	}

	_, err = store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_dup_2", "same-key"))
	if !errors.Is(err, database.ErrDuplicatePendingOrder) {
		t.Fatalf("Expected ErrDuplicatePendingOrder, got %v", err)
	}

	existing, err := store.FindPendingOrderByIdempotencyKey(ctx, db, "same-key")
	if err != nil {
		t.Fatalf("Find pending order: %v", err)
	}
	if existing.ID != first.ID {
		t.Errorf("Expected order %s, got %s", first.ID, existing.ID)
	}

	// Once the first order leaves pending the key is free again.
	if _, err := store.TransitionOrderStatus(ctx, db, first.ID, models.OrderStatusPending, models.OrderStatusFailed); err != nil {
		t.Fatalf("Fail order: %v", err)
	}
	if _, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_dup_3", "same-key")); err != nil {
		t.Fatalf("Create order after failure: %v", err)
	}
}

func TestTransitionOrderStatusIsConditional(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "transition@example.com")
	product := createTestProduct(t, db, "transition-product", "3.00")
	lines := []models.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}}

	order, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_transition", ""))
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	changed, err := store.TransitionOrderStatus(ctx, db, order.ID, models.OrderStatusPending, models.OrderStatusCompleted)
	if err != nil {
		t.Fatalf("Complete order: %v", err)
	}
	if !changed {
		t.Fatal("Expected pending -> completed to change the order")
	}

	changed, err = store.TransitionOrderStatus(ctx, db, order.ID, models.OrderStatusPending, models.OrderStatusFailed)
	if err != nil {
		t.Fatalf("Fail order: %v", err)
	}
	if changed {
		t.Error("Failed transition must not overwrite a completed order")
	}

	fetched, err := store.GetOrderByPaymentIntent(ctx, db, "order_transition")
	if err != nil {
		t.Fatalf("Get order by intent: %v", err)
	}
	if fetched.Status != models.OrderStatusCompleted {
		t.Errorf("Expected completed, got %s", fetched.Status)
	}
}

func TestCompleteOrderConcurrent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "race@example.com")
	product := createTestProduct(t, db, "race-product", "7.00")
	if _, err := store.AddCartItem(ctx, db, user.ID, product.ID, 1); err != nil {
		t.Fatalf("Add cart item: %v", err)
	}
	lines := []models.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}}

	order, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_race", ""))
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}

	const workers = 5
	var wg sync.WaitGroup
	var mu sync.Mutex
	transitions := 0
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			changed, err := store.CompleteOrderAndClearCart(ctx, db, order.ID, user.ID)
			if err != nil {
				errs <- err
				return
			}
			if changed {
				mu.Lock()
				transitions++
				mu.Unlock()
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Complete order: %v", err)
	}
	if transitions != 1 {
		t.Errorf("Expected exactly 1 transition, got %d", transitions)
	}

	lines, err = store.ListCartLines(ctx, db, user.ID)
	if err != nil {
		t.Fatalf("List cart: %v", err)
	}
	if len(lines) != 0 {
		t.Errorf("Expected empty cart, got %d lines", len(lines))
	}
}

func TestCompleteFailedOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "failed@example.com")
	product := createTestProduct(t, db, "failed-product", "4.00")
	lines := []models.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 2}}

	order, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, "order_failed", ""))
	if err != nil {
		t.Fatalf("Create order: %v", err)
	}
	if _, err := store.TransitionOrderStatus(ctx, db, order.ID, models.OrderStatusPending, models.OrderStatusFailed); err != nil {
		t.Fatalf("Fail order: %v", err)
	}

	_, err = store.CompleteOrderAndClearCart(ctx, db, order.ID, user.ID)
	if !errors.Is(err, database.ErrOrderNotPending) {
		t.Errorf("Expected ErrOrderNotPending, got %v", err)
	}
}

func TestListOrdersCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := createTestUser(t, db, "cursor@example.com")
	product := createTestProduct(t, db, "cursor-product", "1.00")
	lines := []models.CartLine{{ProductID: product.ID, Price: product.Price, Quantity: 1}}

	for _, intent := range []string{"order_c1", "order_c2", "order_c3", "order_c4", "order_c5"} {
		if _, err := store.CreateOrder(ctx, db, cartOrder(t, lines, user.ID, intent, "")); err != nil {
			t.Fatalf("Create order %s: %v", intent, err)
		}
	}

	seen := map[string]bool{}
	cursor := ""
	pages := 0
	for {
		page, err := store.ListOrdersCursor(ctx, db, user.ID, cursor, 2)
		if err != nil {
			t.Fatalf("List orders: %v", err)
		}
		pages++

		for _, order := range page.Items.([]models.Order) {
			if seen[order.ID] {
				t.Errorf("Order %s returned twice", order.ID)
			}
			seen[order.ID] = true
		}

		if !page.HasMore {
			break
		}
		cursor = page.NextCursor
	}

	if len(seen) != 5 {
		t.Errorf("Expected 5 orders, got %d", len(seen))
	}
	if pages != 3 {
		t.Errorf("Expected 3 pages, got %d", pages)
	}
}
