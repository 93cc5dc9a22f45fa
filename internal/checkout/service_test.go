package checkout

import (
	"context"
	"errors"
	"testing"

	"github.com/safar/storefront/internal/logger"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/payment"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scenarioCart() []models.CartLine {
	return []models.CartLine{
		{CartItemID: "ci-1", ProductID: "product-a", Price: decimal.RequireFromString("10.00"), Quantity: 2},
		{CartItemID: "ci-2", ProductID: "product-b", Price: decimal.RequireFromString("5.00"), Quantity: 1},
	}
}

func newTestService(repo *fakeRepo, gw *fakeGateway) *Service {
	return NewService(repo, testSettings(gw), logger.Discard())
}

func TestCreateSnapshotsCart(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()
	gw := &fakeGateway{}

	result, err := newTestService(repo, gw).Create(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, "ord_1", result.OrderID)
	assert.Equal(t, int64(2500), result.Amount)
	assert.Equal(t, "INR", result.Currency)
	assert.Equal(t, "rzp_test_key", result.KeyID)

	order := repo.orders[result.InternalOrderID]
	require.NotNil(t, order)
	assert.Equal(t, "25.00", order.TotalAmount.StringFixed(2))
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, "ord_1", order.PaymentIntentID)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "10.00", order.Items[0].Price.StringFixed(2))
	assert.Equal(t, "5.00", order.Items[1].Price.StringFixed(2))

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "user-1", gw.requests[0].Notes["userId"])
	assert.Contains(t, gw.requests[0].Receipt, "order_")
}

func TestCreateTotalMatchesItems(t *testing.T) {
	carts := [][]models.CartLine{
		{{ProductID: "p1", Price: decimal.RequireFromString("0.99"), Quantity: 3}},
		{
			{ProductID: "p1", Price: decimal.RequireFromString("19.99"), Quantity: 1},
			{ProductID: "p2", Price: decimal.RequireFromString("0.01"), Quantity: 7},
			{ProductID: "p3", Price: decimal.RequireFromString("120.50"), Quantity: 2},
		},
	}

	for _, cart := range carts {
		repo := newFakeRepo()
		repo.carts["u"] = cart
		result, err := newTestService(repo, &fakeGateway{}).Create(context.Background(), "u")
		require.NoError(t, err)

		order := repo.orders[result.InternalOrderID]
		require.Len(t, order.Items, len(cart))

		sum := decimal.Zero
		for _, item := range order.Items {
			sum = sum.Add(item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))))
		}
		assert.True(t, sum.Equal(order.TotalAmount), "total %s != items %s", order.TotalAmount, sum)
		assert.Equal(t, payment.ToMinorUnits(sum), result.Amount)
	}
}

func TestCreateEmptyCart(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{}

	_, err := newTestService(repo, gw).Create(context.Background(), "user-1")
	assert.True(t, errors.Is(err, ErrEmptyCart))
	assert.Equal(t, 0, gw.calls)
	assert.Equal(t, 0, repo.orderCount())
}

func TestCreateUnconfigured(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()

	svc := NewService(repo, payment.Unconfigured(), logger.Discard())
	_, err := svc.Create(context.Background(), "user-1")
	assert.True(t, errors.Is(err, ErrGatewayUnavailable))
	assert.Equal(t, 0, repo.orderCount())
}

func TestCreateGatewayError(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()
	gw := &fakeGateway{err: errors.New("provider down")}

	_, err := newTestService(repo, gw).Create(context.Background(), "user-1")
	require.Error(t, err)
	assert.Equal(t, 0, repo.orderCount())
}

func TestCreateReusesPendingOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()
	gw := &fakeGateway{}
	svc := newTestService(repo, gw)

	first, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, 1, repo.orderCount())

	// A changed cart is a different checkout.
	repo.carts["user-1"] = append(scenarioCart(), models.CartLine{
		ProductID: "product-c", Price: decimal.RequireFromString("1.00"), Quantity: 1,
	})
	third, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.InternalOrderID, third.InternalOrderID)
	assert.Equal(t, 2, gw.calls)
}

func TestVerifyCompletesOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()
	repo.carts["user-2"] = scenarioCart()
	svc := newTestService(repo, &fakeGateway{})

	mine, err := svc.Create(context.Background(), "user-1")
	require.NoError(t, err)
	theirs, err := svc.Create(context.Background(), "user-2")
	require.NoError(t, err)

	result, err := svc.Verify(context.Background(), VerifyRequest{
		UserID:    "user-1",
		IntentID:  mine.OrderID,
		PaymentID: "pay_1",
		Signature: payment.Sign(testKeySecret, []byte(mine.OrderID+"|pay_1")),
	})
	require.NoError(t, err)
	assert.Equal(t, mine.InternalOrderID, result.OrderID)
	assert.True(t, result.Transitioned)

	assert.Equal(t, models.OrderStatusCompleted, repo.status(mine.InternalOrderID))
	assert.Equal(t, models.OrderStatusPending, repo.status(theirs.InternalOrderID))
	assert.Empty(t, repo.carts["user-1"])
	assert.Len(t, repo.carts["user-2"], 2)
}

func TestVerifyScenarioSignature(t *testing.T) {
	repo := newFakeRepo()
	repo.orders["order-1"] = &models.Order{
		ID:              "order-1",
		UserID:          "user-1",
		Status:          models.OrderStatusPending,
		PaymentIntentID: "ord_1",
	}
	svc := newTestService(repo, &fakeGateway{})

	good := payment.Sign(testKeySecret, []byte("ord_1|pay_1"))

	tampered := []byte(good)
	if tampered[0] == '0' {
		tampered[0] = '1'
	} else {
		tampered[0] = '0'
	}

	_, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_1", PaymentID: "pay_1", Signature: string(tampered),
	})
	assert.True(t, errors.Is(err, ErrInvalidSignature))
	assert.Equal(t, models.OrderStatusPending, repo.status("order-1"))
	assert.Equal(t, 0, repo.mutations)

	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_1", PaymentID: "pay_1", Signature: good,
	})
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCompleted, repo.status("order-1"))
}

func TestVerifyInvalidSignatureUnknownOrder(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_missing", PaymentID: "pay_1", Signature: "deadbeef",
	})
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestVerifyOrderNotFound(t *testing.T) {
	repo := newFakeRepo()
	repo.orders["order-1"] = &models.Order{
		ID: "order-1", UserID: "owner", Status: models.OrderStatusPending, PaymentIntentID: "ord_1",
	}
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_9", PaymentID: "pay_1",
		Signature: payment.Sign(testKeySecret, []byte("ord_9|pay_1")),
	})
	assert.True(t, errors.Is(err, ErrOrderNotFound))

	// Another user's order is reported the same way and left alone.
	_, err = svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_1", PaymentID: "pay_1",
		Signature: payment.Sign(testKeySecret, []byte("ord_1|pay_1")),
	})
	assert.True(t, errors.Is(err, ErrOrderNotFound))
	assert.Equal(t, models.OrderStatusPending, repo.status("order-1"))
}

func TestVerifyAfterWebhookCompleted(t *testing.T) {
	repo := newFakeRepo()
	repo.carts["user-1"] = scenarioCart()
	repo.orders["order-1"] = &models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusCompleted, PaymentIntentID: "ord_1",
	}
	svc := newTestService(repo, &fakeGateway{})

	result, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_1", PaymentID: "pay_1",
		Signature: payment.Sign(testKeySecret, []byte("ord_1|pay_1")),
	})
	require.NoError(t, err)
	assert.False(t, result.Transitioned)
	assert.Empty(t, repo.carts["user-1"])
}

func TestVerifyFailedOrder(t *testing.T) {
	repo := newFakeRepo()
	repo.orders["order-1"] = &models.Order{
		ID: "order-1", UserID: "user-1", Status: models.OrderStatusFailed, PaymentIntentID: "ord_1",
	}
	svc := newTestService(repo, &fakeGateway{})

	_, err := svc.Verify(context.Background(), VerifyRequest{
		UserID: "user-1", IntentID: "ord_1", PaymentID: "pay_1",
		Signature: payment.Sign(testKeySecret, []byte("ord_1|pay_1")),
	})
	assert.True(t, errors.Is(err, ErrOrderNotPending))
	assert.Equal(t, models.OrderStatusFailed, repo.status("order-1"))
}

func TestIdempotencyKeyIgnoresLineOrder(t *testing.T) {
	lines := scenarioCart()
	reversed := []models.CartLine{lines[1], lines[0]}

	assert.Equal(t, IdempotencyKey("u", lines), IdempotencyKey("u", reversed))
	assert.NotEqual(t, IdempotencyKey("u", lines), IdempotencyKey("v", lines))

	bumped := scenarioCart()
	bumped[0].Quantity = 3
	assert.NotEqual(t, IdempotencyKey("u", lines), IdempotencyKey("u", bumped))
}
