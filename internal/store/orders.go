package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, user_id, total_amount, status, COALESCE(payment_intent_id, ''),
	COALESCE(idempotency_key, ''), created_at, updated_at`

type NewOrder struct {
	UserID          string
	TotalAmount     decimal.Decimal
	PaymentIntentID string
	IdempotencyKey  string
	Items           []NewOrderItem
}

type NewOrderItem struct {
	ProductID string
	Price     decimal.Decimal
	Quantity  int
}

func scanOrder(row scanner) (*models.Order, error) {
	order := &models.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.TotalAmount,
		&order.Status,
		&order.PaymentIntentID,
		&order.IdempotencyKey,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateOrder writes a pending order and its item snapshots in one
// transaction. A second pending order with the same idempotency key fails
// with ErrDuplicatePendingOrder.
func CreateOrder(ctx context.Context, db *sql.DB, req NewOrder) (*models.Order, error) {
	var order *models.Order

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var idempotencyKey interface{}
		if req.IdempotencyKey != "" {
			idempotencyKey = req.IdempotencyKey
		}

		created, err := scanOrder(tx.QueryRowContext(ctx,
			`INSERT INTO orders (user_id, total_amount, status, payment_intent_id, idempotency_key, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
			 RETURNING `+orderColumns,
			req.UserID, req.TotalAmount, models.OrderStatusPending, req.PaymentIntentID, idempotencyKey))
		if err != nil {
			if database.IsUniqueViolation(err, "orders_pending_idempotency_key") {
				return database.ErrDuplicatePendingOrder
			}
			if database.IsForeignKeyViolation(err) {
				return database.ErrUserNotFound
			}
			return fmt.Errorf("create order: %w", err)
		}

		items := make([]models.OrderItem, 0, len(req.Items))
		for _, item := range req.Items {
			var orderItem models.OrderItem
			err := tx.QueryRowContext(ctx,
				`INSERT INTO order_items (order_id, product_id, price, quantity)
				 VALUES ($1, $2, $3, $4)
				 RETURNING id, order_id, product_id, price, quantity, license_key`,
				created.ID, item.ProductID, item.Price, item.Quantity).Scan(
				&orderItem.ID,
				&orderItem.OrderID,
				&orderItem.ProductID,
				&orderItem.Price,
				&orderItem.Quantity,
				&orderItem.LicenseKey,
			)
			if err != nil {
				if database.IsForeignKeyViolation(err) {
					return database.ErrProductNotFound
				}
				return fmt.Errorf("create order item: %w", err)
			}
			items = append(items, orderItem)
		}

		created.Items = items
		order = created
		return nil
	})

	if err != nil {
		return nil, err
	}

	return order, nil
}

func GetOrder(ctx context.Context, q database.Querier, id string) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order: %w", err)
	}

	items, err := ListOrderItems(ctx, q, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func GetOrderByPaymentIntent(ctx context.Context, q database.Querier, paymentIntentID string) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE payment_intent_id = $1`, paymentIntentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("get order by payment intent: %w", err)
	}

	return order, nil
}

func FindPendingOrderByIdempotencyKey(ctx context.Context, q database.Querier, key string) (*models.Order, error) {
	order, err := scanOrder(q.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE idempotency_key = $1 AND status = $2`,
		key, models.OrderStatusPending))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrOrderNotFound
		}
		return nil, fmt.Errorf("find pending order: %w", err)
	}

	return order, nil
}

func ListOrderItems(ctx context.Context, q database.Querier, orderID string) ([]models.OrderItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, order_id, product_id, price, quantity, license_key
		FROM order_items
		WHERE order_id = $1
		ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order items: %w", err)
	}
	defer rows.Close()

	items := []models.OrderItem{}
	for rows.Next() {
		var item models.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Price,
			&item.Quantity,
			&item.LicenseKey,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

func ListOrdersCursor(ctx context.Context, q database.Querier, userID string, cursor string, limit int) (*CursorPage, error) {
	cursorData, err := DecodeCursor(cursor)
	if err != nil {
		return nil, fmt.Errorf("decode cursor: %w", err)
	}

	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE user_id = $1
		  AND (created_at, id) < ($2, $3::uuid)
		ORDER BY created_at DESC, id DESC
		LIMIT $4`

	rows, err := q.QueryContext(ctx, query, userID, cursorData.CreatedAt, cursorData.ID, limit+1)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders := []models.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	hasMore := len(orders) > limit
	if hasMore {
		orders = orders[:limit]
	}

	var nextCursor string
	if hasMore && len(orders) > 0 {
		lastOrder := orders[len(orders)-1]
		nextCursor = EncodeCursor(OrderCursor{
			CreatedAt: lastOrder.CreatedAt,
			ID:        lastOrder.ID,
		})
	}

	return &CursorPage{
		Items:      orders,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

// TransitionOrderStatus moves the order from one status to another only if it
// currently holds the expected status. It reports whether a row changed.
func TransitionOrderStatus(ctx context.Context, q database.Querier, orderID, from, to string) (bool, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE orders
		 SET status = $1, updated_at = NOW()
		 WHERE id = $2 AND status = $3`,
		to, orderID, from)
	if err != nil {
		return false, fmt.Errorf("transition order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}

// CompleteOrderAndClearCart marks a pending order completed and empties the
// owner's cart in one transaction. An order that is already completed still
// gets its cart cleared; a failed order yields ErrOrderNotPending.
func CompleteOrderAndClearCart(ctx context.Context, db *sql.DB, orderID, userID string) (bool, error) {
	var transitioned bool

	err := database.WithRetry(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		changed, err := TransitionOrderStatus(ctx, tx, orderID, models.OrderStatusPending, models.OrderStatusCompleted)
		if err != nil {
			return err
		}

		if !changed {
			var status string
			err := tx.QueryRowContext(ctx, `SELECT status FROM orders WHERE id = $1`, orderID).Scan(&status)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return database.ErrOrderNotFound
				}
				return fmt.Errorf("read order status: %w", err)
			}
			if status != models.OrderStatusCompleted {
				return database.ErrOrderNotPending
			}
		}

		if _, err := ClearCart(ctx, tx, userID); err != nil {
			return err
		}

		transitioned = changed
		return nil
	})

	if err != nil {
		return false, err
	}

	return transitioned, nil
}
