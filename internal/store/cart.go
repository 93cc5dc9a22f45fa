package store

import (
	"context"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

// AddCartItem inserts the product into the user's cart or increments the
// quantity of the existing line.
func AddCartItem(ctx context.Context, q database.Querier, userID, productID string, quantity int) (*models.CartItem, error) {
	item := &models.CartItem{}

	query := `
		INSERT INTO cart_items (user_id, product_id, quantity, created_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, product_id)
		DO UPDATE SET quantity = cart_items.quantity + EXCLUDED.quantity
		RETURNING id, user_id, product_id, quantity, created_at`

	err := q.QueryRowContext(ctx, query, userID, productID, quantity).Scan(
		&item.ID,
		&item.UserID,
		&item.ProductID,
		&item.Quantity,
		&item.CreatedAt,
	)
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrProductNotFound
		}
		return nil, fmt.Errorf("add cart item: %w", err)
	}

	return item, nil
}

func SetCartItemQuantity(ctx context.Context, q database.Querier, userID, productID string, quantity int) error {
	result, err := q.ExecContext(ctx,
		`UPDATE cart_items SET quantity = $1 WHERE user_id = $2 AND product_id = $3`,
		quantity, userID, productID)
	if err != nil {
		return fmt.Errorf("set cart item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

func RemoveCartItem(ctx context.Context, q database.Querier, userID, productID string) error {
	result, err := q.ExecContext(ctx,
		`DELETE FROM cart_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("remove cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrCartItemNotFound
	}

	return nil
}

// ListCartLines returns the user's cart joined with current product prices,
// oldest line first.
func ListCartLines(ctx context.Context, q database.Querier, userID string) ([]models.CartLine, error) {
	query := `
		SELECT ci.id, ci.product_id, p.title, p.image, p.price, ci.quantity
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.user_id = $1
		ORDER BY ci.created_at, ci.id`

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []models.CartLine{}
	for rows.Next() {
		var line models.CartLine
		err := rows.Scan(
			&line.CartItemID,
			&line.ProductID,
			&line.ProductTitle,
			&line.Image,
			&line.Price,
			&line.Quantity,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return lines, nil
}

func ClearCart(ctx context.Context, q database.Querier, userID string) (int64, error) {
	result, err := q.ExecContext(ctx, `DELETE FROM cart_items WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("clear cart: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected, nil
}
