package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

const productRequestColumns = `id, product_name, email, message, status, created_at`

func scanProductRequest(row scanner) (*models.ProductRequest, error) {
	req := &models.ProductRequest{}
	err := row.Scan(&req.ID, &req.ProductName, &req.Email, &req.Message, &req.Status, &req.CreatedAt)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func CreateProductRequest(ctx context.Context, q database.Querier, productName, email string, message *string) (*models.ProductRequest, error) {
	req, err := scanProductRequest(q.QueryRowContext(ctx, `
		INSERT INTO product_requests (product_name, email, message, status, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING `+productRequestColumns,
		productName, email, message, models.ProductRequestPending))
	if err != nil {
		return nil, fmt.Errorf("create product request: %w", err)
	}

	return req, nil
}

// ListProductRequests returns requests newest first, filtered by status when
// status is non-empty.
func ListProductRequests(ctx context.Context, q database.Querier, status string) ([]models.ProductRequest, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+productRequestColumns+`
		FROM product_requests
		WHERE ($1::text = '' OR status = $1::text)
		ORDER BY created_at DESC, id DESC`, status)
	if err != nil {
		return nil, fmt.Errorf("list product requests: %w", err)
	}
	defer rows.Close()

	reqs := []models.ProductRequest{}
	for rows.Next() {
		req, err := scanProductRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product request: %w", err)
		}
		reqs = append(reqs, *req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return reqs, nil
}

func UpdateProductRequestStatus(ctx context.Context, q database.Querier, id, status string) (*models.ProductRequest, error) {
	req, err := scanProductRequest(q.QueryRowContext(ctx, `
		UPDATE product_requests SET status = $2
		WHERE id = $1
		RETURNING `+productRequestColumns, id, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrProductRequestNotFound
		}
		return nil, fmt.Errorf("update product request: %w", err)
	}

	return req, nil
}
