package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

const dealColumns = `id, title, description, discount_percent, code, start_date, end_date, is_active,
	product_ids, category_ids, created_at`

type DealInput struct {
	Title           string
	Description     string
	DiscountPercent int
	Code            string
	StartDate       time.Time
	EndDate         time.Time
	IsActive        bool
	ProductIDs      []string
	CategoryIDs     []string
}

type DealPatch struct {
	Title           *string
	Description     *string
	DiscountPercent *int
	Code            *string
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        *bool
	ProductIDs      *[]string
	CategoryIDs     *[]string
}

func scanDeal(row scanner) (*models.Deal, error) {
	deal := &models.Deal{}
	var productIDs, categoryIDs pq.StringArray
	err := row.Scan(
		&deal.ID,
		&deal.Title,
		&deal.Description,
		&deal.DiscountPercent,
		&deal.Code,
		&deal.StartDate,
		&deal.EndDate,
		&deal.IsActive,
		&productIDs,
		&categoryIDs,
		&deal.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	deal.ProductIDs = []string(productIDs)
	deal.CategoryIDs = []string(categoryIDs)
	return deal, nil
}

func CreateDeal(ctx context.Context, q database.Querier, in DealInput) (*models.Deal, error) {
	query := `
		INSERT INTO deals (title, description, discount_percent, code, start_date, end_date, is_active,
			product_ids, category_ids, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING ` + dealColumns

	deal, err := scanDeal(q.QueryRowContext(ctx, query,
		in.Title, in.Description, in.DiscountPercent, in.Code, in.StartDate, in.EndDate, in.IsActive,
		pq.StringArray(in.ProductIDs), pq.StringArray(in.CategoryIDs),
	))
	if err != nil {
		if database.IsUniqueViolation(err, "deals_code_key") {
			return nil, database.ErrDealCodeTaken
		}
		return nil, fmt.Errorf("create deal: %w", err)
	}

	return deal, nil
}

func GetDeal(ctx context.Context, q database.Querier, id string) (*models.Deal, error) {
	deal, err := scanDeal(q.QueryRowContext(ctx, `SELECT `+dealColumns+` FROM deals WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrDealNotFound
		}
		return nil, fmt.Errorf("get deal: %w", err)
	}

	return deal, nil
}

func UpdateDeal(ctx context.Context, q database.Querier, id string, p DealPatch) (*models.Deal, error) {
	query := `
		UPDATE deals SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			discount_percent = COALESCE($4, discount_percent),
			code = COALESCE($5, code),
			start_date = COALESCE($6, start_date),
			end_date = COALESCE($7, end_date),
			is_active = COALESCE($8, is_active),
			product_ids = COALESCE($9, product_ids),
			category_ids = COALESCE($10, category_ids)
		WHERE id = $1
		RETURNING ` + dealColumns

	deal, err := scanDeal(q.QueryRowContext(ctx, query, id,
		p.Title, p.Description, p.DiscountPercent, p.Code, p.StartDate, p.EndDate, p.IsActive,
		arrayArg(p.ProductIDs), arrayArg(p.CategoryIDs),
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrDealNotFound
		}
		if database.IsUniqueViolation(err, "deals_code_key") {
			return nil, database.ErrDealCodeTaken
		}
		return nil, fmt.Errorf("update deal: %w", err)
	}

	return deal, nil
}

func DeleteDeal(ctx context.Context, q database.Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM deals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrDealNotFound
	}

	return nil
}

func ListDeals(ctx context.Context, q database.Querier) ([]models.Deal, error) {
	return queryDeals(ctx, q, `SELECT `+dealColumns+` FROM deals ORDER BY created_at DESC, id DESC`)
}

// ListActiveDeals returns deals flagged active whose window contains now.
func ListActiveDeals(ctx context.Context, q database.Querier, now time.Time) ([]models.Deal, error) {
	return queryDeals(ctx, q, `
		SELECT `+dealColumns+`
		FROM deals
		WHERE is_active AND start_date <= $1 AND end_date >= $1
		ORDER BY end_date, id`, now)
}

func queryDeals(ctx context.Context, q database.Querier, query string, args ...any) ([]models.Deal, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	deals := []models.Deal{}
	for rows.Next() {
		deal, err := scanDeal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deals = append(deals, *deal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return deals, nil
}
