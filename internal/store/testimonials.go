package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

const testimonialColumns = `id, name, role, avatar, rating, content, is_verified, is_visible, created_at`

type TestimonialInput struct {
	Name       string
	Role       *string
	Avatar     *string
	Rating     int
	Content    string
	IsVerified bool
	IsVisible  bool
}

type TestimonialPatch struct {
	Name       *string
	Role       *string
	Avatar     *string
	Rating     *int
	Content    *string
	IsVerified *bool
	IsVisible  *bool
}

func scanTestimonial(row scanner) (*models.Testimonial, error) {
	t := &models.Testimonial{}
	err := row.Scan(
		&t.ID,
		&t.Name,
		&t.Role,
		&t.Avatar,
		&t.Rating,
		&t.Content,
		&t.IsVerified,
		&t.IsVisible,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func CreateTestimonial(ctx context.Context, q database.Querier, in TestimonialInput) (*models.Testimonial, error) {
	query := `
		INSERT INTO testimonials (name, role, avatar, rating, content, is_verified, is_visible, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING ` + testimonialColumns

	t, err := scanTestimonial(q.QueryRowContext(ctx, query,
		in.Name, in.Role, in.Avatar, in.Rating, in.Content, in.IsVerified, in.IsVisible))
	if err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}

	return t, nil
}

func UpdateTestimonial(ctx context.Context, q database.Querier, id string, p TestimonialPatch) (*models.Testimonial, error) {
	query := `
		UPDATE testimonials SET
			name = COALESCE($2, name),
			role = COALESCE($3, role),
			avatar = COALESCE($4, avatar),
			rating = COALESCE($5, rating),
			content = COALESCE($6, content),
			is_verified = COALESCE($7, is_verified),
			is_visible = COALESCE($8, is_visible)
		WHERE id = $1
		RETURNING ` + testimonialColumns

	t, err := scanTestimonial(q.QueryRowContext(ctx, query, id,
		p.Name, p.Role, p.Avatar, p.Rating, p.Content, p.IsVerified, p.IsVisible))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrTestimonialNotFound
		}
		return nil, fmt.Errorf("update testimonial: %w", err)
	}

	return t, nil
}

func DeleteTestimonial(ctx context.Context, q database.Querier, id string) error {
	result, err := q.ExecContext(ctx, `DELETE FROM testimonials WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete testimonial: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return database.ErrTestimonialNotFound
	}

	return nil
}

// ListTestimonials returns every testimonial, or only visible ones when
// visibleOnly is set.
func ListTestimonials(ctx context.Context, q database.Querier, visibleOnly bool) ([]models.Testimonial, error) {
	query := `
		SELECT ` + testimonialColumns + `
		FROM testimonials
		WHERE (NOT $1::boolean OR is_visible)
		ORDER BY created_at DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, visibleOnly)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	defer rows.Close()

	testimonials := []models.Testimonial{}
	for rows.Next() {
		t, err := scanTestimonial(rows)
		if err != nil {
			return nil, fmt.Errorf("scan testimonial: %w", err)
		}
		testimonials = append(testimonials, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return testimonials, nil
}
