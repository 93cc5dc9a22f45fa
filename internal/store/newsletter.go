package store

import (
	"context"
	"fmt"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
)

// Subscribe adds the email to the newsletter, reactivating it if it was
// previously unsubscribed.
func Subscribe(ctx context.Context, q database.Querier, email string) (*models.NewsletterSubscriber, error) {
	sub := &models.NewsletterSubscriber{}
	err := q.QueryRowContext(ctx, `
		INSERT INTO newsletter_subscribers (email, is_active, created_at)
		VALUES ($1, TRUE, NOW())
		ON CONFLICT (email) DO UPDATE SET is_active = TRUE
		RETURNING id, email, is_active, created_at`, email).Scan(
		&sub.ID,
		&sub.Email,
		&sub.IsActive,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("subscribe: %w", err)
	}

	return sub, nil
}

func ListSubscribers(ctx context.Context, q database.Querier) ([]models.NewsletterSubscriber, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, email, is_active, created_at
		FROM newsletter_subscribers
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	subs := []models.NewsletterSubscriber{}
	for rows.Next() {
		var sub models.NewsletterSubscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.IsActive, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return subs, nil
}
