package store

import (
	"context"
	"fmt"

	"github.com/safar/storefront/internal/database"
)

func WebhookEventProcessed(ctx context.Context, q database.Querier, eventID string) (bool, error) {
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM webhook_events WHERE event_id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check webhook event: %w", err)
	}
	return exists, nil
}

// RecordWebhookEvent stores the provider event id. It reports false when the
// id was already recorded.
func RecordWebhookEvent(ctx context.Context, q database.Querier, eventID, eventType string) (bool, error) {
	result, err := q.ExecContext(ctx, `
		INSERT INTO webhook_events (event_id, event_type, processed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (event_id) DO NOTHING`, eventID, eventType)
	if err != nil {
		return false, fmt.Errorf("record webhook event: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("get rows affected: %w", err)
	}

	return rowsAffected == 1, nil
}
