package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/safar/storefront/internal/database"
	"github.com/safar/storefront/internal/models"
	"golang.org/x/sync/errgroup"
)

type NewLoginEvent struct {
	UserID    string
	IP        string
	UserAgent string
	Device    string
}

func CreateLoginEvent(ctx context.Context, q database.Querier, in NewLoginEvent) (*models.LoginEvent, error) {
	event := &models.LoginEvent{}
	err := q.QueryRowContext(ctx, `
		INSERT INTO login_events (user_id, ip, user_agent, device, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, user_id, ip, user_agent, device, created_at`,
		in.UserID, in.IP, in.UserAgent, in.Device).Scan(
		&event.ID,
		&event.UserID,
		&event.IP,
		&event.UserAgent,
		&event.Device,
		&event.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create login event: %w", err)
	}

	return event, nil
}

// GetLoginAnalytics aggregates login events over the trailing window. The
// three aggregates run concurrently, so q must be a pool rather than a tx.
func GetLoginAnalytics(ctx context.Context, q *sql.DB, days int, now time.Time) (*models.LoginAnalytics, error) {
	since := now.AddDate(0, 0, -days)
	analytics := &models.LoginAnalytics{
		Days:     days,
		ByDevice: map[string]int64{},
		Daily:    []models.DailyCount{},
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := q.QueryRowContext(gctx, `
			SELECT COUNT(*), COUNT(DISTINCT user_id)
			FROM login_events
			WHERE created_at >= $1`, since).Scan(&analytics.TotalLogins, &analytics.UniqueUsers)
		if err != nil {
			return fmt.Errorf("count logins: %w", err)
		}
		return nil
	})

	byDevice := map[string]int64{}
	g.Go(func() error {
		rows, err := q.QueryContext(gctx, `
			SELECT COALESCE(device, 'unknown'), COUNT(*)
			FROM login_events
			WHERE created_at >= $1
			GROUP BY 1`, since)
		if err != nil {
			return fmt.Errorf("count logins by device: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var device string
			var count int64
			if err := rows.Scan(&device, &count); err != nil {
				return fmt.Errorf("scan device count: %w", err)
			}
			byDevice[device] = count
		}
		return rows.Err()
	})

	var daily []models.DailyCount
	g.Go(func() error {
		rows, err := q.QueryContext(gctx, `
			SELECT to_char(date_trunc('day', created_at AT TIME ZONE 'UTC'), 'YYYY-MM-DD'), COUNT(*)
			FROM login_events
			WHERE created_at >= $1
			GROUP BY 1
			ORDER BY 1`, since)
		if err != nil {
			return fmt.Errorf("count logins by day: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var day models.DailyCount
			if err := rows.Scan(&day.Date, &day.Count); err != nil {
				return fmt.Errorf("scan daily count: %w", err)
			}
			daily = append(daily, day)
		}
		return rows.Err()
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	analytics.ByDevice = byDevice
	if daily != nil {
		analytics.Daily = daily
	}

	return analytics, nil
}
