package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// PgShadowThrottle reads the anti-abuse throttle table owned by the
// moderation collaborator. Read-only: applying or lifting throttles is that
// service's job.
type PgShadowThrottle struct {
	pool *pgxpool.Pool
}

func NewPgShadowThrottle(pool *pgxpool.Pool) *PgShadowThrottle {
	return &PgShadowThrottle{pool: pool}
}

var _ repository.VisibilityProvider = (*PgShadowThrottle)(nil)

// VisibilityMultiplier returns the strongest active throttle's reduction
// factor, or 1.0 when the user is unthrottled.
func (t *PgShadowThrottle) VisibilityMultiplier(ctx context.Context, userID string) (float64, error) {
	if t == nil || t.pool == nil {
		return 0, errors.New("PgShadowThrottle: nil pool")
	}
	var m float64
	err := t.pool.QueryRow(ctx, `
		SELECT visibility_reduction
		FROM shadow_throttle
		WHERE user_id = $1::uuid
		  AND started_at <= now()
		  AND (expires_at IS NULL OR expires_at > now())
		ORDER BY severity DESC, started_at DESC
		LIMIT 1
	`, userID).Scan(&m)
	if errors.Is(err, pgx.ErrNoRows) {
		return 1.0, nil
	}
	if err != nil {
		return 0, err
	}
	return m, nil
}

// NoThrottle is the degenerate provider used when the throttle collaborator
// is unavailable: everyone is fully visible.
type NoThrottle struct{}

func (NoThrottle) VisibilityMultiplier(context.Context, string) (float64, error) { return 1.0, nil }
