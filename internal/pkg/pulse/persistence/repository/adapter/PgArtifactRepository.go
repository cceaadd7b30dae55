package adapter

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

type PgArtifactRepository struct {
	pool *pgxpool.Pool
}

func NewPgArtifactRepository(pool *pgxpool.Pool) *PgArtifactRepository {
	return &PgArtifactRepository{pool: pool}
}

// Ensure interface compliance at compile time
var _ repository.ArtifactRepository = (*PgArtifactRepository)(nil)

// CreateArtifact inserts conditionally on the owner's rolling 24h per-type
// cap. The count and the insert happen in one statement so two devices
// posting at the cap boundary cannot both slip through.
func (r *PgArtifactRepository) CreateArtifact(ctx context.Context, a pulse.Artifact) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgArtifactRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO pulse.artifact (
			owner_id, type, content, location_lat, location_lng,
			visibility_radius_m, moderation_status, flag_count, created_at, expires_at
		)
		SELECT $1::uuid, $2, $3, $4, $5, $6, $7, 0, $8, $9
		WHERE (
			SELECT count(*) FROM pulse.artifact
			WHERE owner_id = $1::uuid
			  AND type = $2
			  AND created_at >= $8::timestamptz - interval '24 hours'
		) < $10
		RETURNING id::text
	`, a.OwnerID, a.Type, a.Content, a.Lat, a.Lng,
		a.VisibilityRadiusM, a.ModerationStatus, a.CreatedAt, a.ExpiresAt,
		a.Type.DailyCap(),
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", pulse.ErrDailyCapExceeded
	}
	return id, err
}

func (r *PgArtifactRepository) GetArtifact(ctx context.Context, id string) (*pulse.Artifact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgArtifactRepository: nil pool")
	}
	if uuid.Validate(id) != nil {
		return nil, pulse.ErrArtifactNotFound
	}
	var a pulse.Artifact
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, owner_id::text, type, content, location_lat, location_lng,
		       visibility_radius_m, moderation_status, flag_count, created_at, expires_at
		FROM pulse.artifact
		WHERE id = $1::uuid
	`, id).Scan(
		&a.ID, &a.OwnerID, &a.Type, &a.Content, &a.Lat, &a.Lng,
		&a.VisibilityRadiusM, &a.ModerationStatus, &a.FlagCount, &a.CreatedAt, &a.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pulse.ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *PgArtifactRepository) QueryActive(ctx context.Context, q repository.ArtifactQuery) ([]pulse.Artifact, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgArtifactRepository: nil pool")
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id::text, owner_id::text, type, content, location_lat, location_lng,
		       visibility_radius_m, moderation_status, flag_count, created_at, expires_at
		FROM pulse.artifact
		WHERE moderation_status <> 'removed'
		  AND expires_at > $1
		  AND location_lat BETWEEN $2 AND $3
		  AND location_lng BETWEEN $4 AND $5
		  AND ($6::text IS NULL OR type = $6)
		ORDER BY created_at DESC
		LIMIT $7
	`, now, q.Box.MinLat, q.Box.MaxLat, q.Box.MinLng, q.Box.MaxLng, q.Type, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pulse.Artifact
	for rows.Next() {
		var a pulse.Artifact
		if err := rows.Scan(
			&a.ID, &a.OwnerID, &a.Type, &a.Content, &a.Lat, &a.Lng,
			&a.VisibilityRadiusM, &a.ModerationStatus, &a.FlagCount, &a.CreatedAt, &a.ExpiresAt,
		); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordFlag is a single statement: the dedupe insert, the counter increment
// and the conditional clean -> flagged transition all happen atomically at
// the row level. Concurrent reporters cannot lose updates.
func (r *PgArtifactRepository) RecordFlag(ctx context.Context, artifactID, reporterID string, threshold int) (repository.FlagOutcome, error) {
	if r == nil || r.pool == nil {
		return repository.FlagOutcome{}, errors.New("PgArtifactRepository: nil pool")
	}
	if uuid.Validate(artifactID) != nil {
		return repository.FlagOutcome{}, pulse.ErrArtifactNotFound
	}

	var (
		out     repository.FlagOutcome
		counted int
	)
	err := r.pool.QueryRow(ctx, `
		WITH ins AS (
			INSERT INTO pulse.artifact_flag (artifact_id, reporter_id, created_at)
			VALUES ($1::uuid, $2::uuid, now())
			ON CONFLICT (artifact_id, reporter_id) DO NOTHING
			RETURNING 1
		),
		upd AS (
			UPDATE pulse.artifact a
			SET flag_count = a.flag_count + (SELECT count(*) FROM ins),
			    moderation_status = CASE
					WHEN a.moderation_status = 'clean'
					 AND a.flag_count + (SELECT count(*) FROM ins) >= $3
					THEN 'flagged'
					ELSE a.moderation_status
				END
			WHERE a.id = $1::uuid
			RETURNING a.flag_count, a.moderation_status
		)
		SELECT u.flag_count, u.moderation_status, (SELECT count(*) FROM ins)
		FROM upd u
	`, artifactID, reporterID, threshold).Scan(&out.FlagCount, &out.Status, &counted)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.FlagOutcome{}, pulse.ErrArtifactNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		// flag row referenced a missing artifact
		return repository.FlagOutcome{}, pulse.ErrArtifactNotFound
	}
	if err != nil {
		return repository.FlagOutcome{}, err
	}

	out.Counted = counted > 0
	out.Escalated = out.Counted && out.Status == pulse.StatusFlagged && out.FlagCount == threshold
	return out, nil
}

func (r *PgArtifactRepository) MarkRemoved(ctx context.Context, artifactID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgArtifactRepository: nil pool")
	}
	if uuid.Validate(artifactID) != nil {
		return pulse.ErrArtifactNotFound
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE pulse.artifact
		SET moderation_status = 'removed'
		WHERE id = $1::uuid
	`, artifactID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return pulse.ErrArtifactNotFound
	}
	return nil
}

func (r *PgArtifactRepository) CountRecentByOwner(ctx context.Context, ownerID string, since time.Time) (int, error) {
	if r == nil || r.pool == nil {
		return 0, errors.New("PgArtifactRepository: nil pool")
	}
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*) FROM pulse.artifact
		WHERE owner_id = $1::uuid AND created_at >= $2
	`, ownerID, since).Scan(&n)
	return n, err
}
