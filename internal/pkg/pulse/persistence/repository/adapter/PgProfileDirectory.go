package adapter

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pulse "go-pulse/internal/pkg/pulse/domain"
	repository "go-pulse/internal/pkg/pulse/persistence/repository/port"
)

// PgProfileDirectory reads the profile collaborator's tables. Strictly a
// projection: this subsystem never writes profile rows.
type PgProfileDirectory struct {
	pool *pgxpool.Pool
}

func NewPgProfileDirectory(pool *pgxpool.Pool) *PgProfileDirectory {
	return &PgProfileDirectory{pool: pool}
}

var _ repository.ProfileDirectory = (*PgProfileDirectory)(nil)

func (d *PgProfileDirectory) GetProfile(ctx context.Context, userID string) (*pulse.CandidateProfile, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgProfileDirectory: nil pool")
	}
	row := d.pool.QueryRow(ctx, `
		SELECT user_id::text, location_latitude, location_longitude, gender,
		       date_of_birth, preferences, last_seen_at
		FROM user_profile
		WHERE user_id = $1::uuid
	`, userID)

	p, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, pulse.ErrProfileIncomplete
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (d *PgProfileDirectory) ListNearby(ctx context.Context, box pulse.BoundingBox, excludeUserID string, limit int) ([]pulse.CandidateProfile, error) {
	if d == nil || d.pool == nil {
		return nil, errors.New("PgProfileDirectory: nil pool")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.pool.Query(ctx, `
		SELECT user_id::text, location_latitude, location_longitude, gender,
		       date_of_birth, preferences, last_seen_at
		FROM user_profile
		WHERE user_id <> $1::uuid
		  AND location_latitude BETWEEN $2 AND $3
		  AND location_longitude BETWEEN $4 AND $5
		ORDER BY last_seen_at DESC NULLS LAST
		LIMIT $6
	`, excludeUserID, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []pulse.CandidateProfile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// scanProfile maps one profile row, tolerating nullable location, birth date,
// preference and last-seen columns.
func scanProfile(row pgx.Row) (*pulse.CandidateProfile, error) {
	var (
		p        pulse.CandidateProfile
		lat, lng *float64
		gender   *string
		birth    *time.Time
		prefs    []byte
		lastSeen *time.Time
	)
	if err := row.Scan(&p.UserID, &lat, &lng, &gender, &birth, &prefs, &lastSeen); err != nil {
		return nil, err
	}
	if lat != nil && lng != nil {
		p.Lat, p.Lng, p.HasLocation = *lat, *lng, true
	}
	if gender != nil {
		p.Gender = *gender
	}
	if birth != nil {
		p.BirthDate = *birth
	}
	if lastSeen != nil {
		p.LastSeenAt = *lastSeen
	}
	if len(prefs) > 0 {
		// Preference JSON is collaborator-owned; unknown keys are ignored.
		_ = json.Unmarshal(prefs, &p.Preferences)
	}
	return &p, nil
}
