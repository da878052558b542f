package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadscout/api/internal/entity"
)

// ErrProfileNotFound indicates the account has no saved business profile yet.
var ErrProfileNotFound = errors.New("business profile not found")

// ProfilesRepository describes persistence operations for business profile snapshots.
type ProfilesRepository interface {
	Insert(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error)
	Latest(ctx context.Context, userID uuid.UUID) (*entity.ProfileSnapshot, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]entity.ProfileSnapshot, error)
}

// PGXProfilesRepository implements ProfilesRepository using pgx.
type PGXProfilesRepository struct {
	pool pgxPool
}

// NewPGXProfilesRepository wires a pgx backed repository.
func NewPGXProfilesRepository(pool *pgxpool.Pool) *PGXProfilesRepository {
	return &PGXProfilesRepository{pool: pool}
}

const profileColumns = `id, user_id, site_url, description, target_industry, location, desired_lead_count, meeting_link, highlight_snippet, created_at`

func scanProfile(row pgx.Row) (*entity.ProfileSnapshot, error) {
	var snap entity.ProfileSnapshot
	if err := row.Scan(
		&snap.ID,
		&snap.UserID,
		&snap.Profile.SiteURL,
		&snap.Profile.Description,
		&snap.Profile.TargetIndustry,
		&snap.Profile.Location,
		&snap.Profile.DesiredLeadCount,
		&snap.Profile.MeetingLink,
		&snap.Profile.HighlightSnippet,
		&snap.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Insert stores a new profile snapshot for the user and returns the row.
func (r *PGXProfilesRepository) Insert(ctx context.Context, userID uuid.UUID, profile entity.BusinessProfile) (*entity.ProfileSnapshot, error) {
	row := r.pool.QueryRow(ctx, `
        INSERT INTO business_profiles (user_id, site_url, description, target_industry, location, desired_lead_count, meeting_link, highlight_snippet)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING `+profileColumns+`
    `, userID, profile.SiteURL, profile.Description, profile.TargetIndustry, profile.Location, profile.DesiredLeadCount, profile.MeetingLink, profile.HighlightSnippet)

	snap, err := scanProfile(row)
	if err != nil {
		return nil, fmt.Errorf("insert business profile: %w", err)
	}
	return snap, nil
}

// Latest returns the most recent profile snapshot for the user.
func (r *PGXProfilesRepository) Latest(ctx context.Context, userID uuid.UUID) (*entity.ProfileSnapshot, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+profileColumns+` FROM business_profiles WHERE user_id = $1 ORDER BY created_at DESC LIMIT 1`, userID)

	snap, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("query latest profile: %w", err)
	}
	return snap, nil
}

// ListRecent returns the user's profile snapshots ordered newest-first.
func (r *PGXProfilesRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]entity.ProfileSnapshot, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `SELECT `+profileColumns+` FROM business_profiles WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var snaps []entity.ProfileSnapshot
	for rows.Next() {
		snap, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile row: %w", err)
		}
		snaps = append(snaps, *snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate profiles: %w", err)
	}
	return snaps, nil
}
