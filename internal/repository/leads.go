package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadscout/api/internal/entity"
)

// LeadsRepository describes persistence operations for generated leads.
type LeadsRepository interface {
	InsertForProfile(ctx context.Context, profileID uuid.UUID, leads []entity.Lead) error
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]entity.Lead, error)
	ListByProfiles(ctx context.Context, profileIDs []uuid.UUID) (map[uuid.UUID][]entity.Lead, error)
}

// PGXLeadsRepository implements LeadsRepository using pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository wires a pgx backed repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

const leadColumns = `business_profile_id, position, name, description, address, website, contact_email, phone, justification, subject, body, suggested_email, score`

// InsertForProfile stores the full lead sequence of one run inside a single
// transaction. Position preserves the relevance order the model returned.
func (r *PGXLeadsRepository) InsertForProfile(ctx context.Context, profileID uuid.UUID, leads []entity.Lead) error {
	if len(leads) == 0 {
		return nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin leads tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for i, lead := range leads {
		if _, err := tx.Exec(ctx, `
            INSERT INTO leads (`+leadColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        `, profileID, i, lead.Name, lead.Description, lead.Address, lead.Website, lead.ContactEmail, lead.Phone, lead.Justification, lead.Subject, lead.Body, lead.SuggestedEmail, lead.Score); err != nil {
			return fmt.Errorf("insert lead %d: %w", i, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit leads tx: %w", err)
	}
	return nil
}

func scanLead(rows pgx.Rows) (uuid.UUID, entity.Lead, error) {
	var (
		profileID uuid.UUID
		position  int
		lead      entity.Lead
	)
	if err := rows.Scan(
		&profileID,
		&position,
		&lead.Name,
		&lead.Description,
		&lead.Address,
		&lead.Website,
		&lead.ContactEmail,
		&lead.Phone,
		&lead.Justification,
		&lead.Subject,
		&lead.Body,
		&lead.SuggestedEmail,
		&lead.Score,
	); err != nil {
		return uuid.Nil, entity.Lead{}, err
	}
	return profileID, lead, nil
}

// ListByProfile returns the leads of one run ordered by stored position.
func (r *PGXLeadsRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]entity.Lead, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads WHERE business_profile_id = $1 ORDER BY position ASC`, profileID)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	var leads []entity.Lead
	for rows.Next() {
		_, lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		leads = append(leads, lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

// ListByProfiles fetches leads for several runs at once, keyed by profile id,
// each slice ordered by stored position.
func (r *PGXLeadsRepository) ListByProfiles(ctx context.Context, profileIDs []uuid.UUID) (map[uuid.UUID][]entity.Lead, error) {
	result := make(map[uuid.UUID][]entity.Lead, len(profileIDs))
	if len(profileIDs) == 0 {
		return result, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+leadColumns+` FROM leads WHERE business_profile_id = ANY($1) ORDER BY business_profile_id, position ASC`, profileIDs)
	if err != nil {
		return nil, fmt.Errorf("list leads by profiles: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		profileID, lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead row: %w", err)
		}
		result[profileID] = append(result[profileID], lead)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return result, nil
}
