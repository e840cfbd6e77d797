package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"uitvaartpay/internal/domain"
)

type DisputeRepository struct {
	db *sql.DB
}

func NewDisputeRepository(db *sql.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

const disputeColumns = `id, payment_intent_id, customer_id, provider_id, reason, description, evidence,
	priority, status, resolution, resolved_by, created_at, resolved_at`

func (r *DisputeRepository) Create(ctx context.Context, d *domain.DisputeCase) error {
	evidence, err := json.Marshal(d.Evidence)
	if err != nil {
		return err
	}

	query := `INSERT INTO disputes (` + disputeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err = r.db.ExecContext(ctx, query,
		d.ID,
		d.PaymentIntentID,
		d.CustomerID,
		d.ProviderID,
		d.Reason,
		d.Description,
		evidence,
		string(d.Priority),
		string(d.Status),
		d.Resolution,
		d.ResolvedBy,
		d.CreatedAt,
		d.ResolvedAt,
	)
	return err
}

func (r *DisputeRepository) Update(ctx context.Context, d *domain.DisputeCase) error {
	evidence, err := json.Marshal(d.Evidence)
	if err != nil {
		return err
	}

	query := `UPDATE disputes
		SET status = $1, evidence = $2, resolution = $3, resolved_by = $4, resolved_at = $5
		WHERE id = $6`

	res, err := r.db.ExecContext(ctx, query, string(d.Status), evidence, d.Resolution, d.ResolvedBy, d.ResolvedAt, d.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrDisputeNotFound
	}
	return nil
}

func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*domain.DisputeCase, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1`

	d, err := scanDispute(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrDisputeNotFound
	}
	return d, err
}

// FindOpenByIntent returns the open dispute for an intent, or nil when
// there is none. The at-most-one-open invariant is enforced at creation.
func (r *DisputeRepository) FindOpenByIntent(ctx context.Context, paymentIntentID string) (*domain.DisputeCase, error) {
	query := `SELECT ` + disputeColumns + ` FROM disputes
		WHERE payment_intent_id = $1 AND status != 'resolved'
		ORDER BY created_at DESC LIMIT 1`

	d, err := scanDispute(r.db.QueryRowContext(ctx, query, paymentIntentID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func scanDispute(row *sql.Row) (*domain.DisputeCase, error) {
	var d domain.DisputeCase
	var priority, status string
	var evidence []byte
	var resolution, resolvedBy sql.NullString
	var resolvedAt sql.NullTime

	err := row.Scan(
		&d.ID,
		&d.PaymentIntentID,
		&d.CustomerID,
		&d.ProviderID,
		&d.Reason,
		&d.Description,
		&evidence,
		&priority,
		&status,
		&resolution,
		&resolvedBy,
		&d.CreatedAt,
		&resolvedAt,
	)
	if err != nil {
		return nil, err
	}

	d.Priority = domain.DisputePriority(priority)
	d.Status = domain.DisputeStatus(status)
	if len(evidence) > 0 {
		if err := json.Unmarshal(evidence, &d.Evidence); err != nil {
			return nil, err
		}
	}
	if resolution.Valid {
		d.Resolution = &resolution.String
	}
	if resolvedBy.Valid {
		d.ResolvedBy = &resolvedBy.String
	}
	if resolvedAt.Valid {
		d.ResolvedAt = &resolvedAt.Time
	}

	return &d, nil
}
