package repository

import (
	"context"
	"database/sql"
	"errors"

	"uitvaartpay/internal/domain"
)

type RefundRepository struct {
	db *sql.DB
}

func NewRefundRepository(db *sql.DB) *RefundRepository {
	return &RefundRepository{db: db}
}

const refundColumns = `id, payment_intent_id, amount, currency, reason, description, initiated_by, approved_by,
	status, rail_ref, created_at, processed_at`

func (r *RefundRepository) Create(ctx context.Context, ref *domain.RefundRequest) error {
	query := `INSERT INTO refunds (` + refundColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.db.ExecContext(ctx, query,
		ref.ID,
		ref.PaymentIntentID,
		ref.Amount.Amount,
		ref.Amount.Currency,
		string(ref.Reason),
		ref.Description,
		ref.InitiatedBy,
		ref.ApprovedBy,
		string(ref.Status),
		ref.RailRef,
		ref.CreatedAt,
		ref.ProcessedAt,
	)
	return err
}

func (r *RefundRepository) Update(ctx context.Context, ref *domain.RefundRequest) error {
	query := `UPDATE refunds
		SET status = $1, approved_by = $2, rail_ref = $3, processed_at = $4
		WHERE id = $5`

	res, err := r.db.ExecContext(ctx, query, string(ref.Status), ref.ApprovedBy, ref.RailRef, ref.ProcessedAt, ref.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRefundNotFound
	}
	return nil
}

func (r *RefundRepository) GetByID(ctx context.Context, id string) (*domain.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE id = $1`
	return scanRefund(r.db.QueryRowContext(ctx, query, id))
}

func (r *RefundRepository) GetByRailRef(ctx context.Context, railRef string) (*domain.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE rail_ref = $1`
	return scanRefund(r.db.QueryRowContext(ctx, query, railRef))
}

func (r *RefundRepository) ListByIntent(ctx context.Context, paymentIntentID string) ([]domain.RefundRequest, error) {
	query := `SELECT ` + refundColumns + ` FROM refunds WHERE payment_intent_id = $1 ORDER BY created_at`

	rows, err := r.db.QueryContext(ctx, query, paymentIntentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.RefundRequest
	for rows.Next() {
		ref, err := scanRefundRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ref)
	}
	return out, rows.Err()
}

// SumReserved totals the refunds that already hold a claim on the intent's
// balance: pending approvals, in-flight rail submissions and completed
// refunds all count.
func (r *RefundRepository) SumReserved(ctx context.Context, paymentIntentID string) (int64, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM refunds
		WHERE payment_intent_id = $1 AND status IN ('pending', 'processing', 'completed')`

	var total int64
	if err := r.db.QueryRowContext(ctx, query, paymentIntentID).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

type refundScanner interface {
	Scan(dest ...any) error
}

func scanRefund(row *sql.Row) (*domain.RefundRequest, error) {
	ref, err := scanRefundRows(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRefundNotFound
	}
	return ref, err
}

func scanRefundRows(s refundScanner) (*domain.RefundRequest, error) {
	var ref domain.RefundRequest
	var reason, status string
	var approvedBy, railRef sql.NullString
	var processedAt sql.NullTime

	err := s.Scan(
		&ref.ID,
		&ref.PaymentIntentID,
		&ref.Amount.Amount,
		&ref.Amount.Currency,
		&reason,
		&ref.Description,
		&ref.InitiatedBy,
		&approvedBy,
		&status,
		&railRef,
		&ref.CreatedAt,
		&processedAt,
	)
	if err != nil {
		return nil, err
	}

	ref.Reason = domain.RefundReason(reason)
	ref.Status = domain.RefundStatus(status)
	if approvedBy.Valid {
		ref.ApprovedBy = &approvedBy.String
	}
	if railRef.Valid {
		ref.RailRef = &railRef.String
	}
	if processedAt.Valid {
		ref.ProcessedAt = &processedAt.Time
	}

	return &ref, nil
}
