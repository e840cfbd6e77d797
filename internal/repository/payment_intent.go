package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"uitvaartpay/internal/domain"
)

type PaymentIntentRepository struct {
	db *sql.DB
}

func NewPaymentIntentRepository(db *sql.DB) *PaymentIntentRepository {
	return &PaymentIntentRepository{db: db}
}

const intentColumns = `id, rail, rail_ref, amount, currency, purpose, customer_id, provider_id, description, status,
	split_provider_id, split_provider_amount, split_platform_fee, split_commission_fee, split_net_amount,
	version, created_at, updated_at`

func (r *PaymentIntentRepository) Create(ctx context.Context, intent *domain.PaymentIntent) error {
	query := `INSERT INTO payment_intents (` + intentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`

	var splitProviderID sql.NullString
	var splitProviderAmount, splitPlatformFee, splitCommissionFee, splitNetAmount sql.NullInt64
	if s := intent.Split; s != nil {
		splitProviderID = sql.NullString{String: s.ProviderID, Valid: true}
		splitProviderAmount = sql.NullInt64{Int64: s.ProviderAmount.Amount, Valid: true}
		splitPlatformFee = sql.NullInt64{Int64: s.PlatformFee.Amount, Valid: true}
		splitCommissionFee = sql.NullInt64{Int64: s.CommissionFee.Amount, Valid: true}
		splitNetAmount = sql.NullInt64{Int64: s.NetAmount.Amount, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		intent.ID,
		string(intent.Rail),
		intent.RailRef,
		intent.Amount.Amount,
		intent.Amount.Currency,
		string(intent.Purpose),
		intent.CustomerID,
		intent.ProviderID,
		intent.Description,
		string(intent.Status),
		splitProviderID,
		splitProviderAmount,
		splitPlatformFee,
		splitCommissionFee,
		splitNetAmount,
		intent.Version,
		intent.CreatedAt,
		intent.UpdatedAt,
	)
	return err
}

func (r *PaymentIntentRepository) GetByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PaymentIntentRepository) GetByRailRef(ctx context.Context, rail domain.RailName, railRef string) (*domain.PaymentIntent, error) {
	query := `SELECT ` + intentColumns + ` FROM payment_intents WHERE rail = $1 AND rail_ref = $2`
	return r.scanOne(r.db.QueryRowContext(ctx, query, string(rail), railRef))
}

// UpdateStatus applies a transition with an optimistic version check. When
// another writer got there first, zero rows match and the caller gets
// ErrVersionConflict instead of a silently lost update.
func (r *PaymentIntentRepository) UpdateStatus(ctx context.Context, id string, status domain.PaymentIntentStatus, expectedVersion int) error {
	query := `UPDATE payment_intents
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`

	res, err := r.db.ExecContext(ctx, query, string(status), time.Now().UTC(), id, expectedVersion)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish a missing intent from a concurrent update.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *PaymentIntentRepository) scanOne(row *sql.Row) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	var rail, purpose, status string
	var currency string
	var splitProviderID sql.NullString
	var splitProviderAmount, splitPlatformFee, splitCommissionFee, splitNetAmount sql.NullInt64

	err := row.Scan(
		&intent.ID,
		&rail,
		&intent.RailRef,
		&intent.Amount.Amount,
		&currency,
		&purpose,
		&intent.CustomerID,
		&intent.ProviderID,
		&intent.Description,
		&status,
		&splitProviderID,
		&splitProviderAmount,
		&splitPlatformFee,
		&splitCommissionFee,
		&splitNetAmount,
		&intent.Version,
		&intent.CreatedAt,
		&intent.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}

	intent.Rail = domain.RailName(rail)
	intent.Purpose = domain.PaymentPurpose(purpose)
	intent.Status = domain.PaymentIntentStatus(status)
	intent.Amount.Currency = currency

	if splitProviderID.Valid {
		intent.Split = &domain.PaymentSplit{
			ProviderID:     splitProviderID.String,
			ProviderAmount: domain.NewMoney(splitProviderAmount.Int64, currency),
			PlatformFee:    domain.NewMoney(splitPlatformFee.Int64, currency),
			CommissionFee:  domain.NewMoney(splitCommissionFee.Int64, currency),
			NetAmount:      domain.NewMoney(splitNetAmount.Int64, currency),
		}
	}

	return &intent, nil
}
