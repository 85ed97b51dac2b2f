package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/pkg/errors"
)

const offerColumns = `id, demand_id::text, provider_id::text, price::text, estimated_time, message, status,
	provider_completed, is_approved, commission_amount::text, created_at, updated_at`

type postgresOfferRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresOfferRepository(pool *pgxpool.Pool) repository.OfferRepository {
	return &postgresOfferRepository{pool: pool}
}

func scanOffer(row rowScanner) (*entity.Offer, error) {
	var (
		o                 entity.Offer
		price, commission string
	)
	err := row.Scan(&o.ID, &o.DemandID, &o.ProviderID, &price, &o.EstimatedTime, &o.Message, &o.Status,
		&o.ProviderCompleted, &o.IsApproved, &commission, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if o.Price, err = parseDecimal(price); err != nil {
		return nil, err
	}
	if o.CommissionAmount, err = parseDecimal(commission); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *postgresOfferRepository) GetByID(ctx context.Context, id string) (*entity.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx, `SELECT `+offerColumns+` FROM offers WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Offer", err)
		}
		return nil, errors.Internal("Failed to get offer", err)
	}
	return o, nil
}

func (r *postgresOfferRepository) GetByDemandAndProvider(ctx context.Context, demandID, providerID string) (*entity.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE demand_id = $1 AND provider_id = $2`, demandID, providerID))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, nil
		}
		return nil, errors.Internal("Failed to get offer", err)
	}
	return o, nil
}

func (r *postgresOfferRepository) collect(rows pgx.Rows) ([]*entity.Offer, error) {
	defer rows.Close()
	offers := make([]*entity.Offer, 0)
	for rows.Next() {
		o, err := scanOffer(rows)
		if err != nil {
			return nil, err
		}
		offers = append(offers, o)
	}
	return offers, rows.Err()
}

func (r *postgresOfferRepository) ListByDemand(ctx context.Context, demandID string) ([]*entity.Offer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+offerColumns+` FROM offers WHERE demand_id = $1 ORDER BY created_at`, demandID)
	if err != nil {
		return nil, errors.Internal("Failed to list offers", err)
	}
	offers, err := r.collect(rows)
	if err != nil {
		return nil, errors.Internal("Failed to list offers", err)
	}
	return offers, nil
}

func (r *postgresOfferRepository) ListByProvider(ctx context.Context, providerID string, limit, offset int) ([]*entity.Offer, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM offers WHERE provider_id = $1`, providerID).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count offers", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+offerColumns+` FROM offers WHERE provider_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, providerID, limit, offset)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list offers", err)
	}
	offers, err := r.collect(rows)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list offers", err)
	}
	return offers, total, nil
}

// CreateWithCommission locks the provider row, debits the commission and
// inserts the offer. The unique (demand_id, provider_id) constraint is the
// final word on duplicates.
func (r *postgresOfferRepository) CreateWithCommission(ctx context.Context, offer *entity.Offer, commission decimal.Decimal) (decimal.Decimal, error) {
	var newBalance decimal.Decimal
	now := time.Now()

	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var raw string
		err := tx.QueryRow(ctx, `SELECT balance::text FROM users WHERE id = $1 FOR UPDATE`, offer.ProviderID).Scan(&raw)
		if err != nil {
			if postgres.IsNoRows(err) {
				return errors.NotFound("Provider", err)
			}
			return err
		}
		balance, err := parseDecimal(raw)
		if err != nil {
			return err
		}
		if balance.LessThan(commission) {
			return repository.ErrInsufficientBalance
		}

		err = tx.QueryRow(ctx, `
			UPDATE users SET balance = balance - $2::numeric, updated_at = NOW()
			WHERE id = $1
			RETURNING balance::text`, offer.ProviderID, commission.String()).Scan(&raw)
		if err != nil {
			return err
		}
		if newBalance, err = parseDecimal(raw); err != nil {
			return err
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO offers (id, demand_id, provider_id, price, estimated_time, message, status,
				provider_completed, is_approved, commission_amount, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, FALSE, TRUE, $8::numeric, $9, $9)`,
			offer.ID, offer.DemandID, offer.ProviderID, offer.Price.String(), offer.EstimatedTime,
			offer.Message, offer.Status, commission.String(), now)
		if postgres.IsUniqueViolation(err, postgres.ConstraintOfferPerProvider) {
			return repository.ErrDuplicateOffer
		}
		return err
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.Is(err, repository.ErrInsufficientBalance) || stderrors.Is(err, repository.ErrDuplicateOffer) || stderrors.As(err, &appErr) {
			return decimal.Zero, err
		}
		return decimal.Zero, errors.Internal("Failed to create offer", err)
	}

	offer.CommissionAmount = commission
	offer.IsApproved = true
	offer.ProviderCompleted = false
	offer.CreatedAt, offer.UpdatedAt = now, now
	return newBalance, nil
}

// Accept flips the offer to ACCEPTED and closes its demand together.
func (r *postgresOfferRepository) Accept(ctx context.Context, offerID, demandID string) (*entity.Offer, error) {
	var accepted *entity.Offer
	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		o, err := scanOffer(tx.QueryRow(ctx, `
			UPDATE offers SET status = 'ACCEPTED', updated_at = NOW()
			WHERE id = $1 AND demand_id = $2 AND status = 'PENDING'
			RETURNING `+offerColumns, offerID, demandID))
		if err != nil {
			if postgres.IsNoRows(err) {
				return repository.ErrStateChanged
			}
			return err
		}

		tag, err := tx.Exec(ctx, `
			UPDATE demands SET status = 'CLOSED', updated_at = NOW()
			WHERE id = $1 AND status = 'ACTIVE'`, demandID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return repository.ErrStateChanged
		}
		accepted = o
		return nil
	})
	if err != nil {
		if stderrors.Is(err, repository.ErrStateChanged) {
			return nil, err
		}
		return nil, errors.Internal("Failed to accept offer", err)
	}
	return accepted, nil
}

func (r *postgresOfferRepository) updateReturning(ctx context.Context, sql string, args ...interface{}) (*entity.Offer, error) {
	o, err := scanOffer(r.pool.QueryRow(ctx, sql, args...))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, repository.ErrStateChanged
		}
		return nil, errors.Internal("Failed to update offer", err)
	}
	return o, nil
}

func (r *postgresOfferRepository) TransitionStatus(ctx context.Context, offerID string, from, to entity.OfferStatus) (*entity.Offer, error) {
	return r.updateReturning(ctx, `
		UPDATE offers SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
		RETURNING `+offerColumns, offerID, from, to)
}

func (r *postgresOfferRepository) MarkCompleted(ctx context.Context, offerID string) (*entity.Offer, error) {
	return r.updateReturning(ctx, `
		UPDATE offers SET status = 'COMPLETED', provider_completed = TRUE, updated_at = NOW()
		WHERE id = $1 AND status = 'ACCEPTED' AND provider_completed = FALSE
		RETURNING `+offerColumns, offerID)
}

func (r *postgresOfferRepository) Update(ctx context.Context, offer *entity.Offer) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE offers SET price = $2::numeric, estimated_time = $3, message = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		offer.ID, offer.Price.String(), offer.EstimatedTime, offer.Message).Scan(&offer.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return errors.NotFound("Offer", err)
		}
		return errors.Internal("Failed to update offer", err)
	}
	return nil
}

func (r *postgresOfferRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM offers WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to delete offer", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Offer", nil)
	}
	return nil
}
