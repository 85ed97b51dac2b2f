package repository

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/pkg/errors"
)

const reviewColumns = `id, reviewer_id::text, reviewed_user_id::text, offer_id::text, rating, comment, created_at`

type postgresReviewRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresReviewRepository(pool *pgxpool.Pool) repository.ReviewRepository {
	return &postgresReviewRepository{pool: pool}
}

func scanReview(row rowScanner) (*entity.Review, error) {
	var rv entity.Review
	err := row.Scan(&rv.ID, &rv.ReviewerID, &rv.ReviewedUserID, &rv.OfferID, &rv.Rating, &rv.Comment, &rv.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// refreshRating rewrites the user's rating from the committed reviews. The
// caller holds the user row lock so concurrent writers serialize on it.
func refreshRating(ctx context.Context, tx pgx.Tx, userID string) error {
	_, err := tx.Exec(ctx, `
		UPDATE users SET
			rating = (SELECT COALESCE(AVG(rating), 0)::float8 FROM reviews WHERE reviewed_user_id = $1),
			rating_count = (SELECT COUNT(*) FROM reviews WHERE reviewed_user_id = $1),
			updated_at = NOW()
		WHERE id = $1`, userID)
	return err
}

func lockUser(ctx context.Context, tx pgx.Tx, userID string) error {
	var one int
	err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&one)
	if postgres.IsNoRows(err) {
		return errors.NotFound("User", err)
	}
	return err
}

// Create inserts the review and refreshes the reviewed user's rating in the
// same transaction.
func (r *postgresReviewRepository) Create(ctx context.Context, review *entity.Review) error {
	review.CreatedAt = time.Now()
	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if err := lockUser(ctx, tx, review.ReviewedUserID); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO reviews (id, reviewer_id, reviewed_user_id, offer_id, rating, comment, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			review.ID, review.ReviewerID, review.ReviewedUserID, review.OfferID, review.Rating, review.Comment, review.CreatedAt)
		if err != nil {
			if postgres.IsUniqueViolation(err, postgres.ConstraintReviewPerOffer) ||
				postgres.IsUniqueViolation(err, postgres.ConstraintReviewPerUserPair) {
				return repository.ErrDuplicateReview
			}
			return err
		}
		return refreshRating(ctx, tx, review.ReviewedUserID)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.Is(err, repository.ErrDuplicateReview) || stderrors.As(err, &appErr) {
			return err
		}
		return errors.Internal("Failed to create review", err)
	}
	return nil
}

func (r *postgresReviewRepository) GetByID(ctx context.Context, id string) (*entity.Review, error) {
	rv, err := scanReview(r.pool.QueryRow(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Review", err)
		}
		return nil, errors.Internal("Failed to get review", err)
	}
	return rv, nil
}

// Delete removes the review and refreshes the reviewed user's rating in the
// same transaction.
func (r *postgresReviewRepository) Delete(ctx context.Context, id string) error {
	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var reviewedUserID string
		err := tx.QueryRow(ctx, `SELECT reviewed_user_id::text FROM reviews WHERE id = $1`, id).Scan(&reviewedUserID)
		if err != nil {
			if postgres.IsNoRows(err) {
				return errors.NotFound("Review", err)
			}
			return err
		}
		if err := lockUser(ctx, tx, reviewedUserID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return errors.NotFound("Review", nil)
		}
		return refreshRating(ctx, tx, reviewedUserID)
	})
	if err != nil {
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			return err
		}
		return errors.Internal("Failed to delete review", err)
	}
	return nil
}

func (r *postgresReviewRepository) exists(ctx context.Context, sql string, args ...interface{}) (bool, error) {
	var ok bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (`+sql+`)`, args...).Scan(&ok); err != nil {
		return false, errors.Internal("Failed to check review", err)
	}
	return ok, nil
}

func (r *postgresReviewRepository) ExistsForPair(ctx context.Context, reviewerID, reviewedUserID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM reviews WHERE reviewer_id = $1 AND reviewed_user_id = $2 AND offer_id IS NULL`,
		reviewerID, reviewedUserID)
}

func (r *postgresReviewRepository) ExistsForOffer(ctx context.Context, reviewerID, offerID string) (bool, error) {
	return r.exists(ctx, `SELECT 1 FROM reviews WHERE reviewer_id = $1 AND offer_id = $2`, reviewerID, offerID)
}

func (r *postgresReviewRepository) ListByReviewedUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Review, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM reviews WHERE reviewed_user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count reviews", err)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE reviewed_user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list reviews", err)
	}
	defer rows.Close()

	reviews := make([]*entity.Review, 0)
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to parse review data", err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to list reviews", err)
	}
	return reviews, total, nil
}
