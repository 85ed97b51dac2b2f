package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/pkg/errors"
)

const userColumns = `id, phone_number, name, email, user_type, is_admin, is_active, balance::text,
	rating, rating_count, fcm_token, password_hash, created_at, updated_at`

type postgresUserRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresUserRepository(pool *pgxpool.Pool) repository.UserRepository {
	return &postgresUserRepository{pool: pool}
}

func scanUser(row rowScanner) (*entity.User, error) {
	var (
		u       entity.User
		balance string
	)
	err := row.Scan(&u.ID, &u.PhoneNumber, &u.Name, &u.Email, &u.UserType, &u.IsAdmin, &u.IsActive, &balance,
		&u.Rating, &u.RatingCount, &u.FCMToken, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if u.Balance, err = parseDecimal(balance); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *entity.User) error {
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, phone_number, name, email, user_type, is_admin, is_active, balance,
			rating, rating_count, fcm_token, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, 0, 0, $9, $10, $11, $11)`,
		user.ID, user.PhoneNumber, user.Name, user.Email, user.UserType, user.IsAdmin, user.IsActive,
		user.Balance.String(), user.FCMToken, user.PasswordHash, now)
	if err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintUsersPhone) {
			return repository.ErrDuplicatePhone
		}
		return errors.Internal("Failed to create user", err)
	}
	return nil
}

func (r *postgresUserRepository) getOne(ctx context.Context, where string, arg interface{}) (*entity.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE `+where, arg))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("User", err)
		}
		return nil, errors.Internal("Failed to get user", err)
	}
	return u, nil
}

func (r *postgresUserRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

func (r *postgresUserRepository) GetByPhone(ctx context.Context, phone string) (*entity.User, error) {
	return r.getOne(ctx, "phone_number = $1", phone)
}

// Update writes profile and account flags. Balance and rating have their
// own write paths and are never touched here.
func (r *postgresUserRepository) Update(ctx context.Context, user *entity.User) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, email = $3, user_type = $4, is_admin = $5, is_active = $6,
			fcm_token = $7, password_hash = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		user.ID, user.Name, user.Email, user.UserType, user.IsAdmin, user.IsActive,
		user.FCMToken, user.PasswordHash).Scan(&user.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return errors.NotFound("User", err)
		}
		return errors.Internal("Failed to update user", err)
	}
	return nil
}

func (r *postgresUserRepository) List(ctx context.Context, filter repository.UserFilter, limit, offset int) ([]*entity.User, int64, error) {
	var w whereClause
	if filter.UserType != nil {
		w.add("user_type = ?", *filter.UserType)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count users", err)
	}

	suffix, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users`+w.String()+` ORDER BY created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list users", err)
	}
	defer rows.Close()

	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to parse user data", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to list users", err)
	}
	return users, total, nil
}

func (r *postgresUserRepository) AddBalance(ctx context.Context, userID string, amount, limit decimal.Decimal) (decimal.Decimal, error) {
	var raw string
	err := r.pool.QueryRow(ctx, `
		UPDATE users SET balance = balance + $2::numeric, updated_at = NOW()
		WHERE id = $1 AND balance + $2::numeric <= $3::numeric
		RETURNING balance::text`, userID, amount.String(), limit.String()).Scan(&raw)
	if err != nil {
		if !postgres.IsNoRows(err) {
			return decimal.Zero, errors.Internal("Failed to credit balance", err)
		}
		if _, err := r.GetByID(ctx, userID); err != nil {
			return decimal.Zero, err
		}
		return decimal.Zero, repository.ErrBalanceLimit
	}
	balance, err := parseDecimal(raw)
	if err != nil {
		return decimal.Zero, errors.Internal("Failed to parse balance", err)
	}
	return balance, nil
}

func (r *postgresUserRepository) GetCategoryIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category_id::text FROM user_categories WHERE user_id = $1 ORDER BY category_id`, userID)
	if err != nil {
		return nil, errors.Internal("Failed to get user categories", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Internal("Failed to get user categories", err)
	}
	return ids, nil
}

func (r *postgresUserRepository) ReplaceCategories(ctx context.Context, userID string, categoryIDs []string) error {
	err := postgres.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM user_categories WHERE user_id = $1`, userID); err != nil {
			return err
		}
		if len(categoryIDs) == 0 {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO user_categories (user_id, category_id)
			SELECT $1, c FROM unnest($2::text[]::uuid[]) AS c
			ON CONFLICT DO NOTHING`, userID, categoryIDs)
		return err
	})
	if err != nil {
		return errors.Internal("Failed to replace user categories", err)
	}
	return nil
}
