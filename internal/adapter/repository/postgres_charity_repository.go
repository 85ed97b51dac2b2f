package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/pkg/errors"
)

const charityColumns = `id, name, description, phone, address, city, latitude, longitude, image_url,
	is_active, created_at, updated_at`

type postgresCharityRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCharityRepository(pool *pgxpool.Pool) repository.CharityRepository {
	return &postgresCharityRepository{pool: pool}
}

func scanCharity(row rowScanner) (*entity.Charity, error) {
	var c entity.Charity
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Phone, &c.Address, &c.City, &c.Latitude, &c.Longitude,
		&c.ImageURL, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *postgresCharityRepository) Create(ctx context.Context, c *entity.Charity) error {
	now := time.Now()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO charities (id, name, description, phone, address, city, latitude, longitude,
			image_url, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $11)`,
		c.ID, c.Name, c.Description, c.Phone, c.Address, c.City, c.Latitude, c.Longitude, c.ImageURL, c.IsActive, now)
	if err != nil {
		return errors.Internal("Failed to create charity", err)
	}
	return nil
}

func (r *postgresCharityRepository) GetByID(ctx context.Context, id string) (*entity.Charity, error) {
	c, err := scanCharity(r.pool.QueryRow(ctx, `SELECT `+charityColumns+` FROM charities WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Charity", err)
		}
		return nil, errors.Internal("Failed to get charity", err)
	}
	return c, nil
}

func (r *postgresCharityRepository) List(ctx context.Context, filter repository.CharityFilter) ([]*entity.Charity, error) {
	var w whereClause
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if filter.City != "" {
		w.add("LOWER(city) = LOWER(?)", filter.City)
	}

	rows, err := r.pool.Query(ctx, `SELECT `+charityColumns+` FROM charities`+w.String()+` ORDER BY name`, w.args...)
	if err != nil {
		return nil, errors.Internal("Failed to list charities", err)
	}
	defer rows.Close()

	list := make([]*entity.Charity, 0)
	for rows.Next() {
		c, err := scanCharity(rows)
		if err != nil {
			return nil, errors.Internal("Failed to parse charity data", err)
		}
		list = append(list, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to list charities", err)
	}
	return list, nil
}

func (r *postgresCharityRepository) Update(ctx context.Context, c *entity.Charity) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE charities
		SET name = $2, description = $3, phone = $4, address = $5, city = $6, latitude = $7,
			longitude = $8, image_url = $9, is_active = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		c.ID, c.Name, c.Description, c.Phone, c.Address, c.City, c.Latitude, c.Longitude, c.ImageURL, c.IsActive).
		Scan(&c.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return errors.NotFound("Charity", err)
		}
		return errors.Internal("Failed to update charity", err)
	}
	return nil
}

func (r *postgresCharityRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM charities WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to delete charity", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Charity", nil)
	}
	return nil
}
