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

const demandSelect = `
	SELECT d.id, d.demand_number, d.user_id::text, d.category_id::text, c.name, d.title, d.description,
		d.city, d.district, d.answers, d.status, d.is_approved,
		(SELECT COUNT(*) FROM offers o WHERE o.demand_id = d.id),
		d.created_at, d.updated_at
	FROM demands d
	JOIN categories c ON c.id = d.category_id`

type postgresDemandRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresDemandRepository(pool *pgxpool.Pool) repository.DemandRepository {
	return &postgresDemandRepository{pool: pool}
}

func scanDemand(row rowScanner) (*entity.Demand, error) {
	var (
		d       entity.Demand
		answers []byte
	)
	err := row.Scan(&d.ID, &d.DemandNumber, &d.UserID, &d.CategoryID, &d.CategoryName, &d.Title, &d.Description,
		&d.City, &d.District, &answers, &d.Status, &d.IsApproved, &d.OfferCount, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.Answers = rawJSON(answers)
	return &d, nil
}

func (r *postgresDemandRepository) Create(ctx context.Context, demand *entity.Demand) error {
	now := time.Now()
	demand.CreatedAt, demand.UpdatedAt = now, now

	err := r.pool.QueryRow(ctx, `
		INSERT INTO demands (id, user_id, category_id, title, description, city, district, answers,
			status, is_approved, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9, $10, $11, $11)
		RETURNING demand_number`,
		demand.ID, demand.UserID, demand.CategoryID, demand.Title, demand.Description, demand.City,
		demand.District, jsonParam(demand.Answers), demand.Status, demand.IsApproved, now).
		Scan(&demand.DemandNumber)
	if err != nil {
		return errors.Internal("Failed to create demand", err)
	}
	return nil
}

func (r *postgresDemandRepository) GetByID(ctx context.Context, id string) (*entity.Demand, error) {
	d, err := scanDemand(r.pool.QueryRow(ctx, demandSelect+` WHERE d.id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Demand", err)
		}
		return nil, errors.Internal("Failed to get demand", err)
	}
	return d, nil
}

func (r *postgresDemandRepository) List(ctx context.Context, filter repository.DemandFilter, limit, offset int) ([]*entity.Demand, int64, error) {
	if filter.CategoryIDs != nil && len(filter.CategoryIDs) == 0 {
		return []*entity.Demand{}, 0, nil
	}

	var w whereClause
	if filter.OwnerID != "" {
		w.add("d.user_id = ?", filter.OwnerID)
	}
	if filter.CategoryID != "" {
		w.add("d.category_id = ?", filter.CategoryID)
	}
	if filter.CategoryIDs != nil {
		w.add("d.category_id = ANY(?::text[]::uuid[])", filter.CategoryIDs)
	}
	if filter.Status != "" {
		w.add("d.status = ?", filter.Status)
	}
	if filter.IsApproved != nil {
		w.add("d.is_approved = ?", *filter.IsApproved)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM demands d`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count demands", err)
	}

	suffix, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, demandSelect+w.String()+` ORDER BY d.created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list demands", err)
	}
	defer rows.Close()

	demands := make([]*entity.Demand, 0)
	for rows.Next() {
		d, err := scanDemand(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to parse demand data", err)
		}
		demands = append(demands, d)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to list demands", err)
	}
	return demands, total, nil
}

func (r *postgresDemandRepository) UpdateStatus(ctx context.Context, id string, status entity.DemandStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE demands SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return errors.Internal("Failed to update demand status", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Demand", nil)
	}
	return nil
}

// SetApproval sets the moderation flag; an empty status leaves status as is.
func (r *postgresDemandRepository) SetApproval(ctx context.Context, id string, approved bool, status entity.DemandStatus) (*entity.Demand, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE demands
		SET is_approved = $2, status = COALESCE(NULLIF($3, ''), status), updated_at = NOW()
		WHERE id = $1`, id, approved, string(status))
	if err != nil {
		return nil, errors.Internal("Failed to update demand approval", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, errors.NotFound("Demand", nil)
	}
	return r.GetByID(ctx, id)
}

func (r *postgresDemandRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM demands WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to delete demand", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Demand", nil)
	}
	return nil
}
