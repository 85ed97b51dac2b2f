package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"servicemarket/internal/domain/entity"
	"servicemarket/internal/domain/repository"
	"servicemarket/internal/infrastructure/postgres"
	"servicemarket/pkg/errors"
)

const categoryColumns = `id, name, description, parent_id::text, commission_rate::text, is_active,
	image_url, questions, created_at, updated_at`

type postgresCategoryRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresCategoryRepository(pool *pgxpool.Pool) repository.CategoryRepository {
	return &postgresCategoryRepository{pool: pool}
}

func scanCategory(row rowScanner) (*entity.Category, error) {
	var (
		c         entity.Category
		rate      *string
		questions []byte
	)
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.ParentID, &rate, &c.IsActive,
		&c.ImageURL, &questions, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if c.CommissionRate, err = parseNullableDecimal(rate); err != nil {
		return nil, err
	}
	c.Questions = rawJSON(questions)
	return &c, nil
}

func (r *postgresCategoryRepository) Create(ctx context.Context, category *entity.Category) error {
	now := time.Now()
	category.CreatedAt, category.UpdatedAt = now, now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO categories (id, name, description, parent_id, commission_rate, is_active,
			image_url, questions, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5::numeric, $6, $7, $8::jsonb, $9, $9)`,
		category.ID, category.Name, category.Description, category.ParentID,
		nullableDecimalParam(category.CommissionRate), category.IsActive, category.ImageURL,
		jsonParam(category.Questions), now)
	if err != nil {
		if postgres.IsUniqueViolation(err, postgres.ConstraintCategoriesName) {
			return repository.ErrDuplicateCategory
		}
		return errors.Internal("Failed to create category", err)
	}
	return nil
}

func (r *postgresCategoryRepository) GetByID(ctx context.Context, id string) (*entity.Category, error) {
	c, err := scanCategory(r.pool.QueryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Category", err)
		}
		return nil, errors.Internal("Failed to get category", err)
	}
	return c, nil
}

func (r *postgresCategoryRepository) GetByIDs(ctx context.Context, ids []string) ([]*entity.Category, error) {
	if len(ids) == 0 {
		return []*entity.Category{}, nil
	}
	return r.query(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ANY($1::text[]::uuid[]) ORDER BY name`, ids)
}

func (r *postgresCategoryRepository) List(ctx context.Context, filter repository.CategoryFilter) ([]*entity.Category, error) {
	var w whereClause
	if filter.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if filter.RootOnly {
		w.add("parent_id IS NULL")
	} else if filter.ParentID != nil {
		w.add("parent_id = ?", *filter.ParentID)
	}
	return r.query(ctx, `SELECT `+categoryColumns+` FROM categories`+w.String()+` ORDER BY name`, w.args...)
}

func (r *postgresCategoryRepository) query(ctx context.Context, sql string, args ...interface{}) ([]*entity.Category, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Internal("Failed to list categories", err)
	}
	defer rows.Close()

	categories := make([]*entity.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, errors.Internal("Failed to parse category data", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Internal("Failed to list categories", err)
	}
	return categories, nil
}

func (r *postgresCategoryRepository) ListChildIDs(ctx context.Context, parentID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text FROM categories WHERE parent_id = $1 ORDER BY id`, parentID)
	if err != nil {
		return nil, errors.Internal("Failed to list child categories", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, errors.Internal("Failed to list child categories", err)
	}
	return ids, nil
}

func (r *postgresCategoryRepository) Update(ctx context.Context, category *entity.Category) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE categories
		SET name = $2, description = $3, parent_id = $4, commission_rate = $5::numeric,
			is_active = $6, image_url = $7, questions = $8::jsonb, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`,
		category.ID, category.Name, category.Description, category.ParentID,
		nullableDecimalParam(category.CommissionRate), category.IsActive, category.ImageURL,
		jsonParam(category.Questions)).Scan(&category.UpdatedAt)
	if err != nil {
		if postgres.IsNoRows(err) {
			return errors.NotFound("Category", err)
		}
		if postgres.IsUniqueViolation(err, postgres.ConstraintCategoriesName) {
			return repository.ErrDuplicateCategory
		}
		return errors.Internal("Failed to update category", err)
	}
	return nil
}

func (r *postgresCategoryRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to delete category", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Category", nil)
	}
	return nil
}

func (r *postgresCategoryRepository) CountReferences(ctx context.Context, id string) (entity.CategoryReferences, error) {
	var refs entity.CategoryReferences
	err := r.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM demands WHERE category_id = $1),
			(SELECT COUNT(*) FROM categories WHERE parent_id = $1),
			(SELECT COUNT(*) FROM user_categories WHERE category_id = $1)`, id).
		Scan(&refs.Demands, &refs.Children, &refs.Subscribers)
	if err != nil {
		return refs, errors.Internal("Failed to count category references", err)
	}
	return refs, nil
}
