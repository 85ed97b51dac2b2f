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

const notificationColumns = `id, user_id::text, title, message, type, data, is_read, created_at`

type postgresNotificationRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresNotificationRepository(pool *pgxpool.Pool) repository.NotificationRepository {
	return &postgresNotificationRepository{pool: pool}
}

func scanNotification(row rowScanner) (*entity.Notification, error) {
	var (
		n    entity.Notification
		data []byte
	)
	if err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Type, &data, &n.IsRead, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.Data = rawJSON(data)
	return &n, nil
}

func (r *postgresNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	n.CreatedAt = time.Now()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO notifications (id, user_id, title, message, type, data, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8)`,
		n.ID, n.UserID, n.Title, n.Message, n.Type, jsonParam(n.Data), n.IsRead, n.CreatedAt)
	if err != nil {
		return errors.Internal("Failed to create notification", err)
	}
	return nil
}

func (r *postgresNotificationRepository) GetByID(ctx context.Context, id string) (*entity.Notification, error) {
	n, err := scanNotification(r.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		if postgres.IsNoRows(err) {
			return nil, errors.NotFound("Notification", err)
		}
		return nil, errors.Internal("Failed to get notification", err)
	}
	return n, nil
}

func (r *postgresNotificationRepository) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit, offset int) ([]*entity.Notification, int64, error) {
	var w whereClause
	w.add("user_id = ?", userID)
	if unreadOnly {
		w.add("is_read = FALSE")
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, errors.Internal("Failed to count notifications", err)
	}

	suffix, args := w.page(limit, offset)
	rows, err := r.pool.Query(ctx, `SELECT `+notificationColumns+` FROM notifications`+w.String()+
		` ORDER BY created_at DESC`+suffix, args...)
	if err != nil {
		return nil, 0, errors.Internal("Failed to list notifications", err)
	}
	defer rows.Close()

	list := make([]*entity.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, errors.Internal("Failed to parse notification data", err)
		}
		list = append(list, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Internal("Failed to list notifications", err)
	}
	return list, total, nil
}

func (r *postgresNotificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&n)
	if err != nil {
		return 0, errors.Internal("Failed to count notifications", err)
	}
	return n, nil
}

func (r *postgresNotificationRepository) MarkRead(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Internal("Failed to update notification", err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NotFound("Notification", nil)
	}
	return nil
}

func (r *postgresNotificationRepository) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, errors.Internal("Failed to update notifications", err)
	}
	return tag.RowsAffected(), nil
}
