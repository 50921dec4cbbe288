package repository

import (
	"context"
	"time"

	"github.com/famquest/family-server-go/internal/database"
	"github.com/famquest/family-server-go/internal/model"
)

type NotificationRepository interface {
	Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error)
	FindForUser(ctx context.Context, familyID, userID string, limit int) ([]model.Notification, error)
	// MarkRead flags a notification read. The update is scoped to the caller's
	// family and addressee, and reports whether a row matched.
	MarkRead(ctx context.Context, id, familyID, userID string) (bool, error)
	DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int64, error)
}

type notificationRepo struct {
	db database.DBTX
}

func NewNotificationRepository(db database.DBTX) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, params model.CreateNotificationParams) (*model.Notification, error) {
	var n model.Notification
	err := r.db.GetContext(ctx, &n, `
		INSERT INTO notifications (family_id, to_user_id, n_type, payload)
		VALUES ($1, $2, $3, $4)
		RETURNING *
	`, params.FamilyID, params.ToUserID, params.NType, params.Payload)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func (r *notificationRepo) FindForUser(ctx context.Context, familyID, userID string, limit int) ([]model.Notification, error) {
	var notifications []model.Notification
	err := r.db.SelectContext(ctx, &notifications, `
		SELECT * FROM notifications
		WHERE family_id = $1 AND (to_user_id IS NULL OR to_user_id = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`, familyID, userID, limit)
	return notifications, err
}

func (r *notificationRepo) MarkRead(ctx context.Context, id, familyID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND family_id = $2 AND (to_user_id IS NULL OR to_user_id = $3)
	`, id, familyID, userID)
	if err != nil {
		return false, err
	}
	n, err := result.RowsAffected()
	return n > 0, err
}

func (r *notificationRepo) DeleteReadOlderThan(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `
		DELETE FROM notifications
		WHERE is_read = TRUE AND created_at < $1
	`, olderThan)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
