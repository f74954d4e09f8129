package store

import (
	"context"

	"household/internal/models"
)

type NotificationStore struct {
	db DB
}

func NewNotificationStore(db DB) *NotificationStore {
	return &NotificationStore{db: db}
}

const notificationColumns = `id, user_id, family_id, kind, title, message, is_read, is_important, created_at`

func (s *NotificationStore) Create(ctx context.Context, tx Execer, n models.Notification) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, family_id, kind, title, message, is_important)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, n.ID, n.UserID, n.FamilyID, n.Kind, n.Title, n.Message, n.IsImportant)
	return err
}

func (s *NotificationStore) List(ctx context.Context, filter NotificationFilter, unreadOnly bool) ([]models.Notification, error) {
	where, args := filter.clause(1)
	if unreadOnly {
		where += " AND is_read = FALSE"
	}
	var rows []models.Notification
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE `+where+`
		ORDER BY created_at DESC
	`, args...)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *NotificationStore) GetByID(ctx context.Context, q Getter, notificationID string) (models.Notification, error) {
	var row models.Notification
	err := q.GetContext(ctx, &row, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, notificationID)
	if err != nil {
		return models.Notification{}, err
	}
	return row, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, tx Execer, notificationID string) error {
	_, err := tx.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = $1`, notificationID)
	return err
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, filter NotificationFilter) (int64, error) {
	where, args := filter.clause(1)
	return rowsAffected(s.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE is_read = FALSE AND `+where, args...))
}

func (s *NotificationStore) Delete(ctx context.Context, tx Execer, notificationID string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1`, notificationID)
	return err
}
