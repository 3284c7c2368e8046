package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type NotificationPostgreSQL struct {
	db *gorm.DB
}

func NewNotificationPostgreSQL(db *gorm.DB) repositories.NotificationRepository {
	return &NotificationPostgreSQL{db: db}
}

func (n *NotificationPostgreSQL) Create(ctx context.Context, notification *models.Notification) error {
	if err := n.db.WithContext(ctx).Create(notification).Error; err != nil {
		return handleDBError(err, "create notification")
	}
	return nil
}

func (n *NotificationPostgreSQL) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	var notification models.Notification
	if err := n.db.WithContext(ctx).Where("id = ?", id).First(&notification).Error; err != nil {
		return nil, handleDBError(err, "get notification")
	}
	return &notification, nil
}

func (n *NotificationPostgreSQL) List(ctx context.Context) ([]*models.Notification, error) {
	var notifications []*models.Notification
	if err := n.db.WithContext(ctx).Order("timestamp DESC").Find(&notifications).Error; err != nil {
		return nil, handleDBError(err, "list notifications")
	}
	return notifications, nil
}

func (n *NotificationPostgreSQL) ListForStudent(ctx context.Context, studentID string) ([]*models.Notification, error) {
	var notifications []*models.Notification
	err := n.db.WithContext(ctx).
		Where("target_student_id IS NULL OR target_student_id = ?", studentID).
		Order("timestamp DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, handleDBError(err, "list student notifications")
	}
	return notifications, nil
}

// MarkRead appends under a row lock so two concurrent receipts cannot duplicate the id
func (n *NotificationPostgreSQL) MarkRead(ctx context.Context, id, studentID string) (bool, error) {
	changed := false
	err := n.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var notification models.Notification
		if err := forUpdate(tx).Where("id = ?", id).First(&notification).Error; err != nil {
			return handleDBError(err, "lock notification")
		}
		if notification.IsReadBy(studentID) {
			return nil
		}

		notification.ReadBy = append(notification.ReadBy, studentID)
		if err := tx.Model(&notification).UpdateColumn("read_by", notification.ReadBy).Error; err != nil {
			return handleDBError(err, "update read receipts")
		}
		changed = true
		return nil
	})
	return changed, err
}

func (n *NotificationPostgreSQL) Delete(ctx context.Context, id string) error {
	result := n.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Notification{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete notification")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete notification: %w", repositories.ErrNotFound)
	}
	return nil
}
