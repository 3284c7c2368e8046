package memory

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type notificationRepository struct {
	r *Repository
}

func cloneNotification(n *models.Notification) *models.Notification {
	c := *n
	if n.ReadBy != nil {
		c.ReadBy = append(c.ReadBy[:0:0], n.ReadBy...)
	}
	if n.Attachment != nil {
		a := *n.Attachment
		c.Attachment = &a
	}
	if n.TargetStudentID != nil {
		id := *n.TargetStudentID
		c.TargetStudentID = &id
	}
	return &c
}

func (n *notificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	defer n.r.lock()()

	n.r.store.notifications = append(n.r.store.notifications, cloneNotification(notification))
	return nil
}

func (n *notificationRepository) GetByID(ctx context.Context, id string) (*models.Notification, error) {
	defer n.r.lock()()

	if found := n.find(id); found != nil {
		return cloneNotification(found), nil
	}
	return nil, fmt.Errorf("notification %s: %w", id, repositories.ErrNotFound)
}

// List returns newest first
func (n *notificationRepository) List(ctx context.Context) ([]*models.Notification, error) {
	defer n.r.lock()()

	out := make([]*models.Notification, 0, len(n.r.store.notifications))
	for i := len(n.r.store.notifications) - 1; i >= 0; i-- {
		out = append(out, cloneNotification(n.r.store.notifications[i]))
	}
	return out, nil
}

func (n *notificationRepository) ListForStudent(ctx context.Context, studentID string) ([]*models.Notification, error) {
	all, err := n.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*models.Notification, 0, len(all))
	for _, item := range all {
		if item.RelevantTo(studentID) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (n *notificationRepository) MarkRead(ctx context.Context, id, studentID string) (bool, error) {
	defer n.r.lock()()

	found := n.find(id)
	if found == nil {
		return false, fmt.Errorf("notification %s: %w", id, repositories.ErrNotFound)
	}
	if found.IsReadBy(studentID) {
		return false, nil
	}
	found.ReadBy = append(found.ReadBy, studentID)
	return true, nil
}

func (n *notificationRepository) Delete(ctx context.Context, id string) error {
	defer n.r.lock()()

	for i, item := range n.r.store.notifications {
		if item.ID == id {
			n.r.store.notifications = append(n.r.store.notifications[:i:i], n.r.store.notifications[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("notification %s: %w", id, repositories.ErrNotFound)
}

func (n *notificationRepository) find(id string) *models.Notification {
	for _, item := range n.r.store.notifications {
		if item.ID == id {
			return item
		}
	}
	return nil
}
