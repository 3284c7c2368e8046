package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/tutor-service/internal/catalog"
	"github.com/SAP-F-2025/tutor-service/internal/events"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

type storeService struct {
	repo    repositories.Repository
	logger  *slog.Logger
	changes changeNotifier
}

func NewStoreService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) StoreService {
	return &storeService{
		repo:    repo,
		logger:  logger,
		changes: changeNotifier{publisher: publisher, logger: logger},
	}
}

func (s *storeService) Catalog() StoreCatalog {
	return StoreCatalog{
		Frames:      catalog.Frames(),
		Backgrounds: catalog.Backgrounds(),
	}
}

// Purchase charges the price and grants the item in one row-locked transaction, so two
// concurrent purchases of the same item charge once.
func (s *storeService) Purchase(ctx context.Context, sess *session.Session, itemID string) (*models.StudentProfile, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}
	item, ok := catalog.FindItem(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}

	s.logger.Info("Purchasing item", "student_id", sess.SubjectID(), "item_id", itemID, "price", item.Price)

	profile, err := s.mutate(ctx, sess.SubjectID(), func(st *models.StudentProfile) error {
		if st.Owns(item.Category, item.ID) {
			return ErrItemAlreadyOwned
		}
		if st.Score < item.Price {
			return ErrInsufficientPoints
		}
		st.Score -= item.Price
		st.Grant(item.Category, item.ID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sess.SetProfile(profile)
	return profile, nil
}

// Equip activates an owned item. Equipping the active item takes it off.
func (s *storeService) Equip(ctx context.Context, sess *session.Session, itemID string) (*models.StudentProfile, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}
	item, ok := catalog.FindItem(itemID)
	if !ok {
		return nil, ErrItemNotFound
	}

	profile, err := s.mutate(ctx, sess.SubjectID(), func(st *models.StudentProfile) error {
		if !st.Owns(item.Category, item.ID) {
			return ErrItemNotOwned
		}
		if active := st.Equipped(item.Category); active != nil && *active == item.ID {
			st.SetEquipped(item.Category, nil)
			return nil
		}
		id := item.ID
		st.SetEquipped(item.Category, &id)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sess.SetProfile(profile)
	return profile, nil
}

func (s *storeService) mutate(ctx context.Context, studentID string, fn func(*models.StudentProfile) error) (*models.StudentProfile, error) {
	var updated *models.StudentProfile
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		st, err := tx.Student().GetByIDForUpdate(ctx, studentID)
		if err != nil {
			return mapNotFound(err, ErrStudentNotFound)
		}
		if err := fn(st); err != nil {
			return err
		}
		if err := tx.Student().Save(ctx, st); err != nil {
			return fmt.Errorf("failed to save student: %w", err)
		}
		updated = st
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changes.notify(ctx, events.TopicStudentsChanged, events.ActionUpdated, studentID)
	return updated, nil
}
