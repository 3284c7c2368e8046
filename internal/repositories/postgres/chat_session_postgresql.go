package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

type ChatSessionPostgreSQL struct {
	db *gorm.DB
}

func NewChatSessionPostgreSQL(db *gorm.DB) repositories.ChatSessionRepository {
	return &ChatSessionPostgreSQL{db: db}
}

// Save overwrites the whole transcript
func (c *ChatSessionPostgreSQL) Save(ctx context.Context, session *models.ChatSession) error {
	if err := upsertAll(c.db.WithContext(ctx)).Create(session).Error; err != nil {
		return handleDBError(err, "save chat session")
	}
	return nil
}

func (c *ChatSessionPostgreSQL) GetByID(ctx context.Context, id string) (*models.ChatSession, error) {
	var session models.ChatSession
	if err := c.db.WithContext(ctx).Where("id = ?", id).First(&session).Error; err != nil {
		return nil, handleDBError(err, "get chat session")
	}
	return &session, nil
}

func (c *ChatSessionPostgreSQL) List(ctx context.Context) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	if err := c.db.WithContext(ctx).Order("start_time ASC, id ASC").Find(&sessions).Error; err != nil {
		return nil, handleDBError(err, "list chat sessions")
	}
	return sessions, nil
}

func (c *ChatSessionPostgreSQL) ListByStudent(ctx context.Context, studentID string) ([]*models.ChatSession, error) {
	var sessions []*models.ChatSession
	err := c.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("start_time DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, handleDBError(err, "list student chat sessions")
	}
	return sessions, nil
}

func (c *ChatSessionPostgreSQL) Delete(ctx context.Context, id string) error {
	result := c.db.WithContext(ctx).Where("id = ?", id).Delete(&models.ChatSession{})
	if result.Error != nil {
		return handleDBError(result.Error, "delete chat session")
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("delete chat session: %w", repositories.ErrNotFound)
	}
	return nil
}

func (c *ChatSessionPostgreSQL) ReplaceAll(ctx context.Context, sessions []*models.ChatSession) error {
	db := c.db.WithContext(ctx)
	if err := deleteAll(db, &models.ChatSession{}); err != nil {
		return handleDBError(err, "clear chat sessions")
	}
	if len(sessions) == 0 {
		return nil
	}
	if err := db.CreateInBatches(sessions, batchSize).Error; err != nil {
		return handleDBError(err, "insert chat sessions")
	}
	return nil
}
