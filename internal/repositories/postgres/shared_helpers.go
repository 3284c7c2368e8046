package postgres

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/SAP-F-2025/tutor-service/internal/repositories"
)

// handleDBError wraps a gorm error with the failed operation and maps
// gorm.ErrRecordNotFound to repositories.ErrNotFound
func handleDBError(err error, operation string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", operation, repositories.ErrNotFound)
	}
	return fmt.Errorf("%s failed: %w", operation, err)
}

// forUpdate adds SELECT ... FOR UPDATE
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

// upsertAll is ON CONFLICT (pk) DO UPDATE SET every column
func upsertAll(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.OnConflict{UpdateAll: true})
}

// deleteAll removes every row of the model's table
func deleteAll(db *gorm.DB, model interface{}) error {
	return db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error
}

const batchSize = 200
