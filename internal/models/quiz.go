package models

import "gorm.io/datatypes"

// QuizQuestion is static reference data, immutable at runtime.
type QuizQuestion struct {
	ID            string                      `json:"id" gorm:"primaryKey;size:64"`
	Subject       string                      `json:"subject" gorm:"not null;index;size:100"`
	Question      string                      `json:"question" gorm:"type:text;not null"`
	Options       datatypes.JSONSlice[string] `json:"options" gorm:"type:jsonb"`
	CorrectAnswer int                         `json:"correctAnswer"`
	Points        int                         `json:"points" gorm:"default:10"`
}

func (QuizQuestion) TableName() string {
	return "quiz_questions"
}

// IsCorrect applies exact index equality.
func (q *QuizQuestion) IsCorrect(option int) bool {
	return option == q.CorrectAnswer
}
