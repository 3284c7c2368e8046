package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

//go:embed questions.json
var questionsJSON []byte

// SeedQuestions returns the built-in question set
func SeedQuestions() ([]*models.QuizQuestion, error) {
	var questions []*models.QuizQuestion
	if err := json.Unmarshal(questionsJSON, &questions); err != nil {
		return nil, fmt.Errorf("failed to parse embedded questions: %w", err)
	}
	return questions, nil
}
