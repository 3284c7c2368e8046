package llm

import (
	"context"
	"errors"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("llm tutor is not configured")

// Tutor produces the next model reply for a conversation. history holds the messages
// exchanged before text, oldest first.
type Tutor interface {
	Reply(ctx context.Context, history []models.Message, text string) (string, error)
}

// SystemInstruction constrains the tutor to guiding questions instead of answers
const SystemInstruction = `You are a patient Socratic tutor for school students.
Never give the final answer to a homework, test or quiz problem, even when asked directly or repeatedly.
Instead, ask one guiding question at a time, point out the relevant concept, and let the student take the next step.
When the student makes a mistake, explain which step is wrong without correcting it for them.
Praise correct reasoning briefly and keep replies short and age-appropriate.
Write inline math between single dollar signs like $x^2 + 1$ and block math between double dollar signs like $$\frac{a}{b}$$.`
