package memory

import (
	"context"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

type questionRepository struct {
	r *Repository
}

func cloneQuestion(q *models.QuizQuestion) *models.QuizQuestion {
	c := *q
	if q.Options != nil {
		c.Options = append(c.Options[:0:0], q.Options...)
	}
	return &c
}

func (q *questionRepository) List(ctx context.Context) ([]*models.QuizQuestion, error) {
	defer q.r.lock()()

	out := make([]*models.QuizQuestion, 0, len(q.r.store.questions))
	for _, item := range q.r.store.questions {
		out = append(out, cloneQuestion(item))
	}
	return out, nil
}

func (q *questionRepository) ListBySubject(ctx context.Context, subject string) ([]*models.QuizQuestion, error) {
	defer q.r.lock()()

	var out []*models.QuizQuestion
	for _, item := range q.r.store.questions {
		if item.Subject == subject {
			out = append(out, cloneQuestion(item))
		}
	}
	return out, nil
}

func (q *questionRepository) UpsertMany(ctx context.Context, questions []*models.QuizQuestion) error {
	defer q.r.lock()()

	for _, incoming := range questions {
		replaced := false
		for i, existing := range q.r.store.questions {
			if existing.ID == incoming.ID {
				q.r.store.questions[i] = cloneQuestion(incoming)
				replaced = true
				break
			}
		}
		if !replaced {
			q.r.store.questions = append(q.r.store.questions, cloneQuestion(incoming))
		}
	}
	return nil
}

func (q *questionRepository) Count(ctx context.Context) (int64, error) {
	defer q.r.lock()()
	return int64(len(q.r.store.questions)), nil
}
