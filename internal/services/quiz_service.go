package services

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"

	"github.com/SAP-F-2025/tutor-service/internal/catalog"
	"github.com/SAP-F-2025/tutor-service/internal/models"
	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

type quizService struct {
	repo     repositories.Repository
	profiles ProfileService
	logger   *slog.Logger
}

func NewQuizService(repo repositories.Repository, profiles ProfileService, logger *slog.Logger) QuizService {
	return &quizService{
		repo:     repo,
		profiles: profiles,
		logger:   logger,
	}
}

// EnsureQuestions seeds the question set from the embedded catalog when it is empty
func (s *quizService) EnsureQuestions(ctx context.Context) error {
	count, err := s.repo.Question().Count(ctx)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}
	if count > 0 {
		return nil
	}

	questions, err := catalog.SeedQuestions()
	if err != nil {
		return err
	}
	if err := s.repo.Question().UpsertMany(ctx, questions); err != nil {
		return fmt.Errorf("failed to seed questions: %w", err)
	}

	s.logger.Info("Seeded quiz questions", "count", len(questions))
	return nil
}

func (s *quizService) Subjects(ctx context.Context) ([]string, error) {
	questions, err := s.repo.Question().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	seen := make(map[string]bool)
	subjects := []string{}
	for _, q := range questions {
		if !seen[q.Subject] {
			seen[q.Subject] = true
			subjects = append(subjects, q.Subject)
		}
	}
	sort.Strings(subjects)
	return subjects, nil
}

// Start filters the question set to one subject and shuffles it. Re-selecting the
// same subject reshuffles.
func (s *quizService) Start(ctx context.Context, sess *session.Session, subject string) (*models.QuizQuestionView, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}

	questions, err := s.repo.Question().ListBySubject(ctx, subject)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrUnknownSubject
	}
	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	if sess.View() != session.ViewQuiz {
		if err := sess.Transition(session.ViewQuiz); err != nil {
			return nil, err
		}
	}

	var view *models.QuizQuestionView
	err = sess.Do(func(st *session.State) error {
		st.Quiz = &session.QuizRun{Subject: subject, Questions: questions}
		view = questionView(st.Quiz)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Quiz started", "student_id", sess.SubjectID(), "subject", subject, "questions", len(questions))
	return view, nil
}

func (s *quizService) Current(sess *session.Session) (*models.QuizQuestionView, error) {
	var view *models.QuizQuestionView
	err := sess.Do(func(st *session.State) error {
		if st.Quiz == nil {
			return ErrNoActiveQuiz
		}
		view = questionView(st.Quiz)
		return nil
	})
	return view, err
}

// Answer grades the first answer to the current question. A correct answer credits the
// points before returning; Next stays refused until that update settles.
func (s *quizService) Answer(ctx context.Context, sess *session.Session, option int) (*models.AnswerResult, error) {
	if err := requireStudent(sess); err != nil {
		return nil, err
	}

	var question *models.QuizQuestion
	var answered *session.QuizRun
	err := sess.Do(func(st *session.State) error {
		run := st.Quiz
		if run == nil || run.Current() == nil {
			return ErrNoActiveQuiz
		}
		if run.Answered {
			return ErrAlreadyAnswered
		}
		question = run.Current()
		if option < 0 || option >= len(question.Options) {
			return fmt.Errorf("%w: option %d out of range", ErrValidationFailed, option)
		}

		run.Answered = true
		run.Selected = option
		run.Correct = question.IsCorrect(option)
		run.Pending = run.Correct
		answered = run
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := &models.AnswerResult{
		Correct:       question.IsCorrect(option),
		CorrectAnswer: question.CorrectAnswer,
	}
	if !result.Correct {
		return result, nil
	}

	profile, scoreErr := s.profiles.UpdateStudentScore(ctx, sess.SubjectID(), question.Points)

	_ = sess.Do(func(st *session.State) error {
		// a restarted quiz is a different run and keeps its own state
		if st.Quiz == answered {
			answered.Pending = false
			if scoreErr == nil {
				answered.Earned = question.Points
			}
		}
		return nil
	})

	if scoreErr != nil {
		s.logger.Error("Failed to credit quiz points", "student_id", sess.SubjectID(), "question_id", question.ID, "error", scoreErr)
		return result, fmt.Errorf("%w: %v", ErrScoreUpdateFailed, scoreErr)
	}

	sess.SetProfile(profile)
	result.EarnedPoints = question.Points
	result.Profile = profile
	return result, nil
}

func (s *quizService) Next(ctx context.Context, sess *session.Session) (*models.QuizQuestionView, error) {
	var view *models.QuizQuestionView
	err := sess.Do(func(st *session.State) error {
		run := st.Quiz
		if run == nil {
			return ErrNoActiveQuiz
		}
		if run.Pending {
			return ErrScoreUpdatePending
		}
		if !run.Answered {
			return ErrNotAnswered
		}
		if run.IsLast() {
			return ErrQuizFinished
		}

		run.Index++
		run.Answered, run.Selected, run.Correct, run.Earned = false, 0, false, 0
		view = questionView(run)
		return nil
	})
	return view, err
}

// Exit returns to subject selection. A pending score update still completes.
func (s *quizService) Exit(ctx context.Context, sess *session.Session) error {
	if sess.View() != session.ViewQuiz {
		return ErrNoActiveQuiz
	}
	return sess.Transition(session.ViewStudentDashboard)
}

func questionView(run *session.QuizRun) *models.QuizQuestionView {
	q := run.Current()
	return &models.QuizQuestionView{
		ID:       q.ID,
		Subject:  q.Subject,
		Question: q.Question,
		Options:  append([]string(nil), q.Options...),
		Points:   q.Points,
		Index:    run.Index,
		Total:    len(run.Questions),
		Answered: run.Answered,
		IsLast:   run.IsLast(),
	}
}
