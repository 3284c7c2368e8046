package services

import (
	"errors"

	"github.com/SAP-F-2025/tutor-service/internal/repositories"
	"github.com/SAP-F-2025/tutor-service/internal/session"
)

// Profile store
var (
	ErrValidationFailed     = errors.New("validation failed")
	ErrDuplicateStudent     = errors.New("a student with this name and grade already exists")
	ErrStudentNotFound      = session.ErrStudentNotFound
	ErrAccountBlocked       = session.ErrAccountBlocked
	ErrNegativeScore        = repositories.ErrScoreNegative
	ErrSessionNotFound      = errors.New("chat session not found")
	ErrNotificationNotFound = errors.New("notification not found")
	ErrInvalidBackup        = errors.New("backup file is malformed")
	ErrInvalidWorkbook      = errors.New("workbook could not be read")
	ErrNotFound             = repositories.ErrNotFound
)

// Session scope
var (
	ErrStudentOnly = errors.New("only students can do this")
)

// Quiz
var (
	ErrUnknownSubject     = errors.New("no questions for this subject")
	ErrNoActiveQuiz       = errors.New("no quiz in progress")
	ErrAlreadyAnswered    = errors.New("question already answered")
	ErrNotAnswered        = errors.New("answer the current question first")
	ErrScoreUpdatePending = errors.New("score update still in progress")
	ErrScoreUpdateFailed  = errors.New("points could not be saved")
	ErrQuizFinished       = errors.New("no more questions in this quiz")
)

// Store
var (
	ErrItemNotFound       = errors.New("item not found")
	ErrItemAlreadyOwned   = errors.New("item already owned")
	ErrInsufficientPoints = errors.New("not enough points")
	ErrItemNotOwned       = errors.New("item not owned")
)

// Chat
var (
	ErrNoActiveChat     = errors.New("no active chat")
	ErrChatEnded        = errors.New("chat has ended")
	ErrTutorUnavailable = errors.New("the tutor could not answer, please try again")
)
