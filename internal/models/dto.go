package models

import "time"

// ===== AUTH =====

type StudentLoginRequest struct {
	Name     string `json:"name" validate:"required,student_name"`
	Grade    string `json:"grade" validate:"required,grade"`
	Password string `json:"password"`
}

type AdminLoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required"`
}

type CasdoorLoginRequest struct {
	Token string `json:"token" validate:"required"`
}

type ProfileSetupRequest struct {
	Password        string  `json:"password" validate:"required,min=1,max=100"`
	ConfirmPassword string  `json:"confirmPassword" validate:"required,eqfield=Password"`
	Avatar          *string `json:"avatar" validate:"required_without=GenerateAvatar"`
	GenerateAvatar  bool    `json:"generateAvatar"`
	TeacherName     *string `json:"teacherName" validate:"omitempty,max=100"`
}

type ActivityRequest struct {
	Signal string `json:"signal" validate:"required,activity_signal"`
}

type ViewChangeRequest struct {
	View string `json:"view" validate:"required"`
}

// ===== STUDENTS =====

type StudentCreateRequest struct {
	Name        string  `json:"name" validate:"required,student_name"`
	Grade       string  `json:"grade" validate:"required,grade"`
	Password    string  `json:"password" validate:"omitempty,max=100"`
	Avatar      *string `json:"avatar"`
	TeacherName *string `json:"teacherName" validate:"omitempty,max=100"`
}

type StudentUpdateRequest struct {
	Name        *string `json:"name" validate:"omitempty,student_name"`
	Grade       *string `json:"grade" validate:"omitempty,grade"`
	Password    *string `json:"password" validate:"omitempty,max=100"`
	Avatar      *string `json:"avatar"`
	TeacherName *string `json:"teacherName" validate:"omitempty,max=100"`
}

type ImportResult struct {
	Added  int      `json:"added"`
	Errors []string `json:"errors"`
}

// ===== QUIZ / STORE =====

type QuizStartRequest struct {
	Subject string `json:"subject" validate:"required"`
}

type QuizAnswerRequest struct {
	Option *int `json:"option" validate:"required,min=0"`
}

type StoreItemRequest struct {
	ItemID string `json:"itemId" validate:"required,cosmetic_id"`
}

// ===== CHAT =====

type ChatMessageRequest struct {
	Text string `json:"text" validate:"required,min=1,max=4000"`
}

// ===== NOTIFICATIONS =====

type NotificationCreateRequest struct {
	Title           string      `json:"title" validate:"required,min=1,max=200"`
	Message         string      `json:"message" validate:"required,max=4000"`
	Attachment      *Attachment `json:"attachment"`
	TargetStudentID *string     `json:"targetStudentId"`
}

// ===== RESPONSES =====

type StudentSessionResponse struct {
	Token       string          `json:"token"`
	Role        UserRole        `json:"role"`
	View        string          `json:"view"`
	Profile     *StudentProfile `json:"profile,omitempty"`
	Admin       *AdminAccount   `json:"admin,omitempty"`
	IssuedAt    time.Time       `json:"issuedAt"`
	NeedsSetup  bool            `json:"needsSetup"`
	UnreadCount int             `json:"unreadCount"`
}

type AvatarsResponse struct {
	Teacher            string `json:"teacher"`
	TeacherIsInitial   bool   `json:"teacherIsInitial"`
	MainAdmin          string `json:"mainAdmin"`
	MainAdminIsInitial bool   `json:"mainAdminIsInitial"`
}

type AnswerResult struct {
	Correct       bool            `json:"correct"`
	CorrectAnswer int             `json:"correctAnswer"`
	EarnedPoints  int             `json:"earnedPoints"`
	Profile       *StudentProfile `json:"profile,omitempty"`
}

type QuizQuestionView struct {
	ID       string   `json:"id"`
	Subject  string   `json:"subject"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Points   int      `json:"points"`
	Index    int      `json:"index"`
	Total    int      `json:"total"`
	Answered bool     `json:"answered"`
	IsLast   bool     `json:"isLast"`
}

type ErrorResponse struct {
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
