package session

import "fmt"

// View is the screen a session is currently on
type View string

const (
	ViewLogin            View = "LOGIN"
	ViewProfileSetup     View = "PROFILE_SETUP"
	ViewStudentDashboard View = "STUDENT_DASHBOARD"
	ViewQuiz             View = "QUIZ"
	ViewStore            View = "STORE"
	ViewAdminDashboard   View = "ADMIN_DASHBOARD"
)

var transitions = map[View][]View{
	ViewLogin:            {ViewProfileSetup, ViewStudentDashboard, ViewAdminDashboard},
	ViewProfileSetup:     {ViewStudentDashboard},
	ViewStudentDashboard: {ViewQuiz, ViewStore},
	ViewQuiz:             {ViewStudentDashboard},
	ViewStore:            {ViewStudentDashboard},
}

// CanTransition reports whether from -> to is allowed. Any view may return to LOGIN.
func CanTransition(from, to View) bool {
	if to == ViewLogin {
		return true
	}
	for _, v := range transitions[from] {
		if v == to {
			return true
		}
	}
	return false
}

// ParseView validates a client-supplied view name
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case ViewLogin, ViewProfileSetup, ViewStudentDashboard, ViewQuiz, ViewStore, ViewAdminDashboard:
		return v, nil
	}
	return "", fmt.Errorf("unknown view %q: %w", s, ErrInvalidTransition)
}

// authenticated views run the watchdog and persist the durable record
func (v View) authenticated() bool {
	switch v {
	case ViewStudentDashboard, ViewQuiz, ViewStore, ViewAdminDashboard:
		return true
	}
	return false
}
