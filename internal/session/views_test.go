package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to View
		allowed  bool
	}{
		{ViewLogin, ViewProfileSetup, true},
		{ViewLogin, ViewStudentDashboard, true},
		{ViewLogin, ViewAdminDashboard, true},
		{ViewProfileSetup, ViewStudentDashboard, true},
		{ViewStudentDashboard, ViewQuiz, true},
		{ViewQuiz, ViewStudentDashboard, true},
		{ViewStudentDashboard, ViewStore, true},
		{ViewStore, ViewStudentDashboard, true},
		{ViewAdminDashboard, ViewLogin, true},
		{ViewQuiz, ViewLogin, true},
		{ViewQuiz, ViewStore, false},
		{ViewStore, ViewQuiz, false},
		{ViewProfileSetup, ViewQuiz, false},
		{ViewAdminDashboard, ViewStudentDashboard, false},
		{ViewStudentDashboard, ViewAdminDashboard, false},
		{ViewLogin, ViewQuiz, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.allowed, CanTransition(tt.from, tt.to))
		})
	}
}

func TestParseView(t *testing.T) {
	v, err := ParseView("STORE")
	assert.NoError(t, err)
	assert.Equal(t, ViewStore, v)

	_, err = ParseView("SETTINGS")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAuthenticatedViews(t *testing.T) {
	for _, v := range []View{ViewStudentDashboard, ViewQuiz, ViewStore, ViewAdminDashboard} {
		assert.True(t, v.authenticated(), v)
	}
	for _, v := range []View{ViewLogin, ViewProfileSetup} {
		assert.False(t, v.authenticated(), v)
	}
}
