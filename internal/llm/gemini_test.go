package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func TestGeminiTutor_Reply(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-test:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.URL.Query().Get("key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"What do you get if you "},{"text":"add $2$ to both sides? "}]}}]}`))
	}))
	defer server.Close()

	tutor := NewGeminiTutor(server.URL+"/", "gemini-test", "secret", server.Client(), testLogger())
	history := []models.Message{
		{ID: "1", Role: models.MessageRoleUser, Text: "solve x-2=5"},
		{ID: "2", Role: models.MessageRoleModel, Text: "What is the unknown?"},
	}

	reply, err := tutor.Reply(context.Background(), history, "x")
	require.NoError(t, err)
	assert.Equal(t, "What do you get if you add $2$ to both sides?", reply)

	require.NotNil(t, captured.SystemInstruction)
	assert.Contains(t, captured.SystemInstruction.Parts[0].Text, "$$")
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "x", captured.Contents[2].Parts[0].Text)
}

func TestGeminiTutor_Errors(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
		}))
		defer server.Close()

		tutor := NewGeminiTutor(server.URL, "m", "k", server.Client(), testLogger())
		_, err := tutor.Reply(context.Background(), nil, "hi")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota exceeded")
	})

	t.Run("empty candidates", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"candidates":[]}`))
		}))
		defer server.Close()

		tutor := NewGeminiTutor(server.URL, "m", "k", server.Client(), testLogger())
		_, err := tutor.Reply(context.Background(), nil, "hi")
		assert.Error(t, err)
	})

	t.Run("missing key", func(t *testing.T) {
		tutor := NewGeminiTutor("http://unused", "m", "", nil, testLogger())
		_, err := tutor.Reply(context.Background(), nil, "hi")
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
