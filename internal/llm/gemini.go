package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/SAP-F-2025/tutor-service/internal/models"
)

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  map[string]any  `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// GeminiTutor calls the Gemini generateContent REST endpoint
type GeminiTutor struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
	logger  *slog.Logger
}

func NewGeminiTutor(baseURL, model, apiKey string, client *http.Client, logger *slog.Logger) *GeminiTutor {
	if client == nil {
		client = http.DefaultClient
	}
	return &GeminiTutor{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		apiKey:  apiKey,
		client:  client,
		logger:  logger,
	}
}

// Reply sends the whole conversation in one request; there is no retry
func (g *GeminiTutor) Reply(ctx context.Context, history []models.Message, text string) (string, error) {
	if g.apiKey == "" {
		return "", ErrNotConfigured
	}

	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: SystemInstruction}}},
		Contents:          make([]geminiContent, 0, len(history)+1),
		GenerationConfig:  map[string]any{"temperature": 0.7},
	}
	for _, msg := range history {
		reqBody.Contents = append(reqBody.Contents, geminiContent{
			Role:  string(msg.Role),
			Parts: []geminiPart{{Text: msg.Text}},
		})
	}
	reqBody.Contents = append(reqBody.Contents, geminiContent{
		Role:  string(models.MessageRoleUser),
		Parts: []geminiPart{{Text: text}},
	})

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal gemini request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, url.PathEscape(g.model), url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build gemini request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read gemini response: %w", err)
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode gemini response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode != http.StatusOK {
		msg := http.StatusText(resp.StatusCode)
		if parsed.Error != nil {
			msg = parsed.Error.Message
		}
		g.logger.ErrorContext(ctx, "Gemini API error", "status", resp.StatusCode, "message", msg)
		return "", fmt.Errorf("gemini API error %d: %s", resp.StatusCode, msg)
	}

	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	var reply strings.Builder
	for _, part := range parsed.Candidates[0].Content.Parts {
		reply.WriteString(part.Text)
	}
	return strings.TrimSpace(reply.String()), nil
}
