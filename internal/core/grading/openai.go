package grading

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"grammar-practice/config"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float32       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}
type chatChoice struct {
	Index   int `json:"index"`
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}
type chatResponse struct {
	Choices []chatChoice `json:"choices"`
}

// OpenAIGrader calls an OpenAI-compatible chat completions endpoint.
type OpenAIGrader struct {
	cfg    config.GradingConfig
	client openai.Client
}

var _ Grader = (*OpenAIGrader)(nil)

// NewOpenAIGrader creates a grader with SDK retries disabled.
func NewOpenAIGrader(cfg config.GradingConfig) *OpenAIGrader {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Key),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIGrader{cfg: cfg, client: openai.NewClient(opts...)}
}

func (g *OpenAIGrader) Configured() bool { return strings.TrimSpace(g.cfg.Key) != "" }

func (g *OpenAIGrader) Name() string { return "OpenAI" }

func (g *OpenAIGrader) Grade(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", apperror.NewServiceUnavailable(g.Name(), "OpenAI API key not found. Please contact administrator.")
	}

	req := chatRequest{
		Model:       g.cfg.Model,
		Temperature: 0.2,
		MaxTokens:   g.cfg.MaxTokens,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
	}

	start := time.Now()
	var out chatResponse
	if err := g.client.Post(ctx, "chat/completions", req, &out); err != nil {
		if upstream := upstreamFromSDK(g.Name(), err); upstream != nil {
			return "", upstream
		}
		logger.Error(err, "%v: call llm failed", config.ModuleGrading)
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"model":      g.cfg.Model,
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("grading: openai response")

	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", &apperror.UpstreamError{Service: g.Name(), Status: http.StatusInternalServerError, Body: "No feedback text from OpenAI"}
	}
	return out.Choices[0].Message.Content, nil
}

// upstreamFromSDK converts an SDK status error into an UpstreamError.
func upstreamFromSDK(service string, err error) *apperror.UpstreamError {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return nil
	}
	body := apiErr.RawJSON()
	if body == "" {
		body = apiErr.Message
	}
	return &apperror.UpstreamError{Service: service, Status: apiErr.StatusCode, Body: body}
}
