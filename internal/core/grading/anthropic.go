package grading

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"grammar-practice/config"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/logger"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/client"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// AnthropicGrader calls the Anthropic Messages API.
type AnthropicGrader struct {
	cfg    config.GradingConfig
	url    string
	client *client.Client
}

var _ Grader = (*AnthropicGrader)(nil)

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// NewAnthropicGrader creates a grader from cfg. The key is read from cfg on
// every call, never from the environment.
func NewAnthropicGrader(cfg config.GradingConfig) *AnthropicGrader {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	cc := client.New()
	cc.SetTimeout(cfg.Timeout)
	return &AnthropicGrader{
		cfg:    cfg,
		url:    base + "/messages",
		client: cc,
	}
}

func (g *AnthropicGrader) Configured() bool { return strings.TrimSpace(g.cfg.Key) != "" }

func (g *AnthropicGrader) Name() string { return "Claude" }

// Grade sends prompt as a single user message and returns the first text block.
func (g *AnthropicGrader) Grade(ctx context.Context, prompt string) (string, error) {
	if !g.Configured() {
		return "", apperror.NewServiceUnavailable(g.Name(), "Claude API key not found. Please contact administrator.")
	}

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.Post(g.url, client.Config{
		Ctx: ctx,
		Header: map[string]string{
			"Content-Type":      "application/json",
			"x-api-key":         g.cfg.Key,
			"anthropic-version": g.cfg.APIVersion,
		},
		Body: anthropicRequest{
			Model:     g.cfg.Model,
			MaxTokens: g.cfg.MaxTokens,
			Messages:  []anthropicMessage{{Role: "user", Content: prompt}},
		},
	})
	if err != nil {
		logger.Error(err, "%v: claude request failed", config.ModuleGrading)
		return "", fmt.Errorf("claude request failed: %w", err)
	}
	defer resp.Close()

	logger.WithFields(map[string]interface{}{
		"model":      g.cfg.Model,
		"status":     resp.StatusCode(),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("grading: claude response")

	if resp.StatusCode() < fiber.StatusOK || resp.StatusCode() >= fiber.StatusMultipleChoices {
		return "", &apperror.UpstreamError{Service: g.Name(), Status: resp.StatusCode(), Body: resp.String()}
	}

	var out anthropicResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("decode claude response: %w", err)
	}
	for _, block := range out.Content {
		if block.Type == "text" && strings.TrimSpace(block.Text) != "" {
			return block.Text, nil
		}
	}
	return "", &apperror.UpstreamError{Service: g.Name(), Status: fiber.StatusInternalServerError, Body: "No feedback text from Claude"}
}
