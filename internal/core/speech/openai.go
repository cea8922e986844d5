package speech

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"grammar-practice/config"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/logger"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const serviceName = "OpenAI TTS"

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	Instructions   string `json:"instructions,omitempty"`
	ResponseFormat string `json:"response_format"`
}

// OpenAISynthesizer calls the OpenAI audio/speech endpoint.
type OpenAISynthesizer struct {
	cfg    config.SpeechConfig
	client openai.Client
}

var _ Synthesizer = (*OpenAISynthesizer)(nil)

// NewOpenAISynthesizer creates a synthesizer with SDK retries disabled.
func NewOpenAISynthesizer(cfg config.SpeechConfig) *OpenAISynthesizer {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Key),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAISynthesizer{cfg: cfg, client: openai.NewClient(opts...)}
}

func (s *OpenAISynthesizer) Configured() bool { return strings.TrimSpace(s.cfg.Key) != "" }

// ContentType is the MIME type of the audio Synthesize returns.
func (s *OpenAISynthesizer) ContentType() string {
	return contentTypes[s.cfg.Format]
}

// Synthesize returns the audio bytes for text using the configured voice,
// delivery instructions and encoding.
func (s *OpenAISynthesizer) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if !s.Configured() {
		return nil, apperror.NewServiceUnavailable(serviceName, "OpenAI API key not found. Please contact administrator.")
	}

	reqBody := speechRequest{
		Model:          s.cfg.Model,
		Input:          text,
		Voice:          s.cfg.Voice,
		Instructions:   s.cfg.Instructions,
		ResponseFormat: s.cfg.Format,
	}

	start := time.Now()
	var res *http.Response
	if err := s.client.Post(ctx, "audio/speech", reqBody, &res); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			body := apiErr.RawJSON()
			if body == "" {
				body = apiErr.Message
			}
			return nil, &apperror.UpstreamError{Service: serviceName, Status: apiErr.StatusCode, Body: body}
		}
		logger.Error(err, "%v: speech request failed", config.ModuleSpeech)
		return nil, fmt.Errorf("speech request failed: %w", err)
	}
	defer res.Body.Close()

	audio, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read speech audio: %w", err)
	}
	logger.WithFields(map[string]interface{}{
		"model":      s.cfg.Model,
		"voice":      s.cfg.Voice,
		"chars":      len(text),
		"bytes":      len(audio),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Info("speech: synthesized")

	if len(audio) == 0 {
		return nil, &apperror.UpstreamError{Service: serviceName, Status: http.StatusBadGateway, Body: "empty audio response"}
	}
	return audio, nil
}
