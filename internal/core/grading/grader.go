package grading

import (
	"context"

	"grammar-practice/config"
)

// Grader sends a prompt to a text-generation service and returns its reply.
type Grader interface {
	// Grade fails with *apperror.ServiceUnavailableError when no credential is
	// configured and with *apperror.UpstreamError on a non-success reply.
	Grade(ctx context.Context, prompt string) (string, error)
	// Configured reports whether a credential is present.
	Configured() bool
	// Name identifies the service in error messages.
	Name() string
}

// NewGrader picks the implementation for cfg.Provider.
func NewGrader(cfg config.GradingConfig) Grader {
	if cfg.Provider == config.ProviderOpenAI {
		return NewOpenAIGrader(cfg)
	}
	return NewAnthropicGrader(cfg)
}
