package grading

import (
	"context"
	"time"

	"grammar-practice/config"
	"grammar-practice/internal/core/speech"
	"grammar-practice/pkg/logger"
)

// Service grades answers and voices the feedback. It holds no per-request
// state and is safe for concurrent use.
type Service struct {
	grader Grader
	speech speech.Synthesizer
}

// NewService wires a grader and a synthesizer.
func NewService(g Grader, s speech.Synthesizer) *Service {
	return &Service{grader: g, speech: s}
}

// GradingConfigured reports whether the grading credential is present.
func (s *Service) GradingConfigured() bool { return s.grader.Configured() }

// GraderName identifies the grading service in error details.
func (s *Service) GraderName() string { return s.grader.Name() }

// Check runs prompt, grading, parsing and speech for one answer. Only grading
// failures are returned; a speech failure leaves AudioBase64 nil.
func (s *Service) Check(ctx context.Context, mode Mode, req Request) (Result, error) {
	prompt := BuildPrompt(mode, req)
	logger.Debug("%v: prompt built for %s drill (%d chars)", config.ModuleGrading, mode, len(prompt))

	raw, err := s.grader.Grade(ctx, prompt)
	if err != nil {
		logger.Error(err, "%v: grade %s answer failed", config.ModuleGrading, mode)
		return Result{}, err
	}

	fb, strategy := ParseWithStrategy(raw)
	if strategy != "json" {
		logger.WithFields(map[string]interface{}{
			"mode":     mode,
			"strategy": strategy,
		}).Warn("grading: reply was not strict json")
	}

	res := Result{
		Text:         fb.Feedback,
		NextQuestion: fb.NextQuestion,
		CombinedText: CombinedText(fb.Feedback, fb.NextQuestion),
	}
	res.AudioBase64 = s.voice(ctx, res.CombinedText)
	return res, nil
}

// voice returns nil instead of an error; missing audio never fails a check.
func (s *Service) voice(ctx context.Context, text string) *string {
	start := time.Now()
	audio, err := speech.SynthesizeBase64(ctx, s.speech, text)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"error":      err.Error(),
			"elapsed_ms": time.Since(start).Milliseconds(),
		}).Warn("speech: synthesis failed, returning feedback without audio")
		return nil
	}
	return &audio
}
