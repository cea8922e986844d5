package speech

import (
	"context"
	"encoding/base64"

	"grammar-practice/config"
)

// Synthesizer converts text to audio.
type Synthesizer interface {
	// Synthesize fails with *apperror.ServiceUnavailableError when no
	// credential is configured and with *apperror.UpstreamError on a
	// non-success reply.
	Synthesize(ctx context.Context, text string) ([]byte, error)
	Configured() bool
	ContentType() string
}

var contentTypes = map[string]string{
	"mp3":  "audio/mpeg",
	"opus": "audio/ogg",
	"aac":  "audio/aac",
	"flac": "audio/flac",
	"wav":  "audio/wav",
	"pcm":  "audio/L16",
}

// NewSynthesizer returns the synthesizer for cfg.
func NewSynthesizer(cfg config.SpeechConfig) Synthesizer {
	return NewOpenAISynthesizer(cfg)
}

// SynthesizeBase64 is Synthesize with the audio base64-encoded.
func SynthesizeBase64(ctx context.Context, s Synthesizer, text string) (string, error) {
	audio, err := s.Synthesize(ctx, text)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(audio), nil
}
