package speech

import (
	"encoding/json"
	"errors"

	"grammar-practice/config"
	corespeech "grammar-practice/internal/core/speech"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
)

type ttsRequest struct {
	Text string `json:"text"`
}

type ttsResponse struct {
	AudioBase64 string `json:"audio_base64"`
}

type Handler struct {
	synth corespeech.Synthesizer
}

func NewHandler(synth corespeech.Synthesizer) *Handler {
	return &Handler{synth: synth}
}

// HandleTTS answers {audio_base64} for arbitrary text.
func (h *Handler) HandleTTS(c fiber.Ctx) error {
	text, ok, err := h.text(c)
	if !ok {
		return err
	}
	audio, err := corespeech.SynthesizeBase64(c.Context(), h.synth, text)
	if err != nil {
		return h.fail(c, err)
	}
	return apperror.Success(config.ModuleSpeech, c, ttsResponse{AudioBase64: audio})
}

// HandleGenerateAudio answers the audio bytes themselves.
func (h *Handler) HandleGenerateAudio(c fiber.Ctx) error {
	text, ok, err := h.text(c)
	if !ok {
		return err
	}
	audio, err := h.synth.Synthesize(c.Context(), text)
	if err != nil {
		return h.fail(c, err)
	}
	c.Set(fiber.HeaderContentType, h.synth.ContentType())
	return c.Status(fiber.StatusOK).Send(audio)
}

// text decodes the request. When ok is false the 400 is already written.
func (h *Handler) text(c fiber.Ctx) (text string, ok bool, err error) {
	var req ttsRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return "", false, apperror.WriteError(config.ModuleSpeech, c, fiber.StatusBadRequest,
			status.SpeechInvalidRequestBody, "No JSON data provided", err.Error())
	}
	if req.Text == "" {
		return "", false, apperror.BadRequest(config.ModuleSpeech, c, status.SpeechMissingText, "No text provided")
	}
	return req.Text, true, nil
}

// fail reports speech upstream failures as 500, unlike grading which passes
// the upstream status through.
func (h *Handler) fail(c fiber.Ctx, err error) error {
	var unavailable *apperror.ServiceUnavailableError
	if errors.As(err, &unavailable) {
		return apperror.ServiceUnavailable(config.ModuleSpeech, c, status.SpeechNotConfigured, unavailable.Reason)
	}
	if upstream, ok := apperror.AsUpstream(err); ok {
		return apperror.WriteError(config.ModuleSpeech, c, fiber.StatusInternalServerError,
			status.SpeechUpstreamFailed, upstream.Error(), upstream.Body)
	}
	return apperror.InternalError(config.ModuleSpeech, c, status.SpeechInternal, err)
}
