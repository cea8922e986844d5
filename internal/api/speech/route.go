package speech

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers the raw text-to-speech routes on the provided router.
func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/api")

	grp.Post("/tts", h.HandleTTS)
	grp.Post("/generate-audio", h.HandleGenerateAudio)
}
