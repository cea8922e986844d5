package grammar

import (
	"github.com/gofiber/fiber/v3"
)

// RegisterRoutes registers the answer-checking routes on the provided router.
func RegisterRoutes(r fiber.Router, h *Handler) {
	grp := r.Group("/api")

	grp.Post("/check_answer", h.HandleCheckAnswer)
	grp.Post("/check_preposition", h.HandleCheckPreposition)
}
