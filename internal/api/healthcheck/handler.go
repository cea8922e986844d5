package healthcheck

import (
	"strings"

	"grammar-practice/config"
	"grammar-practice/pkg/apperror"

	"github.com/gofiber/fiber/v3"
)

type healthResponse struct {
	Status        string `json:"status"`
	Message       string `json:"message"`
	APIConfigured bool   `json:"api_configured"`
}

type apiKeyResponse struct {
	APIKeySet    bool `json:"api_key_set"`
	APIKeyLength int  `json:"api_key_length"`
}

type Handler struct {
	cfg config.Config
}

func NewHandler(cfg config.Config) *Handler {
	return &Handler{cfg: cfg}
}

func (h *Handler) ApiHealthCheck(c fiber.Ctx) error {
	return apperror.Success(config.ModuleHealth, c, healthResponse{
		Status:        "OK",
		Message:       "Grammar app backend is running",
		APIConfigured: h.cfg.GradingConfigured(),
	})
}

// ApiKeyCheck reports whether the grading key is loaded without echoing it.
func (h *Handler) ApiKeyCheck(c fiber.Ctx) error {
	return apperror.Success(config.ModuleHealth, c, apiKeyResponse{
		APIKeySet:    h.cfg.GradingConfigured(),
		APIKeyLength: len(strings.TrimSpace(h.cfg.Grading.Key)),
	})
}
