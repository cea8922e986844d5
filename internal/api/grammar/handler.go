package grammar

import (
	"encoding/json"
	"fmt"

	"grammar-practice/config"
	"grammar-practice/internal/core/grading"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/apperror/status"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

var codes = apperror.Codes{
	NotConfigured:  status.GrammarNotConfigured,
	UpstreamFailed: status.GrammarUpstreamFailed,
	Internal:       status.GrammarInternal,
}

type Handler struct {
	svc      *grading.Service
	validate *validator.Validate
}

func NewHandler(svc *grading.Service) *Handler {
	return &Handler{svc: svc, validate: validator.New()}
}

func (h *Handler) HandleCheckAnswer(c fiber.Ctx) error {
	return h.check(c, grading.ModeTense)
}

func (h *Handler) HandleCheckPreposition(c fiber.Ctx) error {
	return h.check(c, grading.ModePreposition)
}

func (h *Handler) check(c fiber.Ctx, mode grading.Mode) error {
	// A missing credential answers 503 whatever the body holds.
	if !h.svc.GradingConfigured() {
		return apperror.ServiceUnavailable(config.ModuleGrammar, c, status.GrammarNotConfigured,
			fmt.Sprintf("%s API key not found. Please contact administrator.", h.svc.GraderName()))
	}

	var req grading.Request
	if len(c.Body()) == 0 {
		return apperror.BadRequest(config.ModuleGrammar, c, status.GrammarInvalidRequestBody, "No JSON data provided")
	}
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperror.WriteError(config.ModuleGrammar, c, fiber.StatusBadRequest,
			status.GrammarInvalidRequestBody, "No JSON data provided", err.Error())
	}
	if req.Question == "" || req.UserAnswer == "" {
		return apperror.BadRequest(config.ModuleGrammar, c, status.GrammarMissingParams, "Both question and user_answer are required")
	}
	if err := h.validate.Struct(req); err != nil {
		return apperror.WriteError(config.ModuleGrammar, c, fiber.StatusBadRequest,
			status.GrammarInvalidRequestBody, "Invalid request", err.Error())
	}

	res, err := h.svc.Check(c.Context(), mode, req)
	if err != nil {
		return apperror.FromError(config.ModuleGrammar, c, codes, err)
	}
	return apperror.Success(config.ModuleGrammar, c, res)
}
