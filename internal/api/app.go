package api

import (
	"errors"

	"grammar-practice/config"
	"grammar-practice/internal/api/grammar"
	"grammar-practice/internal/api/healthcheck"
	apispeech "grammar-practice/internal/api/speech"
	"grammar-practice/internal/core/grading"
	"grammar-practice/internal/core/speech"
	"grammar-practice/internal/middleware"
	"grammar-practice/pkg/apperror"
	"grammar-practice/pkg/apperror/status"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/requestid"
	"github.com/gofiber/fiber/v3/middleware/static"
	"github.com/google/uuid"
)

// NewApp builds the fiber app with middleware, API routes and static pages.
func NewApp(cfg config.Config, svc *grading.Service, synth speech.Synthesizer) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      cfg.Server.AppName,
		BodyLimit:    cfg.Server.BodyLimit,
		Concurrency:  cfg.Server.Concurrency,
		ErrorHandler: errorHandler,
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(middleware.Recover())
	app.Use(middleware.AccessLog())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Cors.AllowOrigins,
		AllowMethods: cfg.Cors.AllowMethods,
		AllowHeaders: cfg.Cors.AllowHeaders,
	}))
	if cfg.Server.MaxInFlight > 0 {
		app.Use(middleware.Limit(middleware.NewConnectionLimiter(cfg.Server.MaxInFlight)))
	}

	// routes
	healthcheck.RegisterRoutes(app, healthcheck.NewHandler(cfg))
	grammar.RegisterRoutes(app, grammar.NewHandler(svc))
	apispeech.RegisterRoutes(app, apispeech.NewHandler(synth))

	// static pages; unmatched paths reach errorHandler as fiber.ErrNotFound
	if cfg.Static.Root != "" {
		indexNames := []string{"index.html"}
		if cfg.Static.Index != "" {
			indexNames = []string{cfg.Static.Index, "index.html"}
		}
		app.Use("/", static.New(cfg.Static.Root, static.Config{IndexNames: indexNames}))
	}
	return app
}

func errorHandler(c fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code == fiber.StatusNotFound {
			return apperror.WriteError(config.ModuleServer, c, fiber.StatusNotFound,
				status.ErrorCodeNotFound, "Endpoint not found", "")
		}
		return apperror.WriteError(config.ModuleServer, c, fe.Code, status.ErrorCodeInternal, fe.Message, "")
	}
	return apperror.InternalError(config.ModuleServer, c, status.ErrorCodeInternal, err)
}
