package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"grammar-practice/config"
	"grammar-practice/internal/api"
	"grammar-practice/internal/core/grading"
	"grammar-practice/internal/core/speech"
	"grammar-practice/pkg/logger"

	"github.com/gofiber/fiber/v3"
)

func main() {
	cfg, err := config.Load("config.yaml")
	if err != nil {
		logger.Fatal(err, "load config")
	}
	if err := logger.SetLevel(string(cfg.LogLevel)); err != nil {
		logger.Warn("invalid log level %q, keeping default", cfg.LogLevel)
	}

	grader := grading.NewGrader(cfg.Grading)
	synth := speech.NewSynthesizer(cfg.Speech)
	svc := grading.NewService(grader, synth)

	if !cfg.GradingConfigured() {
		logger.Warn("%s API key not configured; grading endpoints will answer 503", grader.Name())
	}
	if !cfg.SpeechConfigured() {
		logger.Warn("speech API key not configured; feedback will be returned without audio")
	}

	app := api.NewApp(cfg, svc, synth)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down server")
		if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
			logger.Error(err, "server forced to shutdown")
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("grammar app backend listening on %s (health: /health)", addr)
	if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: cfg.Server.Mode == "release"}); err != nil {
		logger.Fatal(err, "server error")
	}
	logger.Info("server stopped")
}
