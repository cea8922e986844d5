package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type ServerConfig struct {
	Port            int           `koanf:"port" validate:"required,min=1,max=65535"`
	Mode            string        `koanf:"mode" validate:"required,oneof=release debug"`
	Concurrency     int           `koanf:"concurrency" validate:"required"`
	BodyLimit       int           `koanf:"body_limit" validate:"required"`
	AppName         string        `koanf:"app_name" validate:"required"`
	MaxInFlight     int           `koanf:"max_in_flight" validate:"min=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

type logLevel string

const (
	Debug logLevel = "debug"
	Info  logLevel = "info"
	Warn  logLevel = "warn"
	Error logLevel = "error"
	Fatal logLevel = "fatal"
	Panic logLevel = "panic"
)

type Module string

const (
	ModuleGrading Module = "grading"
	ModuleGrammar Module = "grammar"
	ModuleSpeech  Module = "speech"
	ModuleHealth  Module = "health"
	ModuleServer  Module = "server"
	ModuleSetting Module = "setting"
)

// Grading providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// GradingConfig describes the text-generation service. Key may be empty; the
// endpoints then answer 503 instead of the process refusing to start.
type GradingConfig struct {
	Provider   string        `koanf:"provider" validate:"required,oneof=anthropic openai"`
	Key        string        `koanf:"key"`
	BaseURL    string        `koanf:"base_url" validate:"omitempty,url"`
	Model      string        `koanf:"model" validate:"required"`
	MaxTokens  int           `koanf:"max_tokens" validate:"required,min=1"`
	APIVersion string        `koanf:"api_version"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

// SpeechConfig describes the text-to-speech service.
type SpeechConfig struct {
	Key          string        `koanf:"key"`
	BaseURL      string        `koanf:"base_url" validate:"omitempty,url"`
	Model        string        `koanf:"model" validate:"required"`
	Voice        string        `koanf:"voice" validate:"required"`
	Instructions string        `koanf:"instructions"`
	Format       string        `koanf:"format" validate:"required,oneof=mp3 opus aac flac wav pcm"`
	Timeout      time.Duration `koanf:"timeout" validate:"gt=0"`
}

type CorsConfig struct {
	AllowOrigins []string `koanf:"allow_origins" validate:"required"`
	AllowMethods []string `koanf:"allow_methods" validate:"required"`
	AllowHeaders []string `koanf:"allow_headers" validate:"required"`
}

type StaticConfig struct {
	Root  string `koanf:"root"`
	Index string `koanf:"index"`
}

// Config is built once by Load and handed to the components that need it.
type Config struct {
	Server   ServerConfig  `koanf:"server"`
	LogLevel logLevel      `koanf:"log_level" validate:"omitempty,oneof=debug info warn error fatal panic"`
	Grading  GradingConfig `koanf:"grading"`
	Speech   SpeechConfig  `koanf:"speech"`
	Cors     CorsConfig    `koanf:"cors"`
	Static   StaticConfig  `koanf:"static"`
}

const (
	DefaultSpeechInstructions = "Use clear and slow delivery such that a non native speaker can follow along. " +
		"Also make sure the tone is very positive and encouraging to help the student"
)

var defaultConfig = Config{
	Server: ServerConfig{
		Port:            3000,
		Mode:            "release",
		Concurrency:     256 * 1024,
		BodyLimit:       1 << 20,
		AppName:         "grammar-practice",
		ShutdownTimeout: 10 * time.Second,
	},
	LogLevel: Info,
	Grading: GradingConfig{
		Provider:   ProviderAnthropic,
		Model:      "claude-sonnet-4-20250514",
		MaxTokens:  300,
		APIVersion: "2023-06-01",
		Timeout:    30 * time.Second,
	},
	Speech: SpeechConfig{
		Model:        "gpt-4o-mini-tts",
		Voice:        "nova",
		Instructions: DefaultSpeechInstructions,
		Format:       "mp3",
		Timeout:      60 * time.Second,
	},
	Cors: CorsConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "X-Request-ID"},
	},
	Static: StaticConfig{
		Root:  "./public",
		Index: "grammar-practice.html",
	},
}

// legacyEnv maps the plain environment names used by existing deployments.
var legacyEnv = map[string]string{
	"CLAUDE_API_KEY": "grading.key",
	"OPENAI_API_KEY": "speech.key",
	"PORT":           "server.port",
}

// Default returns a copy of the built-in configuration.
func Default() Config {
	cfg := defaultConfig
	cfg.Cors.AllowOrigins = append([]string(nil), defaultConfig.Cors.AllowOrigins...)
	cfg.Cors.AllowMethods = append([]string(nil), defaultConfig.Cors.AllowMethods...)
	cfg.Cors.AllowHeaders = append([]string(nil), defaultConfig.Cors.AllowHeaders...)
	return cfg
}

// Load layers defaults, the optional yaml file at path, a .env file in the
// working directory and the process environment, in that order.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := Default()

	// file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return cfg, fmt.Errorf("%v: load %s: %w", ModuleSetting, path, err)
		}
	}

	// .env never overrides variables already set in the environment
	_ = godotenv.Load()

	// env APP_SERVER__PORT -> server.port
	if err := k.Load(env.Provider("APP_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, "APP_")), "__", ".")
	}), nil); err != nil {
		return cfg, fmt.Errorf("%v: load env: %w", ModuleSetting, err)
	}

	// env CLAUDE_API_KEY, OPENAI_API_KEY, PORT
	if err := k.Load(env.Provider("", ".", func(s string) string {
		return legacyEnv[s]
	}), nil); err != nil {
		return cfg, fmt.Errorf("%v: load legacy env: %w", ModuleSetting, err)
	}

	// bind
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("%v: unmarshal: %w", ModuleSetting, err)
	}

	if err := validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	err := validator.New().Struct(cfg)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return fmt.Errorf("%v: config validation failed: %w", ModuleSetting, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%v config validation failed:\n", ModuleSetting))
	for _, e := range errs {
		sb.WriteString(
			fmt.Sprintf("  • %s: failed '%s' (value: %v)\n", e.Namespace(), e.Tag(), e.Value()),
		)
	}
	return errors.New(sb.String())
}

// GradingConfigured reports whether the grading credential is present.
func (c Config) GradingConfigured() bool {
	return strings.TrimSpace(c.Grading.Key) != ""
}

// SpeechConfigured reports whether the speech credential is present.
func (c Config) SpeechConfigured() bool {
	return strings.TrimSpace(c.Speech.Key) != ""
}
