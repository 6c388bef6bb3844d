package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"rxdesk/m/internal/database"
)

// Config holds application configuration values.
type Config struct {
	Secret            string
	DatabaseDSN       string
	HTTPPort          string
	SeedFile          string
	LogLevel          string
	MaxUploadBytes    int64
	PrescriptionRate  float64
	PrescriptionBurst int
	CORSOrigins       []string
	Vision            VisionConfig
	// Warnings lists values that were invalid and replaced by defaults.
	// Load runs before the logger exists, so the caller reports them.
	Warnings []string
}

// VisionConfig selects the hosted model used for extraction.
type VisionConfig struct {
	Provider      string
	GoogleAPIKey  string
	GeminiModel   string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Load reads .env, if present, then environment variables with reasonable
// defaults.
func Load() Config {
	_ = godotenv.Load()
	var warnings []string

	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := getenv("HTTP_PORT", "8080")
	// Validate that port is numeric.
	if _, err := strconv.Atoi(port); err != nil {
		warnings = append(warnings, fmt.Sprintf("invalid HTTP_PORT value %q, defaulting to 8080", port))
		port = "8080"
	}

	dsn := os.Getenv("DATABASE_DSN")
	if dsn == "" {
		dsn = database.FileDSN(getenv("PHARMACY_DB", "pharmacy.db"))
	}

	uploadMB := getInt("MAX_UPLOAD_MB", 10, &warnings)
	burst := getInt("PRESCRIPTION_BURST", 5, &warnings)

	rawRate := getenv("PRESCRIPTION_RATE", "1")
	rate, err := strconv.ParseFloat(rawRate, 64)
	if err != nil || rate <= 0 {
		warnings = append(warnings, fmt.Sprintf("invalid PRESCRIPTION_RATE value %q, defaulting to 1", rawRate))
		rate = 1
	}

	var origins []string
	for _, o := range strings.Split(getenv("CORS_ORIGINS", "*"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	return Config{
		Secret:            secret,
		DatabaseDSN:       dsn,
		HTTPPort:          port,
		SeedFile:          os.Getenv("SEED_FILE"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		MaxUploadBytes:    int64(uploadMB) << 20,
		PrescriptionRate:  rate,
		PrescriptionBurst: burst,
		CORSOrigins:       origins,
		Vision: VisionConfig{
			Provider:      strings.ToLower(getenv("VISION_PROVIDER", "gemini")),
			GoogleAPIKey:  os.Getenv("GOOGLE_API_KEY"),
			GeminiModel:   os.Getenv("GEMINI_MODEL"),
			OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL: os.Getenv("OPENAI_API_BASE_URL"),
			OpenAIModel:   os.Getenv("OPENAI_VISION_MODEL"),
		},
		Warnings: warnings,
	}
}

// Validate checks that the chosen vision provider can be reached.
func (v VisionConfig) Validate() error {
	switch v.Provider {
	case "gemini":
		if v.GoogleAPIKey == "" {
			return errors.New("missing GOOGLE_API_KEY in environment variables")
		}
	case "openai":
		if v.OpenAIAPIKey == "" {
			return errors.New("missing OPENAI_API_KEY in environment variables")
		}
	default:
		return errors.New("VISION_PROVIDER must be gemini or openai")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int, warnings *[]string) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v <= 0 {
		*warnings = append(*warnings, fmt.Sprintf("invalid %s value %q, defaulting to %d", key, raw, fallback))
		return fallback
	}
	return v
}
