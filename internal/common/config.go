package common

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	PDF        PDFConfig
	Extraction ExtractionConfig
	LLM        LLMConfig
	Log        LogConfig
}

// DatabaseConfig holds the optional extraction-job log connection.
// An empty DSN disables the job log.
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr     string
	GRPCAddr     string
	MaxUploadMB  int
	StrictOutput bool
	CORSOrigins  []string
}

// PDFConfig controls text-layer extraction.
type PDFConfig struct {
	Pdftotext   string
	CLIFallback bool
	MaxPages    int
}

// NER modes
const (
	NERModeHeuristic = "heuristic"
	NERModeOpenAI    = "openai"
	NERModeOff       = "off"
)

// ExtractionConfig holds field-extraction settings
type ExtractionConfig struct {
	CarrierPrefixes  []string
	NERMode          string
	MinOrgConfidence float64
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string
	Format string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:              getEnv("DB_URL", ""),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			HTTPAddr:     getEnv("HTTP_ADDR", ":8000"),
			GRPCAddr:     getEnv("GRPC_ADDR", ":8080"),
			MaxUploadMB:  getEnvAsInt("MAX_UPLOAD_MB", 20),
			StrictOutput: getEnvAsBool("STRICT_OUTPUT", false),
			CORSOrigins:  getEnvAsList("CORS_ORIGINS", []string{"*"}),
		},
		PDF: PDFConfig{
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			CLIFallback: getEnvAsBool("PDF_CLI_FALLBACK", true),
			MaxPages:    getEnvAsInt("PDF_MAX_PAGES", 0),
		},
		Extraction: ExtractionConfig{
			CarrierPrefixes:  getEnvAsList("BOL_CARRIER_PREFIXES", nil),
			NERMode:          strings.ToLower(getEnv("NER_MODE", NERModeHeuristic)),
			MinOrgConfidence: float64(getEnvAsFloat32("NER_MIN_CONFIDENCE", 0.8)),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "text"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma-separated variable, dropping empty items.
func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" && c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR or GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadMB <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_MB must be positive", ErrInvalidInput)
	}
	switch c.Extraction.NERMode {
	case NERModeHeuristic, NERModeOff:
	case NERModeOpenAI:
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required when NER_MODE=openai", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "NER_MODE must be heuristic, openai or off", ErrInvalidInput)
	}
	if c.Extraction.MinOrgConfidence < 0 || c.Extraction.MinOrgConfidence > 1 {
		return NewAppError("CONFIG_ERROR", "NER_MIN_CONFIDENCE must be within [0,1]", ErrInvalidInput)
	}
	return nil
}
