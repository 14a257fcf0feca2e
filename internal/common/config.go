package common

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	LogLevel slog.Level
	Store    StoreConfig
	Server   ServerConfig
	OCR      OCRConfig
	Extract  ExtractConfig
	Output   OutputConfig
}

// StoreConfig holds run repository configuration
type StoreConfig struct {
	Driver          string `validate:"oneof=sqlite postgres"`
	DSN             string `validate:"required"`
	MaxConns        int32  `validate:"gte=1"`
	MinConns        int32  `validate:"gte=0,ltefield=MaxConns"`
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	DialTimeout     time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `validate:"required"`
	HTTPAddr string `validate:"required"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Pdftotext   string
	Pdftoppm    string
	Tesseract   string
	Language    string `validate:"required"`
	DPI         int    `validate:"gte=72,lte=1200"`
	MaxPages    int    `validate:"gte=0"`
	TessdataDir string
}

// ExtractConfig holds contact extraction configuration
type ExtractConfig struct {
	VocabularyPath string
	PageWorkers    int `validate:"gte=1,lte=64"`
	QueueWorkers   int `validate:"gte=1,lte=64"`
	JobTimeout     time.Duration
}

// OutputConfig holds output file configuration
type OutputConfig struct {
	WorkDir      string `validate:"required"`
	KeepTextDump bool
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is read first when present.
func LoadConfig() *Config {
	_ = godotenv.Load()

	return &Config{
		LogLevel: getEnvAsLevel("LOG_LEVEL", slog.LevelInfo),
		Store: StoreConfig{
			Driver:          getEnv("STORE_DRIVER", "sqlite"),
			DSN:             getEnv("DB_URL", "file:contacts.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"),
			MaxConns:        getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:     getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			HTTPAddr: getEnv("HTTP_ADDR", ":8081"),
		},
		OCR: OCRConfig{
			Pdftotext:   getEnv("PDFTOTEXT_BIN", "pdftotext"),
			Pdftoppm:    getEnv("PDFTOPPM_BIN", "pdftoppm"),
			Tesseract:   getEnv("TESSERACT_BIN", "tesseract"),
			Language:    getEnv("OCR_LANG", "eng"),
			DPI:         getEnvAsInt("OCR_DPI", 300),
			MaxPages:    getEnvAsInt("OCR_MAX_PAGES", 0),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
		},
		Extract: ExtractConfig{
			VocabularyPath: getEnv("VOCABULARY_PATH", ""),
			PageWorkers:    getEnvAsInt("PAGE_WORKERS", 4),
			QueueWorkers:   getEnvAsInt("QUEUE_WORKERS", 2),
			JobTimeout:     getEnvAsDuration("JOB_TIMEOUT", 10*time.Minute),
		},
		Output: OutputConfig{
			WorkDir:      getEnv("WORK_DIR", "./tmp"),
			KeepTextDump: getEnvAsBool("KEEP_TEXT_DUMP", true),
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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
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

func getEnvAsLevel(key string, defaultValue slog.Level) slog.Level {
	if value := os.Getenv(key); value != "" {
		var lvl slog.Level
		if err := lvl.UnmarshalText([]byte(strings.ToUpper(value))); err == nil {
			return lvl
		}
	}
	return defaultValue
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
			}
			return NewAppError("CONFIG_ERROR", strings.Join(msgs, "; "), ErrInvalidInput)
		}
		return NewAppError("CONFIG_ERROR", err.Error(), ErrInvalidInput)
	}
	return nil
}
