package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/joho/godotenv"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverFS     = "fs"
	StoreDriverRedis  = "redis"
	StoreDriverMemory = "memory"
)

const defaultAlphabet = "A,B,C,D,E"

// defaultOrigins are the deployments the grading frontend is served from.
const defaultOrigins = "http://localhost:5173,https://grade-pilot-1.onrender.com,http://feqxtools.uvigo.es,https://feqxtools.uvigo.es"

// Config holds all application configuration.
type Config struct {
	ServerPort string
	GinMode    string
	LogLevel   string
	LogFormat  string
	// LogFile, when set, receives a copy of every log line.
	LogFile string
	// RootPath prefixes every route (reverse-proxy sub-path deployments).
	RootPath string
	// AllowedOrigins controls HTTP CORS. Empty slice means all origins are permitted.
	AllowedOrigins []string

	StoreDriver      string
	SessionsDir      string
	RedisURL         string
	SessionRetention time.Duration
	// SweepInterval of zero sweeps expired sessions only at startup.
	SweepInterval time.Duration

	MaxUploadBytes int64
	// GradeRateLimit is the number of uploads allowed per IP per minute (0 disables).
	GradeRateLimit int

	Grading Grading
}

// Grading is the exam-shape and marking configuration.
type Grading struct {
	OptionAlphabet []string
	PassMark       float64
	MinQuestions   int
	MaxQuestions   int
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // .env is optional

	return &Config{
		ServerPort:       getEnv("SERVER_PORT", "8000"),
		GinMode:          getEnv("GIN_MODE", "debug"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "pretty"),
		LogFile:          getEnv("LOG_FILE", ""),
		RootPath:         strings.TrimSuffix(getEnv("ROOT_PATH", ""), "/"),
		AllowedOrigins:   parseList(getEnv("ALLOWED_ORIGINS", defaultOrigins)),
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverFS)),
		SessionsDir:      getEnv("SESSIONS_DIR", "sessions"),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionRetention: time.Duration(getEnvInt("SESSION_RETENTION_DAYS", 365)) * 24 * time.Hour,
		SweepInterval:    time.Duration(getEnvInt("SESSION_SWEEP_INTERVAL_HOURS", 0)) * time.Hour,
		MaxUploadBytes:   int64(getEnvInt("MAX_UPLOAD_SIZE_MB", 10)) * 1024 * 1024,
		GradeRateLimit:   getEnvInt("GRADE_RATE_LIMIT_PER_MIN", 30),
		Grading: Grading{
			OptionAlphabet: parseAlphabet(getEnv("OPTION_ALPHABET", defaultAlphabet)),
			PassMark:       getEnvFloat("PASS_MARK", 5.0),
			MinQuestions:   getEnvInt("MIN_QUESTIONS", 5),
			MaxQuestions:   getEnvInt("MAX_QUESTIONS", 20),
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// parseList splits a comma-separated string into a trimmed slice.
// Returns nil (allow-all for origins) if the input is empty.
func parseList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseAlphabet upper-cases the configured option letters and drops duplicates,
// keeping the declared order. Answers are scanned one character at a time, so
// multi-character tokens are skipped; an alphabet left empty falls back to
// defaultAlphabet.
func parseAlphabet(raw string) []string {
	seen := make(map[string]bool)
	var letters []string
	for _, l := range parseList(raw) {
		l = strings.ToUpper(l)
		if utf8.RuneCountInString(l) != 1 || seen[l] {
			continue
		}
		seen[l] = true
		letters = append(letters, l)
	}
	if len(letters) == 0 && raw != defaultAlphabet {
		return parseAlphabet(defaultAlphabet)
	}
	return letters
}
