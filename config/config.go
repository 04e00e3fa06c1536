package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all agent configuration loaded from environment variables.
type Config struct {
	// Analysis targets
	TargetURL      string
	PagesToAnalyze []string
	DealersToTrack []string

	// Intelligence tuning
	ConfidenceThreshold  float64
	MaxInsightsPerReport int

	// Fetching
	FetcherKind    string // "http" or "browser"
	FetchTimeoutS  int
	RateLimitMs    int
	MaxRetries     int
	MaxConcurrency int
	ChromeBin      string

	// Storage
	StorageDriver string // "sqlite" or "postgres"
	SQLitePath    string
	ReportsDir    string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	// Reporting & delivery
	SubjectPrefix  string
	SMTPServer     string
	SMTPPort       int
	SenderEmail    string
	SenderPassword string
	Recipients     []string

	// Cron schedule ("0 6 * * 0" = Sunday 06:00); empty runs once and exits.
	Schedule string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		TargetURL: getEnv("TARGET_URL", "https://plus-auto.ro"),
		PagesToAnalyze: getEnvList("PAGES_TO_ANALYZE",
			"/,/autoturisme/,/autoturisme/?page=2,/autoturisme/?page=10,/autoturisme/?page=50"),
		DealersToTrack: getEnvList("DEALERS_TO_TRACK",
			"autodel,autoruler,san-auto,wow-auto-rulate,autorulateleasing,"+
				"vest-garage-auto,corect-automobile-prahova,aerocar-autodealer,fordstore-timisoara"),

		ConfidenceThreshold:  getEnvFloat("CONFIDENCE_THRESHOLD", 0.80),
		MaxInsightsPerReport: getEnvInt("MAX_INSIGHTS_PER_REPORT", 12),

		FetcherKind:    getEnv("FETCHER", "http"),
		FetchTimeoutS:  getEnvInt("FETCH_TIMEOUT_S", 15),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 2000),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		ChromeBin:      getEnv("CHROME_BIN", ""),

		StorageDriver: getEnv("STORAGE_DRIVER", "sqlite"),
		SQLitePath:    getEnv("SQLITE_PATH", "./intelligence_agent.db"),
		ReportsDir:    getEnv("REPORTS_DIR", "./intelligence_reports"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "intel"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", ""),
		PostgresDB:       getEnv("POSTGRES_DB", "intelligence_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		SubjectPrefix:  getEnv("SUBJECT_PREFIX", "Plus-Auto.ro Intelligence"),
		SMTPServer:     getEnv("SMTP_SERVER", "smtp.gmail.com"),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SenderEmail:    getEnv("SENDER_EMAIL", ""),
		SenderPassword: getEnv("SENDER_PASSWORD", ""),
		Recipients:     getEnvList("RECIPIENTS", ""),

		Schedule: getEnv("SCHEDULE", ""),
	}
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	if raw == "" {
		return nil
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
