package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"dern-backend/internal/schedule"

	"github.com/joho/godotenv"
)

const defaultWorkingHours = "09:00,10:00,11:00,12:00,13:00,14:00,15:00,16:00"

type Config struct {
	Env                     string
	MongoURI                string
	MongoDB                 string
	ServerAddr              string
	FrontendOrigins         []string
	RateLimitAppointments   int
	RateLimitWindowSec      int
	RedisURL                string
	RedisAddr               string
	RedisPassword           string
	RedisDB                 int
	CacheTTLSeconds         int
	JWTSecret               string
	AccessTTLMinutes        int
	WorkingHours            []string
	CancellationNoticeHours int
	BookingLockTTLSeconds   int
	KafkaBrokers            string
	KafkaTopic              string
	BrevoAPIKey             string
	BrevoSenderEmail        string
	BrevoSenderName         string
	BrevoSandbox            bool
	MetricsEnabled          bool
	LogLevel                slog.Level
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load(".env")

	mongoURI := getEnv("MONGO_URI", "mongodb://localhost:27017/dern")
	mongoDB := getEnv("MONGO_DB", "")
	if mongoDB == "" {
		mongoDB = mongoDBFromURI(mongoURI)
	}
	if mongoDB == "" {
		mongoDB = "dern"
	}

	workingHours, err := schedule.ParseWorkingHours(getEnv("WORKING_HOURS", defaultWorkingHours))
	if err != nil {
		return nil, fmt.Errorf("WORKING_HOURS: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL: %w", err)
	}

	cfg := &Config{
		Env:                     getEnv("APP_ENV", "development"),
		MongoURI:                mongoURI,
		MongoDB:                 mongoDB,
		ServerAddr:              getEnv("SERVER_ADDR", ":8080"),
		FrontendOrigins:         splitList(getEnv("FRONTEND_ORIGIN", "http://localhost:3000")),
		RateLimitAppointments:   getEnvInt("RATE_LIMIT_APPOINTMENTS", 10),
		RateLimitWindowSec:      getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
		RedisURL:                getEnv("REDIS_URL", ""),
		RedisAddr:               getEnv("REDIS_ADDR", ""),
		RedisPassword:           getEnv("REDIS_PASSWORD", ""),
		RedisDB:                 getEnvInt("REDIS_DB", 0),
		CacheTTLSeconds:         getEnvInt("CACHE_TTL_SECONDS", 60),
		JWTSecret:               getEnv("JWT_SECRET", ""),
		AccessTTLMinutes:        getEnvInt("ACCESS_TTL_MINUTES", 60),
		WorkingHours:            workingHours,
		CancellationNoticeHours: getEnvInt("CANCELLATION_NOTICE_HOURS", 24),
		BookingLockTTLSeconds:   getEnvInt("BOOKING_LOCK_TTL_SECONDS", 10),
		KafkaBrokers:            getEnv("KAFKA_BROKERS", ""),
		KafkaTopic:              getEnv("KAFKA_TOPIC", "dern.appointments"),
		BrevoAPIKey:             getEnv("BREVO_API_KEY", ""),
		BrevoSenderEmail:        getEnv("BREVO_SENDER_EMAIL", ""),
		BrevoSenderName:         getEnv("BREVO_SENDER_NAME", ""),
		BrevoSandbox:            getEnvBool("BREVO_SANDBOX", false),
		MetricsEnabled:          getEnvBool("METRICS_ENABLED", true),
		LogLevel:                level,
	}

	if cfg.JWTSecret == "" && cfg.Env == "production" {
		return nil, fmt.Errorf("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func (c *Config) RedisEnabled() bool {
	return c.RedisURL != "" || c.RedisAddr != ""
}

func (c *Config) CancellationNotice() time.Duration {
	return time.Duration(c.CancellationNoticeHours) * time.Hour
}

func mongoDBFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	db := strings.Trim(u.Path, "/")
	if db == "" {
		return ""
	}
	// mongodb URIs sometimes include extra path segments; we only support the first one as db name.
	if idx := strings.Index(db, "/"); idx >= 0 {
		db = db[:idx]
	}
	return db
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
