package config

import (
	"os"
	"strconv"
	"time"

	"ludo_arena/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string
	JWTSecret   string
	RedisAddr   string
	RedisPass   string
	RedisDB     int

	// Room timing
	SettleDelay     time.Duration // forming -> active pause so clients finish subscribing
	AutoSkipDelay   time.Duration // lets the UI show the roll before a no-legal-move skip
	RoomIdleTimeout time.Duration // completed/abandoned room GC

	// Rate limits
	APIRateLimit    int
	APIRateWindow   time.Duration
	AuthRateLimit   int
	AuthRateWindow  time.Duration
	ActionRateLimit int // per identity on authenticated routes
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	return &Config{
		AppPort:     port,
		DatabaseURL: dbURL,
		JWTSecret:   jwtSecret,
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisPass:   os.Getenv("REDIS_PASSWORD"),
		RedisDB:     redisDB,

		SettleDelay:     envDuration("SETTLE_DELAY_MS", 3000) * time.Millisecond,
		AutoSkipDelay:   envDuration("AUTO_SKIP_DELAY_MS", 2000) * time.Millisecond,
		RoomIdleTimeout: envDuration("ROOM_IDLE_TIMEOUT_MIN", 60) * time.Minute,

		APIRateLimit:    envInt("API_RATE_LIMIT", 30),
		APIRateWindow:   envDuration("API_RATE_WINDOW_SECONDS", 60) * time.Second,
		AuthRateLimit:   envInt("AUTH_RATE_LIMIT", 5),
		AuthRateWindow:  envDuration("AUTH_RATE_WINDOW_SECONDS", 60) * time.Second,
		ActionRateLimit: envInt("ACTION_RATE_LIMIT", 120),
	}
}

func envInt(name string, def int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func envDuration(name string, def int64) time.Duration {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			return time.Duration(n)
		}
	}
	return time.Duration(def)
}
