package config

import (
	"os"
	"strconv"
)

type Config struct {
	Addr        string
	JWTSecret   string
	JWTTTLMin   int
	SQLITEDsn   string
	PostgresDsn string
	RedisAddr   string

	MLBaseURL    string
	MLTimeoutSec int

	UploadDir     string
	UploadBaseURL string

	TypingIdleSec int

	SendGridAPIKey string
	SendGridFrom   string
}

func getenv(key, def string) string {
	val := os.Getenv(key)
	if val != "" {
		return val
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func MustLoad() Config {
	cfg := Config{
		Addr:           getenv("HTTP_ADDR", ":8080"),
		JWTSecret:      getenv("JWT_SECRET", ""),
		JWTTTLMin:      getenvInt("JWT_TTL_MIN", 1440),
		SQLITEDsn:      getenv("SQLITE_DSN", "file:campusease.db?_pragma=foreign_keys(ON)"),
		PostgresDsn:    getenv("POSTGRES_DSN", ""),
		RedisAddr:      getenv("REDIS_ADDR", ""),
		MLBaseURL:      getenv("ML_BASE_URL", "http://localhost:5000"),
		MLTimeoutSec:   getenvInt("ML_TIMEOUT_SEC", 5),
		UploadDir:      getenv("UPLOAD_DIR", "uploads"),
		UploadBaseURL:  getenv("UPLOAD_BASE_URL", "/uploads"),
		TypingIdleSec:  getenvInt("TYPING_IDLE_SEC", 3),
		SendGridAPIKey: getenv("SENDGRID_API_KEY", ""),
		SendGridFrom:   getenv("SENDGRID_FROM", ""),
	}
	return cfg
}
