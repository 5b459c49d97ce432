package config

import (
	"os"
	"strconv"

	"github.com/gofiber/fiber/v2/log"
	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=footwear port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigins string
	LogSQL      bool

	// Printed on invoices
	ShopName    string
	ShopAddress string
	ShopPhone   string

	// "HH:MM" local time for the daily sales summary job, "off" disables it
	DailySummaryAt string
}

func Load() *Config {
	// .env is optional; real environment variables win
	if err := godotenv.Load(); err != nil {
		log.Debugf(".env not loaded: %v", err)
	}

	cfg := &Config{
		HTTPPort:       getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:    getEnv("DATABASE_DSN", defaultDSN),
		JWTSecret:      getEnv("JWT_SECRET", ""),
		CORSOrigins:    getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		LogSQL:         getEnvBool("LOG_SQL", false),
		ShopName:       getEnv("SHOP_NAME", "AONE FOOTWEAR"),
		ShopAddress:    getEnv("SHOP_ADDRESS", "Main Market, Bhubaneswar, Odisha"),
		ShopPhone:      getEnv("SHOP_PHONE", "+91-9876543210"),
		DailySummaryAt: getEnv("DAILY_SUMMARY_AT", "23:55"),
	}

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET is not set")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("JWT_SECRET must be at least 32 characters")
	}
	if cfg.DatabaseDSN == defaultDSN {
		log.Warn("DATABASE_DSN is using the default local value")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		log.Warn("CORS_ALLOWED_ORIGINS is using the default development origin")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Warnf("%s=%q is not a boolean, using %t", key, v, def)
		return def
	}
	return b
}
