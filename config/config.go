package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	MongoURI string
	DBName   string

	JWTSecret string
	TokenTTL  time.Duration

	RedisAddr     string
	RedisPassword string

	SendGridAPIKey string
	MailFrom       string
	OperatorEmail  string

	// Accounts registered with one of these emails get the admin role.
	AdminEmails []string
}

// LoadEnv reads .env into the process environment. A missing file is not an error.
func LoadEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env", slog.Any("err", err))
	}
}

func Load() Config {
	return Config{
		AppEnv:   GetEnv("APP_ENV", "dev"),
		LogLevel: GetEnv("LOG_LEVEL", "info"),
		Port:     GetEnv("PORT", "8080"),

		MongoURI: os.Getenv("MONGO_URI"),
		DBName:   os.Getenv("DB_NAME"),

		JWTSecret: os.Getenv("JWT_SECRET"),
		TokenTTL:  time.Duration(GetEnvInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		SendGridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       GetEnv("MAIL_FROM", "orders@giftshop.local"),
		OperatorEmail:  os.Getenv("OPERATOR_EMAIL"),

		AdminEmails: splitList(os.Getenv("ADMIN_EMAILS")),
	}
}

func (c Config) Validate() error {
	var missing []string
	if c.MongoURI == "" {
		missing = append(missing, "MONGO_URI")
	}
	if c.DBName == "" {
		missing = append(missing, "DB_NAME")
	}
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return errors.New("config: missing " + strings.Join(missing, ", "))
	}
	return nil
}

func (c Config) IsAdminEmail(email string) bool {
	email = strings.ToLower(strings.TrimSpace(email))
	for _, e := range c.AdminEmails {
		if e == email {
			return true
		}
	}
	return false
}

func GetEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func GetEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
