// Package config loads process-wide configuration from the environment.
// It is read once at startup and passed explicitly into the components
// that need it; nothing reads the environment after Load returns.
package config

import (
	"os"
	"strconv"
	"time"
)

// InsecureDevSecret signs sessions when JWT_SECRET is unset. It exists so
// a fresh checkout runs without setup; any real deployment must set
// JWT_SECRET, and main logs a warning when this fallback is active.
const InsecureDevSecret = "dev_secret"

// Config holds all runtime configuration.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string

	ResendAPIKey string
	MailFrom     string

	CORSAllowedOrigin string

	AuthRatePerMin  float64
	AuthRateBurst   int
	RateLimitWindow time.Duration

	LogLevel string
}

// Load reads configuration from the environment, applying defaults for
// everything that is optional. Only the JWT secret has a (deliberately
// insecure) fallback; the mail key may be empty, which disables delivery
// and routes codes to the server log.
func Load() *Config {
	return &Config{
		Port:              getEnvInt("PORT", 8080),
		DBPath:            getEnvString("DB_PATH", "data/stepmates.db"),
		JWTSecret:         getEnvString("JWT_SECRET", InsecureDevSecret),
		ResendAPIKey:      os.Getenv("RESEND_API_KEY"),
		MailFrom:          getEnvString("MAIL_FROM", "Stepmates <onboarding@resend.dev>"),
		CORSAllowedOrigin: getEnvString("CORS_ALLOWED_ORIGIN", "*"),
		AuthRatePerMin:    getEnvFloat("AUTH_RATE_PER_MIN", 30),
		AuthRateBurst:     getEnvInt("AUTH_RATE_BURST", 10),
		RateLimitWindow:   getEnvDuration("RATE_LIMIT_CLEANUP", 5*time.Minute),
		LogLevel:          getEnvString("LOG_LEVEL", "info"),
	}
}

// UsingDevSecret reports whether the insecure fallback secret is active.
func (c *Config) UsingDevSecret() bool {
	return c.JWTSecret == InsecureDevSecret
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvFloat(key string, defaultVal float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return defaultVal
	}
	return f
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
