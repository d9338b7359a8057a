package config

import (
	"os"
	"strings"
	"time"
)

// Server captures process-level configuration so main stays lean.
type Server struct {
	Addr           string
	LogLevel       string
	RequestTimeout time.Duration

	// Collaborator boundaries. Empty OCRServiceURL disables OCR; intake then
	// relies on manual identifiers alone.
	OCRServiceURL string
	OCRTimeout    time.Duration
	NotifyMode    string // "log" or "smtp"
	SMTPAddr      string
	SMTPFrom      string
	NotifyTimeout time.Duration

	// Resolver seed: path to an identifier,email table. Empty means the
	// built-in dev seed.
	ResolverTablePath string

	// Staff placeholder gate. Empty signing key disables the gate.
	StaffSigningKey string

	// Box bridge.
	BoxOpenTTL      time.Duration
	BoxSweepEvery   time.Duration
	AllowedOrigins  []string
	IntakeRateLimit int
}

// FromEnv builds a Server config from environment variables with dev
// defaults.
func FromEnv() Server {
	cfg := Server{
		Addr:              getEnv("CARDRETURN_ADDR", ":8080"),
		LogLevel:          getEnv("CARDRETURN_LOG_LEVEL", "info"),
		RequestTimeout:    getDuration("CARDRETURN_REQUEST_TIMEOUT", 30*time.Second),
		OCRServiceURL:     os.Getenv("CARDRETURN_OCR_URL"),
		OCRTimeout:        getDuration("CARDRETURN_OCR_TIMEOUT", 8*time.Second),
		NotifyMode:        getEnv("CARDRETURN_NOTIFY_MODE", "log"),
		SMTPAddr:          getEnv("CARDRETURN_SMTP_ADDR", "localhost:25"),
		SMTPFrom:          getEnv("CARDRETURN_SMTP_FROM", "lostfound@campus.edu"),
		NotifyTimeout:     getDuration("CARDRETURN_NOTIFY_TIMEOUT", 10*time.Second),
		ResolverTablePath: os.Getenv("CARDRETURN_RESOLVER_TABLE"),
		StaffSigningKey:   os.Getenv("CARDRETURN_STAFF_SIGNING_KEY"),
		BoxOpenTTL:        getDuration("CARDRETURN_BOX_OPEN_TTL", 30*time.Second),
		BoxSweepEvery:     getDuration("CARDRETURN_BOX_SWEEP_EVERY", 2*time.Second),
		IntakeRateLimit:   60,
	}

	if origins := os.Getenv("CARDRETURN_ALLOWED_ORIGINS"); origins != "" {
		cfg.AllowedOrigins = strings.Split(origins, ",")
	} else {
		cfg.AllowedOrigins = []string{"*"}
	}

	return cfg
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
