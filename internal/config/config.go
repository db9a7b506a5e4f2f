package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DevJWTSecret signs sessions when JWT is unset. Validate refuses it in production.
const DevJWTSecret = "default_secret_key"

type Config struct {
	Port  string
	Env   string
	Store string // "mongo" | "memory"

	MongoURI string
	MongoDB  string

	JWTSecret    string
	JWTTTL       time.Duration
	JWTActiveKid string
	JWTActiveKey string
	JWTNextKid   string
	JWTNextKey   string
	CookieName   string
	CookieDomain string

	ClientURL      string
	ClientLocalURL string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string

	BcryptCost       int
	ResetTokenTTL    time.Duration
	ExposeResetToken bool

	RabbitURL         string
	RabbitExchange    string
	RabbitQueue       string
	RabbitBindKey     string
	RabbitConcurrency int

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	SMTPFrom     string

	DDService   string
	DDAgentHost string // tracing is off when empty
}

// Load reads the process environment. In dev mode a local .env file is merged in first.
func Load() Config {
	if getenv("APP_ENV", "dev") == "dev" {
		_ = godotenv.Load()
	}
	return Config{
		Port:  getenv("APP_PORT", "5000"),
		Env:   getenv("APP_ENV", "dev"),
		Store: getenv("STORE", "mongo"),

		MongoURI: getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:  getenv("MONGO_DB", "auth_db"),

		JWTSecret:    getenv("JWT", DevJWTSecret),
		JWTTTL:       time.Duration(geti("JWT_TTL_HOURS", 24)) * time.Hour,
		JWTActiveKid: getenv("JWT_ACTIVE_KID", ""),
		JWTActiveKey: getenv("JWT_ACTIVE_KEY", ""),
		JWTNextKid:   getenv("JWT_NEXT_KID", ""),
		JWTNextKey:   getenv("JWT_NEXT_KEY", ""),
		CookieName:   getenv("COOKIE_NAME", "token"),
		CookieDomain: getenv("COOKIE_DOMAIN", ""),

		ClientURL:      strings.TrimRight(getenv("CLIENT_URL", "http://localhost:3000"), "/"),
		ClientLocalURL: strings.TrimRight(getenv("CLIENT_LOCAL_URL", ""), "/"),

		GoogleClientID:     getenv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getenv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getenv("GOOGLE_REDIRECT_URI", "http://localhost:5000/api/auth/google/callback"),

		BcryptCost:       geti("BCRYPT_COST", 10),
		ResetTokenTTL:    time.Duration(geti("RESET_TOKEN_TTL_MINUTES", 5)) * time.Minute,
		ExposeResetToken: getb("EXPOSE_RESET_TOKEN", true),

		RabbitURL:         getenv("RABBIT_URL", ""),
		RabbitExchange:    getenv("RABBIT_EXCHANGE", "auth.events"),
		RabbitQueue:       getenv("RABBIT_QUEUE", "password-reset-mail"),
		RabbitBindKey:     getenv("RABBIT_BIND_KEY", "password.reset_requested"),
		RabbitConcurrency: geti("RABBIT_CONCURRENCY", 4),

		SMTPHost:     getenv("SMTP_HOST", ""),
		SMTPPort:     geti("SMTP_PORT", 587),
		SMTPUser:     getenv("SMTP_USER", ""),
		SMTPPassword: getenv("SMTP_PASSWORD", ""),
		SMTPFrom:     getenv("SMTP_FROM", "no-reply@localhost"),

		DDService:   getenv("DD_SERVICE", "account-service"),
		DDAgentHost: getenv("DD_AGENT_HOST", ""),
	}
}

// AllowedOrigins are the client origins trusted for CORS and OAuth redirects.
func (c Config) AllowedOrigins() []string {
	out := make([]string, 0, 2)
	for _, o := range []string{c.ClientURL, c.ClientLocalURL} {
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// Validate reports settings that must not reach production.
func (c Config) Validate() error {
	if !c.IsProduction() {
		return nil
	}
	if c.JWTActiveKey == "" && (c.JWTSecret == "" || c.JWTSecret == DevJWTSecret) {
		return errors.New("production needs JWT or JWT_ACTIVE_KEY; refusing the development signing secret")
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func geti(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getb(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
