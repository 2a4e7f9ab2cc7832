package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port        string
	DatabaseURL string
	AppEnv      string
	BaseURL     string
	RedisURL    string // optional; enables token revocation on logout

	// Auth
	JWTSecret          string
	TokenExpiry        time.Duration
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string
	FrontendURL        string
	AllowedEmails      []string

	Links LinkConfig
	Log   LogConfig

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LinkConfig is threaded into the link service and its collaborators.
type LinkConfig struct {
	ShortCodeLength     int
	MinAliasLength      int
	MaxAliasLength      int
	MaxGenerateAttempts int
	ProbeTimeout        time.Duration
	PreviewTimeout      time.Duration
	AllowAnonymous      bool
	IPHashSalt          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
	MaxSize    int
	MaxBackups int
	MaxAge     int
	Compress   bool
}

func Load() (*Config, error) {
	_ = godotenv.Load() // Ignore error if .env not found (e.g. prod)

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:        v.GetString("PORT"),
		DatabaseURL: v.GetString("DATABASE_URL"),
		AppEnv:      v.GetString("APP_ENV"),
		BaseURL:     strings.TrimRight(v.GetString("BASE_URL"), "/"),
		RedisURL:    v.GetString("REDIS_URL"),

		JWTSecret:          v.GetString("JWT_SECRET"),
		TokenExpiry:        time.Duration(v.GetInt("TOKEN_EXPIRE_MINUTES")) * time.Minute,
		GoogleClientID:     v.GetString("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: v.GetString("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  v.GetString("GOOGLE_REDIRECT_URL"),
		FrontendURL:        v.GetString("FRONTEND_URL"),
		AllowedEmails:      splitList(v.GetString("ALLOWED_EMAILS")),

		Links: LinkConfig{
			ShortCodeLength:     v.GetInt("SHORT_CODE_LENGTH"),
			MinAliasLength:      v.GetInt("MIN_ALIAS_LENGTH"),
			MaxAliasLength:      v.GetInt("MAX_ALIAS_LENGTH"),
			MaxGenerateAttempts: v.GetInt("MAX_GENERATE_ATTEMPTS"),
			ProbeTimeout:        v.GetDuration("PROBE_TIMEOUT"),
			PreviewTimeout:      v.GetDuration("PREVIEW_TIMEOUT"),
			AllowAnonymous:      v.GetBool("ALLOW_ANONYMOUS_LINKS"),
			IPHashSalt:          v.GetString("IP_HASH_SALT"),
		},

		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT_PATH"),
			MaxSize:    v.GetInt("LOG_MAX_SIZE"),
			MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
			MaxAge:     v.GetInt("LOG_MAX_AGE"),
			Compress:   v.GetBool("LOG_COMPRESS"),
		},

		ReadTimeout:     v.GetDuration("READ_TIMEOUT"),
		WriteTimeout:    v.GetDuration("WRITE_TIMEOUT"),
		ShutdownTimeout: v.GetDuration("SHUTDOWN_TIMEOUT"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_URL", "file:db.sqlite")
	v.SetDefault("APP_ENV", "local")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("REDIS_URL", "")

	v.SetDefault("JWT_SECRET", "secret")
	v.SetDefault("TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/auth/google/callback")
	v.SetDefault("FRONTEND_URL", "http://localhost:8080/dashboard")
	v.SetDefault("ALLOWED_EMAILS", "")

	v.SetDefault("SHORT_CODE_LENGTH", 6)
	v.SetDefault("MIN_ALIAS_LENGTH", 3)
	v.SetDefault("MAX_ALIAS_LENGTH", 50)
	v.SetDefault("MAX_GENERATE_ATTEMPTS", 3)
	v.SetDefault("PROBE_TIMEOUT", "5s")
	v.SetDefault("PREVIEW_TIMEOUT", "5s")
	v.SetDefault("ALLOW_ANONYMOUS_LINKS", true)
	v.SetDefault("IP_HASH_SALT", "")

	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("LOG_OUTPUT_PATH", "")
	v.SetDefault("LOG_MAX_SIZE", 100)
	v.SetDefault("LOG_MAX_BACKUPS", 3)
	v.SetDefault("LOG_MAX_AGE", 28)
	v.SetDefault("LOG_COMPRESS", true)

	v.SetDefault("READ_TIMEOUT", "5s")
	v.SetDefault("WRITE_TIMEOUT", "10s")
	v.SetDefault("SHUTDOWN_TIMEOUT", "10s")
}

func (c *Config) validate() error {
	if c.Links.ShortCodeLength < 1 || c.Links.ShortCodeLength > 10 {
		return fmt.Errorf("SHORT_CODE_LENGTH must be between 1 and 10, got %d", c.Links.ShortCodeLength)
	}
	if c.Links.MinAliasLength < 1 || c.Links.MinAliasLength > c.Links.MaxAliasLength {
		return fmt.Errorf("invalid alias bounds [%d, %d]", c.Links.MinAliasLength, c.Links.MaxAliasLength)
	}
	if c.Links.MaxGenerateAttempts < 1 {
		return fmt.Errorf("MAX_GENERATE_ATTEMPTS must be positive, got %d", c.Links.MaxGenerateAttempts)
	}
	if c.TokenExpiry <= 0 {
		return fmt.Errorf("TOKEN_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// IsProduction reports whether cookies should be marked Secure.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// GoogleEnabled reports whether the OAuth login routes should be mounted.
func (c *Config) GoogleEnabled() bool {
	return c.GoogleClientID != ""
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
