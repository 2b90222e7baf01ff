package config

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Console configures the terminal console binary.
type Console struct {
	BaseURL     string        `env:"CONSOLE_BASE_URL,     default=http://localhost:8080"`
	HTTPTimeout time.Duration `env:"CONSOLE_HTTP_TIMEOUT, default=15s"`
	LogLevel    string        `env:"LOG_LEVEL,            default=info"`
	LogPretty   bool          `env:"LOG_PRETTY,           default=true"`
}

// Server configures the in-memory development backend.
type Server struct {
	Port          string        `env:"PORT,           default=8080"`
	Env           string        `env:"ENV,            default=development"`
	JWTSecret     string        `env:"JWT_SECRET,     default=dev-secret-change-me"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=5m"`
	AdminUsername string        `env:"ADMIN_USERNAME, default=admin"`
	AdminPassword string        `env:"ADMIN_PASSWORD, default=admin123"`
	LogLevel      string        `env:"LOG_LEVEL,      default=info"`
	LogPretty     bool          `env:"LOG_PRETTY,     default=true"`
}

// LoadConsole reads console configuration from the environment.
func LoadConsole(ctx context.Context) (*Console, error) {
	var cfg Console
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadServer reads devserver configuration from the environment.
func LoadServer(ctx context.Context) (*Server, error) {
	var cfg Server
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
