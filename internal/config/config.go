// Package config loads server configuration from the environment.
package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config centralizes the server's configuration.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8080"`
	Env      string `env:"APP_ENV" envDefault:"development"`

	// APIURL is the base URL of the backend API that performs
	// authentication, receipt OCR and canonical split computation.
	APIURL string `env:"API_URL,required"`

	// SessionSecret signs session blobs and seals refresh-token cookies.
	SessionSecret string `env:"SESSION_SECRET,required"`

	// SessionBackend selects where session state lives: "cookie" keeps
	// everything in the browser, "sqlite" stores it server-side.
	SessionBackend string `env:"SESSION_BACKEND" envDefault:"cookie"`
	SessionDBPath  string `env:"SESSION_DB_PATH" envDefault:"./data/sessions.db"`
}

// Load reads configuration from the environment, honoring a local .env
// file when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Production reports whether the server runs in production mode; it
// controls the cookie Secure attribute and gin's release mode.
func (c *Config) Production() bool {
	return c.Env == "production"
}
