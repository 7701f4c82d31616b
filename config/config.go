// Package config provides application configuration.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

const (
	AppName     = "smartlook"
	EnvFileName = "config.env"
)

// Config holds all application configuration. The Gemini API key is read
// from the environment by the gateway itself, lazily on first use.
type Config struct {
	Addr        string
	CacheDBPath string
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		Addr:        getEnv("SMARTLOOK_ADDR", ":8080"),
		CacheDBPath: getEnv("SMARTLOOK_CACHE_DB", "analysis-cache.db"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// LoadEnvFile loads environment variables from the config file in the
// user's config directory, then from a local .env. Errors are ignored
// since the files may not exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load()
}
