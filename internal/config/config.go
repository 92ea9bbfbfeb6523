package config

import (
	"os"
	"strconv"
)

// Config represents the complete application configuration
type Config struct {
	Paths    PathConfig
	Database DatabaseConfig
	Server   ServerConfig
}

// PathConfig holds file system paths
type PathConfig struct {
	CasesDir   string
	RunsDir    string
	PolicyFile string
}

// DatabaseConfig holds the optional run-registry database settings. When URL
// is empty the JSONL index is used instead.
type DatabaseConfig struct {
	URL string
}

// ServerConfig holds the report server settings
type ServerConfig struct {
	Port int
}

// Load reads configuration from environment variables, applying defaults for
// anything unset
func Load() (*Config, error) {
	cfg := &Config{
		Paths: PathConfig{
			CasesDir:   getEnv("ABFACTORY_CASES_DIR", "cases"),
			RunsDir:    getEnv("ABFACTORY_RUNS_DIR", "runs"),
			PolicyFile: os.Getenv("ABFACTORY_POLICY"),
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		Server: ServerConfig{
			Port: GetEnvInt("ABFACTORY_PORT", 8085),
		},
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// GetEnvInt reads an integer environment variable with a fallback
func GetEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
