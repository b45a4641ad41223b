package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// EnvLoader handles loading environment variables from a .env file. kgxflow
// needs no secrets by itself (§6 "Environment variables: none required by
// the core"), but .env loading is still carried as ambient config plumbing
// the way the teacher's config package carries it, for deployments that
// want to set KGXFLOW_* overrides (e.g. a shared cache directory) without
// editing the YAML config.
type EnvLoader struct {
	loaded bool
	path   string
}

// NewEnvLoader creates an environment loader.
func NewEnvLoader() *EnvLoader {
	return &EnvLoader{}
}

// Load loads environment variables from a .env file in the current or a
// parent directory. It is not an error for no .env file to exist.
func (e *EnvLoader) Load() error {
	if e.loaded {
		return nil
	}

	envPath, err := findEnvFile()
	if err != nil {
		// No .env file is fine; kgxflow has no required secrets.
		e.loaded = true
		return nil
	}

	e.path = envPath
	if err := godotenv.Load(envPath); err != nil {
		return fmt.Errorf("failed to load %s: %w", envPath, err)
	}

	e.loaded = true
	return nil
}

// GetPath returns the path to the loaded .env file, or "" if none was found.
func (e *EnvLoader) GetPath() string {
	return e.path
}

// Validate checks that every key in required is set, returning an error
// listing whichever are missing. Used by callers that layer their own
// required-variable lists on top of the ambient loader (kgxflow's core
// itself requires none).
func (e *EnvLoader) Validate(required []string) error {
	var missing []string
	for _, key := range required {
		if os.Getenv(key) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required environment variables: %v", missing)
	}
	return nil
}

// findEnvFile searches for .env file in current and parent directories
func findEnvFile() (string, error) {
	// Try current directory first
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	// Search up the directory tree (max 5 levels)
	searchPath := cwd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(searchPath, ".env")
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}

		// Move up one directory
		parent := filepath.Dir(searchPath)
		if parent == searchPath {
			break // Reached root
		}
		searchPath = parent
	}

	return "", fmt.Errorf(".env file not found in %s or parent directories", cwd)
}

// Helper functions for type-safe environment variable access

// GetString returns string value or default
func GetString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// GetInt returns int value or default
func GetInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

// GetBool returns bool value or default
func GetBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

// MustGetString returns string value or panics
func MustGetString(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}
