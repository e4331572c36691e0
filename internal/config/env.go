package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables applied by ApplyEnv.
const (
	EnvRootURL   = "SECREGISTRY_ROOT_URL"
	EnvProxy     = "SECREGISTRY_PROXY"
	EnvUserAgent = "SECREGISTRY_USER_AGENT"
	EnvCacheDir  = "SECREGISTRY_CACHE_DIR"

	// EnvFile names a single .env file to load instead of the defaults.
	EnvFile = "SECREGISTRY_ENV_FILE"
)

// LoadEnvFiles loads .env files into the process environment.
// Variables already set are not overridden, so earlier files win.
//
// With no paths, SECREGISTRY_ENV_FILE is loaded if set; otherwise
// .env.local and then .env. Missing files are ignored.
func LoadEnvFiles(paths ...string) error {
	if len(paths) == 0 {
		if envFile := os.Getenv(EnvFile); envFile != "" {
			paths = []string{envFile}
		} else {
			paths = []string{".env.local", ".env"}
		}
	}

	for _, path := range paths {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
	}
	return nil
}

// ApplyEnv overrides defaults with the SECREGISTRY_* variables that are
// set. CLI flags are applied afterwards and win over both.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvRootURL)); v != "" {
		c.RootURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvProxy)); v != "" {
		c.Proxy = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUserAgent)); v != "" {
		c.UserAgent = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		c.CacheDir = v
	}
}
