package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed roles.yaml
var rolesYAML []byte

type Config struct {
	Matching MatchingConfig
	Database DatabaseConfig
	Web      WebConfig
	Roles    RolesConfig
}

type MatchingConfig struct {
	// EnrollmentThreshold gates new registrations. A query closer than this
	// to an enrolled descriptor is treated as the same person and the
	// registration is rejected as a duplicate.
	EnrollmentThreshold float64
	// VerificationThreshold is the looser operating point used to identify
	// an already enrolled person.
	VerificationThreshold float64
	// EmbeddingDim is the expected descriptor length, fixed per deployment.
	// face-api style models produce 128-dimensional descriptors.
	EmbeddingDim int
}

type DatabaseConfig struct {
	URL          string // PostgreSQL connection URL (empty disables the backend)
	SQLitePath   string // path to a SQLite file, used when URL is empty
	MaxOpenConns int    // maximum open connections (default 25)
	MaxIdleConns int    // maximum idle connections (default 5)
}

type WebConfig struct {
	Host string
	Port int
}

type RolesConfig struct {
	Roles []string `yaml:"roles"`
}

// Known reports whether the role is part of the configured vocabulary.
// An empty vocabulary accepts any non-empty role.
func (c *RolesConfig) Known(role string) bool {
	if len(c.Roles) == 0 {
		return role != ""
	}
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a positive float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f > 0 {
		return f
	}
	return defaultVal
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var roles RolesConfig
	if err := yaml.Unmarshal(rolesYAML, &roles); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded roles.yaml: " + err.Error())
	}

	return &Config{
		Matching: MatchingConfig{
			EnrollmentThreshold:   envFloat("MATCH_ENROLLMENT_THRESHOLD", 0.4),
			VerificationThreshold: envFloat("MATCH_VERIFICATION_THRESHOLD", 0.6),
			EmbeddingDim:          envInt("EMBEDDING_DIM", 128),
		},
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			SQLitePath:   os.Getenv("SQLITE_PATH"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", 8080),
		},
		Roles: roles,
	}
}
