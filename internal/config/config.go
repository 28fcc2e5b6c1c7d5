package config

import (
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/kozaktomas/face-registry/internal/constants"
)

// Supported database drivers
const (
	DriverPostgres = "postgres"
	DriverMariaDB  = "mariadb"
	DriverMemory   = "memory"
)

type Config struct {
	Database DatabaseConfig
	Matching MatchingConfig
	Web      WebConfig
}

type DatabaseConfig struct {
	Driver       string // postgres (default), mariadb or memory
	URL          string // Connection URL / DSN for the selected driver
	MaxOpenConns int    // Maximum open connections (default 25)
	MaxIdleConns int    // Maximum idle connections (default 5)
}

type MatchingConfig struct {
	Threshold float64 // Euclidean distance below which two descriptors match (default 0.45)
}

type WebConfig struct {
	Host           string   // defaults to 0.0.0.0
	Port           int      // defaults to 5000
	AllowedOrigins []string // extra CORS origins besides localhost
	RateLimit      float64  // decision requests per second per client, 0 disables
	RateBurst      int      // decision request burst per client (default 10)
	TrustProxy     bool     // take the client address from X-Forwarded-For / X-Real-IP
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

// envFloat reads an environment variable and parses it as a positive finite float.
// Returns the default value if the env var is unset, empty, or invalid.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 || math.IsInf(f, 0) || math.IsNaN(f) {
		return defaultVal
	}
	return f
}

// envBool reads an environment variable as a boolean.
// Returns the default value if the env var is unset, empty, or invalid.
func envBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(strings.TrimSpace(os.Getenv(key)))
	if err != nil {
		return defaultVal
	}
	return b
}

// envList reads a comma-separated environment variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for item := range strings.SplitSeq(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// envString reads an environment variable, falling back to defaultVal when empty.
func envString(key, defaultVal string) string {
	if s := strings.TrimSpace(os.Getenv(key)); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:       strings.ToLower(envString("DATABASE_DRIVER", DriverPostgres)),
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns: envInt("DATABASE_MAX_IDLE_CONNS", 5),
		},
		Matching: MatchingConfig{
			Threshold: envFloat("MATCH_THRESHOLD", constants.DefaultSimilarityThreshold),
		},
		Web: WebConfig{
			Host: envString("WEB_HOST", "0.0.0.0"),
			Port: envInt("WEB_PORT", constants.DefaultWebPort),

			AllowedOrigins: envList("WEB_ALLOWED_ORIGINS"),
			RateLimit:      envFloat("WEB_RATE_LIMIT", 0),
			RateBurst:      envInt("WEB_RATE_BURST", 10),
			TrustProxy:     envBool("WEB_TRUST_PROXY", false),
		},
	}
}

// RequiresURL reports whether the configured driver needs DATABASE_URL.
func (c *DatabaseConfig) RequiresURL() bool {
	return c.Driver != DriverMemory
}
