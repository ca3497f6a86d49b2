package config // package config loads application configuration from environment variables

import (
	"fmt"     // fmt formats validation errors
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
	"strings" // strings splits list-valued variables
	"time"    // time parses durations for background jobs

	"github.com/joho/godotenv" // godotenv loads a local .env file into the environment
	"golang.org/x/crypto/bcrypt"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  It is built once by Load and passed by value to
// the components that need it; nothing in the application reads the
// environment after start-up.
type Config struct {
	Env             string        // application environment (e.g. "dev", "prod")
	Port            string        // HTTP port to listen on
	LogLevel        string        // zap level name (debug, info, warn, error)
	DBUser          string        // database username
	DBPass          string        // database password (optional)
	DBHost          string        // database host address
	DBPort          string        // database port number
	DBName          string        // database name
	JWTSecret       string        // secret used to sign session tokens; never logged
	JWTAlgorithm    string        // HMAC signing algorithm (HS256, HS384, HS512)
	AccessTTL       time.Duration // session token lifetime
	BcryptCost      int           // bcrypt cost for password hashing
	CleanupInterval time.Duration // how often revoked tokens are pruned
	CleanupMargin   time.Duration // safety margin added to AccessTTL when pruning
	CORSOrigins     []string      // origins allowed by the CORS middleware
	AutoMigrate     bool          // create tables on start-up when missing
	RequestTimeout  time.Duration // upper bound for store calls made by one request
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is applied first when it
// exists; variables already present in the environment win.  Required
// variables are enforced by must() and missing values cause the program
// to exit with a fatal log message.
func Load() Config {
	_ = godotenv.Load() // absent .env is not an error

	cfg := Config{
		Env:             must("APP_ENV"),
		Port:            must("APP_PORT"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DBUser:          must("DB_USER"),
		DBPass:          os.Getenv("DB_PASS"), // empty allowed
		DBHost:          must("DB_HOST"),
		DBPort:          must("DB_PORT"),
		DBName:          must("DB_NAME"),
		JWTSecret:       must("JWT_SECRET"),
		JWTAlgorithm:    strings.ToUpper(getenv("JWT_ALGORITHM", "HS256")),
		AccessTTL:       time.Duration(envInt("ACCESS_TOKEN_TTL_HOURS", 24)) * time.Hour,
		BcryptCost:      envInt("BCRYPT_COST", bcrypt.DefaultCost),
		CleanupInterval: envDur("BLACKLIST_CLEANUP_INTERVAL", 24*time.Hour),
		CleanupMargin:   envDur("BLACKLIST_CLEANUP_MARGIN", time.Hour),
		CORSOrigins:     splitList(getenv("CORS_ORIGINS", "http://localhost,http://localhost:3000")),
		AutoMigrate:     envBool("DB_AUTO_MIGRATE", true),
		RequestTimeout:  envDur("REQUEST_TIMEOUT", 5*time.Second),
	}
	if err := cfg.validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}
	return cfg
}

// validate rejects values that would leave the server running in a broken
// state.  A non-positive token lifetime would issue already expired tokens
// and shrink the blacklist cutoff below the real token lifetime.
func (c Config) validate() error {
	switch c.JWTAlgorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported JWT_ALGORITHM: %q", c.JWTAlgorithm)
	}
	if c.AccessTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL_HOURS must be positive, got %s", c.AccessTTL)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("invalid BCRYPT_COST: %d", c.BcryptCost)
	}
	return nil
}

// RevocationCutoff is the age after which a blacklist entry can no longer
// protect anything: the token it names has already expired on its own.
func (c Config) RevocationCutoff() time.Duration {
	return c.AccessTTL + c.CleanupMargin
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(k string, d bool) bool {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}
