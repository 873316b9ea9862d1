package config // package config loads application configuration from environment variables

import (
    "log"  // log is used to report configuration errors and halt execution
    "os"   // os provides access to environment variables
    "time" // time expresses the hold/sweep durations
)

// Config holds all runtime configuration values.  Each field corresponds
// to an environment variable.  Required variables are enforced by must()
// and missing values cause the program to exit; tunables fall back to the
// documented defaults.
type Config struct {
    Env           string        // application environment (e.g. "dev", "prod")
    Port          string        // HTTP port to listen on
    JWTSecret     string        // secret used to verify JWTs issued by the auth service
    HoldTTL       time.Duration // how long a hold session lives without an extend (default 600s)
    SweepInterval time.Duration // how often the expiry sweeper scans (default 2s)
    DBUser        string        // database username (persistence disabled when DB_HOST unset)
    DBPass        string        // database password (optional)
    DBHost        string        // database host address
    DBPort        string        // database port number
    DBName        string        // database name
}

// Load reads configuration from environment variables and returns a
// Config.  HOLD_TTL_SECONDS and SWEEP_INTERVAL_SECONDS are the two knobs
// the hold engine exposes; everything else is deployment plumbing.
func Load() Config {
    return Config{
        Env:           must("APP_ENV"),
        Port:          must("APP_PORT"),
        JWTSecret:     must("JWT_SECRET"),
        HoldTTL:       time.Duration(envInt("HOLD_TTL_SECONDS", 600)) * time.Second,
        SweepInterval: time.Duration(envInt("SWEEP_INTERVAL_SECONDS", 2)) * time.Second,
        DBUser:        os.Getenv("DB_USER"),
        DBPass:        os.Getenv("DB_PASS"),
        DBHost:        os.Getenv("DB_HOST"),
        DBPort:        os.Getenv("DB_PORT"),
        DBName:        os.Getenv("DB_NAME"),
    }
}

// PersistenceEnabled reports whether a database is configured.  The
// engine is fully functional without one; confirmed bookings are then
// only observable through the broker events.
func (c Config) PersistenceEnabled() bool {
    return c.DBHost != "" && c.DBUser != "" && c.DBName != ""
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
