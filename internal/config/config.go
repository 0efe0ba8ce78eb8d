package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"shuttle-tracker/internal/shuttle"
)

const (
	SessionStoreFile     = "file"
	SessionStoreRedis    = "redis"
	SessionStorePostgres = "postgres"
	SessionStoreMemory   = "memory"
)

type Config struct {
	HTTPAddr    string
	MetricsAddr string
	CORSOrigins []string

	RefreshInterval time.Duration
	NotifyStagger   time.Duration
	NotifyLifetime  time.Duration
	LoginDelay      time.Duration

	SessionStore  string
	SessionDir    string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	DatabaseURL   string

	NATSURL         string
	LogNATSSubjects bool

	MapsAPIKey string
	MapCenter  shuttle.Location
	MapZoom    int

	Location *time.Location

	LogLevel   string
	LogFile    string
	LogConsole bool
}

func Load() (*Config, error) {
	// Load .env into environment (ignore if missing)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	cfg.HTTPAddr = getenvDefault("HTTP_ADDR", ":8080")
	// Empty disables the metrics server.
	cfg.MetricsAddr = os.Getenv("METRICS_ADDR")
	cfg.CORSOrigins = splitList(getenvDefault("CORS_ORIGINS", "*"))

	if cfg.RefreshInterval, err = durationMS("REFRESH_INTERVAL_MS", 5000, false); err != nil {
		return nil, err
	}
	if cfg.NotifyStagger, err = durationMS("NOTIFY_STAGGER_MS", 2000, false); err != nil {
		return nil, err
	}
	if cfg.NotifyLifetime, err = durationMS("NOTIFY_DISMISS_MS", 5000, false); err != nil {
		return nil, err
	}
	if cfg.LoginDelay, err = durationMS("LOGIN_DELAY_MS", 1000, true); err != nil {
		return nil, err
	}

	cfg.SessionStore = strings.ToLower(getenvDefault("SESSION_STORE", SessionStoreFile))
	cfg.SessionDir = getenvDefault("SESSION_DIR", ".shuttle-session")
	cfg.RedisAddr = getenvDefault("REDIS_ADDR", "127.0.0.1:6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid REDIS_DB: %q", v)
		}
		cfg.RedisDB = n
	}

	switch cfg.SessionStore {
	case SessionStoreFile, SessionStoreRedis, SessionStoreMemory:
	case SessionStorePostgres:
		cfg.DatabaseURL, err = databaseURL()
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invalid SESSION_STORE: %q", cfg.SessionStore)
	}

	// Empty disables position publishing.
	cfg.NATSURL = os.Getenv("NATS_URL")
	cfg.LogNATSSubjects = parseBool(os.Getenv("LOG_NATS_SUBJECTS"))

	cfg.MapsAPIKey = strings.TrimSpace(os.Getenv("MAPS_API_KEY"))
	cfg.MapCenter = shuttle.Location{Lat: 19.431083, Lng: 78.126139}
	if v := os.Getenv("MAP_CENTER"); v != "" {
		loc, err := ParseLocation(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAP_CENTER: %w", err)
		}
		cfg.MapCenter = loc
	}
	cfg.MapZoom = 13
	if v := os.Getenv("MAP_ZOOM"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil || z < 1 || z > 22 {
			return nil, fmt.Errorf("invalid MAP_ZOOM: %q", v)
		}
		cfg.MapZoom = z
	}

	tzName := getenvDefault("TZ", "")
	if tzName == "" {
		cfg.Location = time.Local
	} else {
		loc, err := time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TZ: %v", err)
		}
		cfg.Location = loc
	}

	cfg.LogLevel = getenvDefault("LOG_LEVEL", "info")
	cfg.LogFile = os.Getenv("LOG_FILE")
	cfg.LogConsole = true
	if v := os.Getenv("LOG_CONSOLE"); v != "" {
		cfg.LogConsole = parseBool(v)
	}

	return cfg, nil
}

// ParseLocation parses "lat,lng".
func ParseLocation(s string) (shuttle.Location, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return shuttle.Location{}, fmt.Errorf("want lat,lng, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil || lat < -90 || lat > 90 {
		return shuttle.Location{}, fmt.Errorf("bad latitude %q", parts[0])
	}
	lng, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil || lng < -180 || lng > 180 {
		return shuttle.Location{}, fmt.Errorf("bad longitude %q", parts[1])
	}
	return shuttle.Location{Lat: lat, Lng: lng}, nil
}

func databaseURL() (string, error) {
	// prefer DATABASE_URL / PG_DSN, else build from PG* vars
	if dsn := firstNonEmpty(os.Getenv("DATABASE_URL"), os.Getenv("PG_DSN")); dsn != "" {
		return dsn, nil
	}
	db := os.Getenv("PGDATABASE")
	if db == "" {
		return "", errors.New("PGDATABASE or DATABASE_URL must be set when SESSION_STORE=postgres")
	}
	host := getenvDefault("PGHOST", "127.0.0.1")
	port := getenvDefault("PGPORT", "5432")
	user := getenvDefault("PGUSER", "postgres")
	pass := os.Getenv("PGPASSWORD")
	sslmode := getenvDefault("PGSSLMODE", "disable")
	if pass != "" {
		return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s", urlEscape(user), urlEscape(pass), host, port, db, sslmode), nil
	}
	return fmt.Sprintf("postgres://%s@%s:%s/%s?sslmode=%s", urlEscape(user), host, port, db, sslmode), nil
}

func durationMS(key string, def int, allowZero bool) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return time.Duration(def) * time.Millisecond, nil
	}
	ms, err := strconv.Atoi(v)
	if err != nil || ms < 0 || (ms == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return time.Duration(ms) * time.Millisecond, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	}
	return false
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func urlEscape(s string) string {
	// Minimal escape for DSN user/pass with special chars
	r := strings.NewReplacer("@", "%40", ":", "%3A", "/", "%2F", "?", "%3F", "#", "%23")
	return r.Replace(s)
}
