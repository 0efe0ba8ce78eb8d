package db

import (
	"fmt"
	"net/url"
	"strings"
)

// Redacted returns dsn with any password replaced, for log lines.
// Supports postgres:// and postgresql:// schemes and bare host/db strings.
func Redacted(dsn string) (string, error) {
	if dsn == "" {
		return "", fmt.Errorf("empty DSN")
	}
	if !strings.Contains(dsn, "://") {
		dsn = "postgres://" + dsn
	}
	u, err := url.Parse(dsn)
	if err != nil {
		return "", err
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.Redacted(), nil
}
