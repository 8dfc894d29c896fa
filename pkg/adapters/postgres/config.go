package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/geoprompt/pkg/core"
)

// Connection defaults.
const (
	DefaultHost    = "localhost"
	DefaultPort    = 5432
	DefaultSSLMode = "disable"
)

// ConnConfig holds the parameters of one PostgreSQL connection.
type ConnConfig struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	Database string `koanf:"name" yaml:"name"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password,omitempty"`
	SSLMode  string `koanf:"sslmode" yaml:"sslmode,omitempty"`
}

// WithDefaults returns a copy with host, port and sslmode filled in.
func (c ConnConfig) WithDefaults() ConnConfig {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	return c
}

// Validate checks the fields that have no default.
func (c ConnConfig) Validate() error {
	var missing []string
	if strings.TrimSpace(c.Database) == "" {
		missing = append(missing, "database name")
	}
	if strings.TrimSpace(c.User) == "" {
		missing = append(missing, "user")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required", strings.Join(missing, " and ")+pluralIs(len(missing)))
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

func pluralIs(n int) string {
	if n > 1 {
		return " are"
	}
	return " is"
}

// ConfigFromLocator reads connection parameters out of a key=value locator
// such as "dbname='gis' host=localhost port=5432 user='me' password='x'".
func ConfigFromLocator(locator string) (ConnConfig, error) {
	kv := core.ParseKeyValueLocator(locator)

	cfg := ConnConfig{
		Host:     kv["host"],
		Database: kv["dbname"],
		User:     kv["user"],
		Password: kv["password"],
		SSLMode:  kv["sslmode"],
	}
	if p := kv["port"]; p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return ConnConfig{}, fmt.Errorf("invalid port %q in locator: %w", p, err)
		}
		cfg.Port = port
	}
	if cfg.Database == "" {
		return ConnConfig{}, fmt.Errorf("locator has no dbname")
	}
	return cfg.WithDefaults(), nil
}

// Locator renders the parameters as a key=value locator that ConfigFromLocator reads back.
func (c ConnConfig) Locator() string {
	return buildPostgresDSN(c)
}

// buildPostgresDSN constructs a PostgreSQL key=value connection string.
func buildPostgresDSN(cfg ConnConfig) string {
	cfg = cfg.WithDefaults()

	dsn := fmt.Sprintf("host=%s port=%d dbname=%s sslmode=%s",
		quoteDSNValue(cfg.Host), cfg.Port, quoteDSNValue(cfg.Database), quoteDSNValue(cfg.SSLMode))

	if cfg.User != "" {
		dsn += fmt.Sprintf(" user=%s", quoteDSNValue(cfg.User))
	}
	if cfg.Password != "" {
		dsn += fmt.Sprintf(" password=%s", quoteDSNValue(cfg.Password))
	}

	return dsn
}

// quoteDSNValue single-quotes values that contain spaces, quotes or backslashes.
func quoteDSNValue(v string) string {
	if v != "" && !strings.ContainsAny(v, ` '\`) {
		return v
	}
	v = strings.ReplaceAll(v, `\`, `\\`)
	v = strings.ReplaceAll(v, `'`, `\'`)
	return "'" + v + "'"
}

// dsnForLocator returns a DSN for a source locator. URL-style locators are
// passed through untouched since pgx understands them natively.
func dsnForLocator(locator string) (string, error) {
	trimmed := strings.TrimSpace(locator)
	if strings.HasPrefix(trimmed, "postgres://") || strings.HasPrefix(trimmed, "postgresql://") {
		return trimmed, nil
	}
	cfg, err := ConfigFromLocator(trimmed)
	if err != nil {
		return "", err
	}
	return buildPostgresDSN(cfg), nil
}
