// Package config provides application configuration with multi-source priority.
//
// Sources (highest to lowest priority):
//  1. Environment variables (LECTERN_* and DATABASE_URL)
//  2. Config file (~/.lectern/config.yaml or ./config.yaml)
//  3. Default values
//
// Categories:
//   - AI: model selection per judgment role, embedder model
//   - Retrieval: top-K, per-call timeouts
//   - Loop: rewrite and regeneration budgets
//   - Storage: PostgreSQL connection
//   - Server: listen address, CORS origins, rate limiting
//
// Validation is fail-fast: Load returns an error wrapping one of the
// sentinel errors below before any component is constructed.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidModelName indicates a judgment model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidEmbedderModel indicates the embedder model is invalid.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidTopK indicates the retrieval top-K is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top-k")

	// ErrInvalidBudget indicates a loop budget is out of range.
	ErrInvalidBudget = errors.New("invalid loop budget")

	// ErrInvalidTimeout indicates a stage timeout is non-positive.
	ErrInvalidTimeout = errors.New("invalid timeout")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unsupported PostgreSQL SSL mode.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// DefaultEmbedderModel is the default Gemini embedder.
// gemini-embedding-001 supports truncation to 768 dimensions, which matches
// the passages table schema; see corpus.VectorDimension.
const DefaultEmbedderModel = "gemini-embedding-001"

// Loop budget bounds. The ceilings exist so a misconfigured deployment can
// never run an unbounded retrieve/rewrite or generate/audit cycle.
const (
	MaxAllowedRewrites      = 10
	MaxAllowedRegenerations = 10
)

// Config stores application configuration.
type Config struct {
	// Judgment model configuration. ModelName is the default for every
	// role; the per-role fields override it so relevance grading and
	// answer auditing can run on deliberately distinct configurations.
	ModelName      string `mapstructure:"model_name" json:"model_name"`
	GraderModel    string `mapstructure:"grader_model" json:"grader_model"`
	RewriterModel  string `mapstructure:"rewriter_model" json:"rewriter_model"`
	GeneratorModel string `mapstructure:"generator_model" json:"generator_model"`
	AuditorModel   string `mapstructure:"auditor_model" json:"auditor_model"`

	// Embedder configuration.
	EmbedderModel string `mapstructure:"embedder_model" json:"embedder_model"`

	// Retrieval configuration.
	RetrievalTopK   int           `mapstructure:"retrieval_top_k" json:"retrieval_top_k"`
	RetrieveTimeout time.Duration `mapstructure:"retrieve_timeout" json:"retrieve_timeout"`
	JudgmentTimeout time.Duration `mapstructure:"judgment_timeout" json:"judgment_timeout"`
	GenerateTimeout time.Duration `mapstructure:"generate_timeout" json:"generate_timeout"`

	// Loop budgets: how many query rewrites and answer regenerations a
	// single turn may spend before terminating with a caveat.
	MaxRewrites      int `mapstructure:"max_rewrites" json:"max_rewrites"`
	MaxRegenerations int `mapstructure:"max_regenerations" json:"max_regenerations"`

	// Storage configuration.
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"-"` // SENSITIVE: never serialized
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration.
	ListenAddr  string   `mapstructure:"listen_addr" json:"listen_addr"`
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Logging configuration.
	LogLevel string `mapstructure:"log_level" json:"log_level"`
	LogJSON  bool   `mapstructure:"log_json" json:"log_json"`
}

// Load loads configuration with priority: env > config file > defaults.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".lectern")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)

	v.SetEnvPrefix("LECTERN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings.
	if err := cfg.parseDatabaseURL(os.Getenv("DATABASE_URL")); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	cfg.applyRoleDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model_name", "gemini-2.5-flash")
	v.SetDefault("embedder_model", DefaultEmbedderModel)

	v.SetDefault("retrieval_top_k", 4)
	v.SetDefault("retrieve_timeout", 15*time.Second)
	v.SetDefault("judgment_timeout", 30*time.Second)
	v.SetDefault("generate_timeout", 60*time.Second)

	v.SetDefault("max_rewrites", 3)
	v.SetDefault("max_regenerations", 2)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "lectern")
	v.SetDefault("postgres_password", "lectern_dev_password")
	v.SetDefault("postgres_db_name", "lectern")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("rate_burst", 60)

	v.SetDefault("log_level", "info")
	v.SetDefault("log_json", false)
}

// applyRoleDefaults fills empty per-role model names from ModelName.
func (c *Config) applyRoleDefaults() {
	if c.GraderModel == "" {
		c.GraderModel = c.ModelName
	}
	if c.RewriterModel == "" {
		c.RewriterModel = c.ModelName
	}
	if c.GeneratorModel == "" {
		c.GeneratorModel = c.ModelName
	}
	if c.AuditorModel == "" {
		c.AuditorModel = c.ModelName
	}
}

// parseDatabaseURL overrides PostgreSQL settings from a postgres:// URL.
// An empty input leaves the configuration untouched.
func (c *Config) parseDatabaseURL(raw string) error {
	if raw == "" {
		return nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}

	if host := u.Hostname(); host != "" {
		c.PostgresHost = host
	}
	if port := u.Port(); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("malformed port %q: %w", port, err)
		}
		c.PostgresPort = p
	}
	if user := u.User.Username(); user != "" {
		c.PostgresUser = user
	}
	if pw, ok := u.User.Password(); ok {
		c.PostgresPassword = pw
	}
	if db := strings.TrimPrefix(u.Path, "/"); db != "" {
		c.PostgresDBName = db
	}
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.PostgresSSLMode = mode
	}

	return nil
}

// PostgresConnString returns the pgx connection string.
func (c *Config) PostgresConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(c.PostgresUser),
		url.QueryEscape(c.PostgresPassword),
		c.PostgresHost,
		c.PostgresPort,
		c.PostgresDBName,
		c.PostgresSSLMode,
	)
}

// SlogLevel maps the configured log level string to a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
