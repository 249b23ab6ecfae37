package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Index   IndexConfig   `yaml:"index"`
	Source  SourceConfig  `yaml:"source"`
	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`     // HTTP listen address (e.g. :8080)
	TCPAddr         string        `yaml:"tcp_addr"` // binary protocol listen address (e.g. :9090)
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type IndexConfig struct {
	Backend        string  `yaml:"backend"` // bst, btree or rbtree
	BTreeDegree    int     `yaml:"btree_degree"`
	BloomSize      uint    `yaml:"bloom_size"`
	BloomFalseProb float64 `yaml:"bloom_false_prob"`
}

type SourceConfig struct {
	CSVPath         string `yaml:"csv_path"`
	DefaultKey      string `yaml:"default_key"`
	CurrencySymbol  string `yaml:"currency_symbol"`
	DuplicatePolicy string `yaml:"duplicate_policy"` // ignore or replace
}

type StorageConfig struct {
	Path string `yaml:"path"` // SQLite file, empty disables the bids table
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			TCPAddr:         ":9090",
			ShutdownTimeout: 10 * time.Second,
		},
		Index: IndexConfig{
			Backend:        "bst",
			BTreeDegree:    32,
			BloomSize:      100000,
			BloomFalseProb: 0.01,
		},
		Source: SourceConfig{
			CSVPath:         "eBid_Monthly_Sales_Dec_2016.csv",
			DefaultKey:      "98109",
			CurrencySymbol:  "$",
			DuplicatePolicy: "ignore",
		},
		Storage: StorageConfig{
			Path: "bid_data/bids.db",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads configPath, or the first of configs/bidindex.yaml and
// bidindex.yaml when configPath is empty, on top of the defaults. BIDINDEX_*
// environment variables override file values. The returned config is
// validated.
func Load(configPath string) (*Config, error) {
	cfg := Default()

	if configPath == "" {
		for _, p := range []string{"configs/bidindex.yaml", "bidindex.yaml"} {
			if _, err := os.Stat(p); err == nil {
				configPath = p
				break
			}
		}
	}

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", configPath, err)
		}
	}

	applyDefaults(cfg)
	if err := applyEnv(cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.Index.Backend == "" {
		cfg.Index.Backend = def.Index.Backend
	}
	if cfg.Index.BTreeDegree <= 0 {
		cfg.Index.BTreeDegree = def.Index.BTreeDegree
	}
	if cfg.Index.BloomSize == 0 {
		cfg.Index.BloomSize = def.Index.BloomSize
	}
	if cfg.Index.BloomFalseProb <= 0 || cfg.Index.BloomFalseProb >= 1 {
		cfg.Index.BloomFalseProb = def.Index.BloomFalseProb
	}
	if cfg.Source.CurrencySymbol == "" {
		cfg.Source.CurrencySymbol = def.Source.CurrencySymbol
	}
	if cfg.Source.DuplicatePolicy == "" {
		cfg.Source.DuplicatePolicy = def.Source.DuplicatePolicy
	}
	if cfg.Server.ShutdownTimeout <= 0 {
		cfg.Server.ShutdownTimeout = def.Server.ShutdownTimeout
	}
}

// applyEnv overlays BIDINDEX_* variables. Unset or empty variables are ignored.
func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"BIDINDEX_ADDR":             &cfg.Server.Addr,
		"BIDINDEX_TCP_ADDR":         &cfg.Server.TCPAddr,
		"BIDINDEX_BACKEND":          &cfg.Index.Backend,
		"BIDINDEX_CSV_PATH":         &cfg.Source.CSVPath,
		"BIDINDEX_DEFAULT_KEY":      &cfg.Source.DefaultKey,
		"BIDINDEX_CURRENCY_SYMBOL":  &cfg.Source.CurrencySymbol,
		"BIDINDEX_DUPLICATE_POLICY": &cfg.Source.DuplicatePolicy,
		"BIDINDEX_STORAGE_PATH":     &cfg.Storage.Path,
		"BIDINDEX_LOG_LEVEL":        &cfg.Logging.Level,
		"BIDINDEX_LOG_FORMAT":       &cfg.Logging.Format,
	}
	for name, dst := range strs {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("BIDINDEX_BTREE_DEGREE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("BIDINDEX_BTREE_DEGREE: %w", err)
		}
		cfg.Index.BTreeDegree = n
	}
	if v := os.Getenv("BIDINDEX_SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("BIDINDEX_SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}
	return nil
}

// Validate checks all settings and reports every problem at once.
func (c *Config) Validate() error {
	var errs []string

	switch strings.ToLower(c.Index.Backend) {
	case "bst", "btree", "rbtree":
	default:
		errs = append(errs, fmt.Sprintf("index.backend %q must be one of bst, btree, rbtree", c.Index.Backend))
	}
	if c.Index.BTreeDegree < 2 {
		errs = append(errs, fmt.Sprintf("index.btree_degree (%d) must be at least 2", c.Index.BTreeDegree))
	}

	switch strings.ToLower(c.Source.DuplicatePolicy) {
	case "ignore", "replace":
	default:
		errs = append(errs, fmt.Sprintf("source.duplicate_policy %q must be ignore or replace", c.Source.DuplicatePolicy))
	}

	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("logging.level %q is not a known level", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be text or json", c.Logging.Format))
	}

	if c.Server.Addr == "" && c.Server.TCPAddr == "" {
		errs = append(errs, "at least one of server.addr and server.tcp_addr is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
