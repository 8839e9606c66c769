package models

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v2"
)

type Config struct {
	ServerAddr    string           `yaml:"server_addr"`
	LogLevel      string           `yaml:"log_level"`
	DefaultBucket string           `yaml:"default_bucket"`
	Auth          AuthConfig       `yaml:"auth"`
	BlobStore     BlobStoreConfig  `yaml:"blob_store"`
	Metadata      MetadataConfig   `yaml:"metadata"`
	Kafka         KafkaConfig      `yaml:"kafka"`
	Processing    ProcessingConfig `yaml:"processing"`
}

type AuthConfig struct {
	// JWTSecret enables HS256 verification of bearer tokens. When empty any
	// non-empty bearer token is accepted.
	JWTSecret string `yaml:"jwt_secret"`
}

type BlobStoreConfig struct {
	Driver    string   `yaml:"driver"` // s3, local
	LocalRoot string   `yaml:"local_root"`
	S3        S3Config `yaml:"s3"`
}

type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
	Region    string `yaml:"region"`
}

type MetadataConfig struct {
	Driver      string `yaml:"driver"` // postgres, sqlite
	DatabaseURL string `yaml:"database_url"`
	SQLitePath  string `yaml:"sqlite_path"`
}

type KafkaConfig struct {
	Enabled     bool     `yaml:"enabled"`
	Brokers     []string `yaml:"brokers"`
	Topic       string   `yaml:"topic"`
	GroupID     string   `yaml:"group_id"`
	ResultTopic string   `yaml:"result_topic"`
}

type ProcessingConfig struct {
	// Enabled false acknowledges requests without producing artifacts.
	Enabled     *bool           `yaml:"enabled"`
	Concurrency int             `yaml:"concurrency"`
	Variants    []VariantConfig `yaml:"variants"`
}

// IsEnabled reports whether the pipeline renders anything. Unset means enabled.
func (p ProcessingConfig) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

const (
	BlobDriverS3           = "s3"
	BlobDriverLocal        = "local"
	MetadataDriverPostgres = "postgres"
	MetadataDriverSQLite   = "sqlite"
)

var variantNamePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// DefaultVariants is the reference variant table.
func DefaultVariants() []VariantConfig {
	return []VariantConfig{
		{Name: "thumb", Width: 200, Height: intPtr(200), Quality: 70, Fit: FitCover},
		{Name: "medium", Width: 800, Quality: 80, Fit: FitInside},
		{Name: "large", Width: 1600, Quality: 85, Fit: FitInside},
	}
}

func LoadConfig(path string) (*Config, error) {
	const op = "models.LoadConfig"

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cfg, nil
}

// ParseConfig decodes YAML, applies environment overrides and defaults, then
// validates the result.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	readEnv := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	readEnv("PHOTOPIPE_SERVER_ADDR", &c.ServerAddr)
	readEnv("DATABASE_URL", &c.Metadata.DatabaseURL)
	readEnv("JWT_SECRET", &c.Auth.JWTSecret)
	readEnv("S3_ENDPOINT", &c.BlobStore.S3.Endpoint)
	readEnv("S3_ACCESS_KEY", &c.BlobStore.S3.AccessKey)
	readEnv("S3_SECRET_KEY", &c.BlobStore.S3.SecretKey)

	if v, ok := os.LookupEnv("KAFKA_BROKERS"); ok && v != "" {
		brokers := strings.Split(v, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		c.Kafka.Brokers = brokers
	}
}

func (c *Config) applyDefaults() {
	if c.ServerAddr == "" {
		c.ServerAddr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.BlobStore.Driver == "" {
		c.BlobStore.Driver = BlobDriverS3
	}
	if c.BlobStore.LocalRoot == "" {
		c.BlobStore.LocalRoot = "./data"
	}
	if c.Metadata.Driver == "" {
		c.Metadata.Driver = MetadataDriverPostgres
	}
	if c.Metadata.SQLitePath == "" {
		c.Metadata.SQLitePath = "photopipe.db"
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "photo-uploaded"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "image-processor-group"
	}
	if len(c.Processing.Variants) == 0 {
		c.Processing.Variants = DefaultVariants()
	}
	if c.Processing.Concurrency <= 0 {
		c.Processing.Concurrency = len(c.Processing.Variants)
	}
}

func (c *Config) Validate() error {
	const op = "models.Config.Validate"

	switch c.BlobStore.Driver {
	case BlobDriverS3, BlobDriverLocal:
	default:
		return fmt.Errorf("%s: unknown blob_store.driver %q", op, c.BlobStore.Driver)
	}
	switch c.Metadata.Driver {
	case MetadataDriverPostgres, MetadataDriverSQLite:
	default:
		return fmt.Errorf("%s: unknown metadata.driver %q", op, c.Metadata.Driver)
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("%s: kafka.enabled requires kafka.brokers", op)
	}
	if err := ValidateVariants(c.Processing.Variants); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateVariants checks the invariants of a variant table: at least one
// entry, unique path-safe names, sane dimensions and quality.
func ValidateVariants(variants []VariantConfig) error {
	if len(variants) == 0 {
		return fmt.Errorf("%w: at least one variant is required", ErrValidation)
	}
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if !variantNamePattern.MatchString(v.Name) {
			return fmt.Errorf("%w: invalid variant name %q", ErrValidation, v.Name)
		}
		if _, dup := seen[v.Name]; dup {
			return fmt.Errorf("%w: duplicate variant name %q", ErrValidation, v.Name)
		}
		seen[v.Name] = struct{}{}

		if v.Width <= 0 {
			return fmt.Errorf("%w: variant %q: width must be positive", ErrValidation, v.Name)
		}
		if v.Height != nil && *v.Height <= 0 {
			return fmt.Errorf("%w: variant %q: height must be positive", ErrValidation, v.Name)
		}
		if v.Quality < 0 || v.Quality > 100 {
			return fmt.Errorf("%w: variant %q: quality must be within 0-100", ErrValidation, v.Name)
		}
		switch v.Fit {
		case FitInside:
		case FitCover:
			if v.Height == nil {
				return fmt.Errorf("%w: variant %q: cover requires a height", ErrValidation, v.Name)
			}
		default:
			return fmt.Errorf("%w: variant %q: unknown fit %q", ErrValidation, v.Name, v.Fit)
		}
	}
	return nil
}

func intPtr(v int) *int { return &v }
