// Package config provides configuration management for the PesTrie query engine.
package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Index   IndexConfig   `mapstructure:"index"`
	Storage StorageConfig `mapstructure:"storage"`
	Query   QueryConfig   `mapstructure:"query"`
	Log     LogConfig     `mapstructure:"log"`
}

// IndexConfig describes where the PesTrie binary index lives and how it is encoded.
type IndexConfig struct {
	Path        string `mapstructure:"path"`
	Compression string `mapstructure:"compression"` // "", "auto", "gzip", "zstd", or "none"
	IndexType   string `mapstructure:"index_type"`  // "pt" (points-to) or "se" (side-effect)
}

// StorageConfig holds object storage configuration, used to fetch a remote index file.
type StorageConfig struct {
	Type      string `mapstructure:"type"` // cos or local
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	Domain    string `mapstructure:"domain"`     // e.g., "myqcloud.com"
	Scheme    string `mapstructure:"scheme"`     // e.g., "https" or "http"
	LocalPath string `mapstructure:"local_path"` // for local storage
}

// QueryConfig holds defaults for the query driver.
type QueryConfig struct {
	DefaultType  string `mapstructure:"default_type"` // e.g. "is_alias", "list_points_to"
	NQuery       int    `mapstructure:"n_query"`      // number of simulated queries
	PrintAnswers bool   `mapstructure:"print_answers"`
	DoProfile    bool   `mapstructure:"do_profile"`
	PlanFile     string `mapstructure:"plan_file"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"` // json or text
}

// Load reads configuration from the specified file path.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/pestrie")
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults")
		} else if os.IsNotExist(err) {
			fmt.Printf("Config file %s not found, using defaults\n", configPath)
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from raw bytes (useful for testing).
func LoadFromReader(configType string, content []byte) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType(configType)
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("index.compression", "auto")
	v.SetDefault("index.index_type", "pt")

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local_path", ".")

	v.SetDefault("query.default_type", "is_alias")
	v.SetDefault("query.n_query", 1000)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.output_path", "")
	v.SetDefault("log.format", "text")
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Index.IndexType != "" && c.Index.IndexType != "pt" && c.Index.IndexType != "se" {
		return fmt.Errorf("unsupported index type: %s", c.Index.IndexType)
	}

	switch c.Index.Compression {
	case "", "auto", "gzip", "zstd", "none":
	default:
		return fmt.Errorf("unsupported index compression: %s", c.Index.Compression)
	}

	// Storage config validation is delegated to the storage package.

	if c.Query.NQuery < 0 {
		return fmt.Errorf("n_query must not be negative")
	}

	return nil
}
