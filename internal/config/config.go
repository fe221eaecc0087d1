// Package config provides YAML configuration of the feeledger CLI.
package config

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/neo-go/pkg/core/storage/dbconfig"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the root of the configuration file.
type Config struct {
	Logger  Logger                   `yaml:"logger"`
	Storage dbconfig.DBConfiguration `yaml:"storage"`
	Kafka   Kafka                    `yaml:"kafka"`
}

// Logger configures the application logger.
type Logger struct {
	Level    string `yaml:"level"`
	Encoding string `yaml:"encoding"`
}

// Kafka configures notification publishing, it's disabled if no brokers
// are set.
type Kafka struct {
	Brokers []string `yaml:"brokers,omitempty"`
	Topic   string   `yaml:"topic"`
}

// Default returns configuration with on-disk BoltDB store at dbPath.
func Default(dbPath string) Config {
	var cfg Config
	cfg.Logger.Level = "info"
	cfg.Logger.Encoding = "console"
	cfg.Storage.Type = dbconfig.BoltDB
	cfg.Storage.BoltDBOptions.FilePath = dbPath
	cfg.Kafka.Topic = "feeledger"
	return cfg
}

// Load reads configuration from path. Unset logger and Kafka fields get
// default values.
func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default("")
	cfg.Storage = dbconfig.DBConfiguration{}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Write stores cfg at path.
func Write(path string, cfg Config) error {
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o600)
}

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	switch c.Storage.Type {
	case dbconfig.InMemoryDB:
	case dbconfig.BoltDB:
		if c.Storage.BoltDBOptions.FilePath == "" {
			return fmt.Errorf("missing %s file path", c.Storage.Type)
		}
	case dbconfig.LevelDB:
		if c.Storage.LevelDBOptions.DataDirectoryPath == "" {
			return fmt.Errorf("missing %s data directory", c.Storage.Type)
		}
	default:
		return fmt.Errorf("unknown storage type %q", c.Storage.Type)
	}

	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return fmt.Errorf("missing kafka topic")
	}

	if _, err := c.Logger.level(); err != nil {
		return err
	}

	return nil
}

// Build creates logger configured by l.
func (l Logger) Build() (*zap.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}

	cc := zap.NewProductionConfig()
	cc.Level = zap.NewAtomicLevelAt(lvl)
	cc.DisableStacktrace = true
	cc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if l.Encoding != "" {
		cc.Encoding = l.Encoding
	}

	return cc.Build()
}

func (l Logger) level() (zapcore.Level, error) {
	var lvl zapcore.Level
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return lvl, fmt.Errorf("logger level: %w", err)
	}
	return lvl, nil
}
