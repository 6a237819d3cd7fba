/*
Package config reads configuration of the splitter ledger application.

Configuration is a YAML file. Before reading it, variables from '.env' file
in the working directory (if any) are loaded into the process environment.
Environment variables with SPLITTER_ prefix override file values:

	SPLITTER_LOG_LEVEL               logger.level
	SPLITTER_STORAGE_TYPE            storage.type
	SPLITTER_STORAGE_PATH            storage.path
	SPLITTER_STORAGE_DSN             storage.dsn
	SPLITTER_LEDGER_ADDRESS          ledger.address
	SPLITTER_LEDGER_DECIMALS         ledger.decimals
	SPLITTER_LEDGER_ENFORCE_ASSET    ledger.enforce_approved_asset
	SPLITTER_RPC_ENDPOINT            rpc.endpoint
	SPLITTER_KAFKA_BROKERS           kafka.brokers (comma-separated)
	SPLITTER_KAFKA_TOPIC             kafka.topic
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nspcc-dev/splitter-contract/store"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	Logger  Logger       `yaml:"logger"`
	Storage store.Config `yaml:"storage"`
	Ledger  Ledger       `yaml:"ledger"`
	RPC     RPC          `yaml:"rpc"`
	Kafka   Kafka        `yaml:"kafka"`
}

// Logger configures the application log.
type Logger struct {
	Level string `yaml:"level"`
}

// Ledger configures the splitter ledger.
type Ledger struct {
	// Address of the ledger, deposits are transferred to it. Required.
	Address string `yaml:"address"`
	// Reject deposits and withdrawals in assets other than the approved one.
	// Defaults to true.
	EnforceApprovedAsset bool `yaml:"enforce_approved_asset"`
	// Assets the transfer primitive is allowed to move. Empty list allows any.
	Assets []string `yaml:"assets"`
	// Precision of the asset used to parse and format amounts when RPC is not
	// configured.
	Decimals int `yaml:"decimals"`
}

// RPC configures access to the Neo network. Optional.
type RPC struct {
	Endpoint string        `yaml:"endpoint"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Kafka configures notification publishing. Optional.
type Kafka struct {
	Brokers []string `yaml:"brokers"`
	Topic   string   `yaml:"topic"`
}

const defaultRPCTimeout = 15 * time.Second

// Load reads configuration from the file at path. Empty path means no file,
// only defaults and environment are used.
func Load(path string) (*Config, error) {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env file: %w", err)
	}

	cfg := &Config{
		Logger:  Logger{Level: "info"},
		Storage: store.Config{Type: store.TypeInMemory},
		Ledger:  Ledger{EnforceApprovedAsset: true},
		RPC:     RPC{Timeout: defaultRPCTimeout},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		err = yaml.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("decode YAML config: %w", err)
		}
	}

	err = cfg.applyEnv()
	if err != nil {
		return nil, err
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

const envPrefix = "SPLITTER_"

func (c *Config) applyEnv() error {
	setString := func(name string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + name); ok {
			*dst = v
		}
	}

	setString("LOG_LEVEL", &c.Logger.Level)
	setString("STORAGE_TYPE", &c.Storage.Type)
	setString("STORAGE_PATH", &c.Storage.Path)
	setString("STORAGE_DSN", &c.Storage.DSN)
	setString("LEDGER_ADDRESS", &c.Ledger.Address)
	setString("RPC_ENDPOINT", &c.RPC.Endpoint)
	setString("KAFKA_TOPIC", &c.Kafka.Topic)

	if v, ok := os.LookupEnv(envPrefix + "LEDGER_DECIMALS"); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("decode %sLEDGER_DECIMALS: %w", envPrefix, err)
		}
		c.Ledger.Decimals = d
	}

	if v, ok := os.LookupEnv(envPrefix + "LEDGER_ENFORCE_ASSET"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("decode %sLEDGER_ENFORCE_ASSET: %w", envPrefix, err)
		}
		c.Ledger.EnforceApprovedAsset = b
	}

	if v, ok := os.LookupEnv(envPrefix + "KAFKA_BROKERS"); ok {
		c.Kafka.Brokers = nil
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" {
				c.Kafka.Brokers = append(c.Kafka.Brokers, b)
			}
		}
	}

	return nil
}

func (c *Config) validate() error {
	if _, err := c.Logger.level(); err != nil {
		return err
	}

	if c.Ledger.Decimals < 0 {
		return fmt.Errorf("negative ledger decimals %d", c.Ledger.Decimals)
	}

	if c.RPC.Timeout <= 0 {
		return fmt.Errorf("non-positive RPC timeout %s", c.RPC.Timeout)
	}

	return nil
}

func (l Logger) level() (zapcore.Level, error) {
	var lvl zapcore.Level

	err := lvl.UnmarshalText([]byte(l.Level))
	if err != nil {
		return lvl, fmt.Errorf("logger level: %w", err)
	}

	return lvl, nil
}

// NewLogger builds production zap.Logger of the configured level.
func (l Logger) NewLogger() (*zap.Logger, error) {
	lvl, err := l.level()
	if err != nil {
		return nil, err
	}

	c := zap.NewProductionConfig()
	c.Level = zap.NewAtomicLevelAt(lvl)
	c.Encoding = "console"
	c.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return c.Build()
}
