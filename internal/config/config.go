package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	HTTP     ServerConfig   `mapstructure:"http"`
	GRPC     ServerConfig   `mapstructure:"grpc"`
	Storage  string         `mapstructure:"storage"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MySQLConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	PoolSize int    `mapstructure:"pool_size"`
}

type CheckoutConfig struct {
	TaxRate        string        `mapstructure:"tax_rate"`
	Currency       string        `mapstructure:"currency"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
	AbandonAfter   time.Duration `mapstructure:"abandon_after"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
}

// PaymentConfig drives the simulated payment provider. Charges above
// DeclineAbove are declined; empty approves everything.
type PaymentConfig struct {
	DeclineAbove string `mapstructure:"decline_above"`
}

type SeedConfig struct {
	File string `mapstructure:"file"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TracingConfig points the OTLP/HTTP exporter at a collector. An empty
// endpoint disables export.
type TracingConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

const (
	StorageMySQL  = "mysql"
	StorageMemory = "memory"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("grpc.addr", ":50051")
	v.SetDefault("storage", StorageMySQL)
	v.SetDefault("mysql.dsn", "root:root@tcp(localhost:3306)/storefront?parseTime=true")
	v.SetDefault("mysql.max_open_conns", 50)
	v.SetDefault("mysql.max_idle_conns", 25)
	v.SetDefault("mysql.conn_max_lifetime", 5*time.Minute)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.pool_size", 100)
	v.SetDefault("checkout.tax_rate", "0.10")
	v.SetDefault("checkout.currency", "USD")
	v.SetDefault("checkout.idempotency_ttl", 24*time.Hour)
	v.SetDefault("checkout.abandon_after", 30*time.Minute)
	v.SetDefault("checkout.sweep_interval", time.Minute)
	v.SetDefault("payment.decline_above", "")
	v.SetDefault("seed.file", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.service_name", "storefront")
}

// LoadConfig reads config.yaml (optional, or the explicit path) and
// STOREFRONT_* environment variables on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./deploy/")
		v.AddConfigPath("./")
		v.AddConfigPath("/etc/storefront/")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Storage != StorageMySQL && cfg.Storage != StorageMemory {
		return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
	}

	return &cfg, nil
}
