package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the backtest service
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Import   ImportConfig
	Backtest BacktestConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	Mode         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DatabaseConfig holds Postgres connection configuration
type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// DSN renders the connection string for the pgx stdlib driver.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// ImportConfig bounds the historical-data import pipeline.
type ImportConfig struct {
	ConcurrentChunks int
	RetryCount       int
	RetryDelay       time.Duration
	FetchTimeout     time.Duration
}

// BacktestConfig carries defaults applied when a backtest request leaves
// a simulation parameter unset.
type BacktestConfig struct {
	DefaultInitialCapital float64
	DefaultFeeRate        float64
	DefaultSlippage       float64
	MaxCandles            int
}

// KafkaConfig configures the optional Kafka bridge for bus events.
type KafkaConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables
func LoadConfig(path string) (*Config, error) {
	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Environment variables override
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8085")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")

	// Database defaults
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "backtest")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.maxOpenConns", 25)
	v.SetDefault("database.maxIdleConns", 5)

	// Import defaults
	v.SetDefault("import.concurrentChunks", 2)
	v.SetDefault("import.retryCount", 3)
	v.SetDefault("import.retryDelay", "2s")
	v.SetDefault("import.fetchTimeout", "30s")

	// Backtest defaults
	v.SetDefault("backtest.defaultInitialCapital", 100000)
	v.SetDefault("backtest.defaultFeeRate", 0.0)
	v.SetDefault("backtest.defaultSlippage", 0.0)
	v.SetDefault("backtest.maxCandles", 500000)

	// Kafka defaults
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"localhost:9092"})
	v.SetDefault("kafka.topic", "backtest-events")
	v.SetDefault("kafka.clientID", "backtest-service")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
