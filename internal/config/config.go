package config

import (
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	HTTPPort  string `envconfig:"APP_PORT" default:"8080"`
	DB        DBConfig
	Source    SourceConfig
	Scheduler SchedulerConfig
	Kafka     KafkaConfig
}

type DBConfig struct {
	Host     string `envconfig:"POSTGRES_HOST"     required:"true"`
	Port     string `envconfig:"POSTGRES_PORT"     required:"true"`
	User     string `envconfig:"POSTGRES_USER"     required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DB"       required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSLMODE"  default:"disable"`
}

type SourceConfig struct {
	URL           string        `envconfig:"RATE_SOURCE_URL" default:"https://api.frankfurter.app"`
	Base          string        `envconfig:"RATE_SOURCE_BASE" default:"USD"`
	Timeout       time.Duration `envconfig:"RATE_SOURCE_TIMEOUT" default:"10s"`
	RetryAttempts int           `envconfig:"RATE_SOURCE_RETRY_ATTEMPTS" default:"2"`
	RetryDelay    time.Duration `envconfig:"RATE_SOURCE_RETRY_DELAY" default:"2s"`
}

type SchedulerConfig struct {
	Enabled  bool          `envconfig:"SCHEDULER_ENABLED" default:"true"`
	Interval time.Duration `envconfig:"SCHEDULER_INTERVAL" default:"24h"`
}

type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	Topic   string   `envconfig:"KAFKA_TOPIC" default:"rate-ingest-runs"`
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
}

func NewConfig() (*Config, error) {
	envFile := "config.env"

	if err := godotenv.Load(envFile); err != nil {
		log.Printf("warning: could not load %s, using system environment variables only: %v", envFile, err)
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return &cfg, nil
}

func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

func (d *DBConfig) MigrationURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}
