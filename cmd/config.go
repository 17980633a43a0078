package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"fieldops/internal/adapters/out/postgres"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"
)

// Config holds the service settings read from the environment.
//
// An empty DBHost runs the service on in-memory stores, an empty RedisAddr
// uses the in-process timer and empty KafkaBrokers disables Kafka.
type Config struct {
	HTTPPort   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	RedisAddr string

	KafkaBrokers               []string
	KafkaConsumerGroup         string
	KafkaOrderCreatedTopic     string
	KafkaAssignmentEventsTopic string

	AssignmentMaxAttempts      int
	AssignmentAcceptanceWindow time.Duration
	AssignmentRetryDelay       time.Duration
	AssignmentSweepSchedule    string

	LogLevel string
}

var defaults = map[string]any{
	"HTTP_PORT":                     "8080",
	"DB_PORT":                       "5432",
	"DB_SSLMODE":                    "disable",
	"KAFKA_CONSUMER_GROUP":          "fieldops",
	"KAFKA_ORDER_CREATED_TOPIC":     "orders.created",
	"KAFKA_ASSIGNMENT_EVENTS_TOPIC": "orders.assignment-events",
	"ASSIGNMENT_MAX_ATTEMPTS":       3,
	"ASSIGNMENT_ACCEPTANCE_WINDOW":  "2m",
	"ASSIGNMENT_RETRY_DELAY":        "5s",
	"ASSIGNMENT_SWEEP_SCHEDULE":     "*/5 * * * * *",
	"LOG_LEVEL":                     "info",
}

var sweepScheduleParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// LoadConfig loads envFile into the environment when it exists and reads
// the configuration from the environment. Variables already set win over
// the file.
func LoadConfig(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	config := Config{
		HTTPPort:                   v.GetString("HTTP_PORT"),
		DBHost:                     v.GetString("DB_HOST"),
		DBPort:                     v.GetString("DB_PORT"),
		DBUser:                     v.GetString("DB_USER"),
		DBPassword:                 v.GetString("DB_PASSWORD"),
		DBName:                     v.GetString("DB_NAME"),
		DBSslMode:                  v.GetString("DB_SSLMODE"),
		RedisAddr:                  v.GetString("REDIS_ADDR"),
		KafkaBrokers:               splitList(v.GetString("KAFKA_BROKERS")),
		KafkaConsumerGroup:         v.GetString("KAFKA_CONSUMER_GROUP"),
		KafkaOrderCreatedTopic:     v.GetString("KAFKA_ORDER_CREATED_TOPIC"),
		KafkaAssignmentEventsTopic: v.GetString("KAFKA_ASSIGNMENT_EVENTS_TOPIC"),
		AssignmentMaxAttempts:      v.GetInt("ASSIGNMENT_MAX_ATTEMPTS"),
		AssignmentAcceptanceWindow: v.GetDuration("ASSIGNMENT_ACCEPTANCE_WINDOW"),
		AssignmentRetryDelay:       v.GetDuration("ASSIGNMENT_RETRY_DELAY"),
		AssignmentSweepSchedule:    v.GetString("ASSIGNMENT_SWEEP_SCHEDULE"),
		LogLevel:                   v.GetString("LOG_LEVEL"),
	}

	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// Validate rejects settings the service cannot start with.
func (c Config) Validate() error {
	var errs []error
	if c.HTTPPort == "" {
		errs = append(errs, errors.New("HTTP_PORT is required"))
	}
	if c.AssignmentMaxAttempts < 1 {
		errs = append(errs, fmt.Errorf("ASSIGNMENT_MAX_ATTEMPTS must be at least 1, got %d", c.AssignmentMaxAttempts))
	}
	if c.AssignmentAcceptanceWindow <= 0 {
		errs = append(errs, errors.New("ASSIGNMENT_ACCEPTANCE_WINDOW must be a positive duration"))
	}
	if c.AssignmentRetryDelay <= 0 {
		errs = append(errs, errors.New("ASSIGNMENT_RETRY_DELAY must be a positive duration"))
	}
	if _, err := sweepScheduleParser.Parse(c.AssignmentSweepSchedule); err != nil {
		errs = append(errs, fmt.Errorf("ASSIGNMENT_SWEEP_SCHEDULE is invalid: %w", err))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL is invalid: %w", err))
	}
	if c.KafkaEnabled() && (c.KafkaConsumerGroup == "" || c.KafkaOrderCreatedTopic == "" || c.KafkaAssignmentEventsTopic == "") {
		errs = append(errs, errors.New("KAFKA_CONSUMER_GROUP and both Kafka topics are required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// PostgresEnabled reports whether orders and agents live in PostgreSQL.
func (c Config) PostgresEnabled() bool {
	return c.DBHost != ""
}

// RedisEnabled reports whether acceptance timers live in Redis.
func (c Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

// KafkaEnabled reports whether the Kafka consumer and publisher run.
func (c Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// Postgres returns the database connection settings.
func (c Config) Postgres() postgres.ConnectionSettings {
	return postgres.ConnectionSettings{
		Host:     c.DBHost,
		Port:     c.DBPort,
		User:     c.DBUser,
		Password: c.DBPassword,
		DBName:   c.DBName,
		SSLMode:  c.DBSslMode,
	}
}

// SlogLevel parses LogLevel.
func (c Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.LogLevel))
	return level, err
}

func splitList(s string) []string {
	var items []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
