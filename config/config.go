package config

import "time"

type Config struct {
	AppName            string `env:"APP_NAME" env-default:"yarrow-worker"`
	LogLevel           string `env:"LOG_LEVEL" env-default:"info"`
	PrettyLogs         bool   `env:"PRETTY_LOGS" env-default:"false"`
	OpsPort            int    `env:"OPS_PORT" env-default:"3000"`
	StartupMaxAttempts int    `env:"STARTUP_MAX_ATTEMPTS" env-default:"5"`

	// Database driver
	DatabaseDriver string `env:"DB_DRIVER" env-default:"postgres"`
	// Database host
	DatabaseHost string `env:"DB_HOST" env-default:""`
	// Database port
	DatabasePort string `env:"DB_PORT" env-default:"5432"`
	// Database user
	DatabaseUserName string `env:"DB_USER_NAME" env-default:""`
	// Database user password
	DatabasePassword string `env:"DB_PASSWORD" env-default:""`
	// Database name
	DatabaseName string `env:"DB_NAME" env-default:"yarrow"`
	// Database SSL Mode
	DatabaseSSLMode string `env:"DB_SSL_MODE" env-default:"disable"`
	// Max Open Conns
	DatabaseMaxOpenConns int `env:"DB_MAX_OPEN_CONNS" env-default:"25"`
	// Max Idle Conns
	DatabaseMaxIdleConns int `env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	// Conn Max Lifetime
	DatabaseConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" env-default:"10s"`
	// Migration Folder Path
	DatabaseMigrationFolderPath string `env:"DB_MIGRATION_FOLDER_PATH" env-default:"db/pg"`
	// Database Migration Version
	DatabaseMigrationVersion int `env:"DB_MIGRATION_VERSION" env-default:"0"`
	// Database Migration Force
	DatabaseMigrationForce int `env:"DB_MIGRATION_FORCE" env-default:"0"`
	// Database Migration Auto Rollback
	DatabaseMigrationAutoRollback bool `env:"DB_MIGRATION_AUTO_ROLLBACK" env-default:"true"`

	// Redis host
	RedisHost string `env:"REDIS_HOST" env-default:"localhost"`
	// Redis port
	RedisPort int `env:"REDIS_PORT" env-default:"6379"`
	// Redis password
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	// Redis database number
	RedisDB int `env:"REDIS_DB" env-default:"0"`
	// TTL for cached drug names
	DrugNameCacheTTL time.Duration `env:"DRUG_NAME_CACHE_TTL" env-default:"1h"`

	// Kafka brokers (comma-separated)
	KafkaBrokers string `env:"KAFKA_BROKERS" env-default:"localhost:9092"`
	// Kafka topic for adherence events (dose.missed, reminder.sent)
	KafkaAdherenceTopic string `env:"KAFKA_ADHERENCE_TOPIC" env-default:"adherence-events"`

	// Reminder worker settings
	// How often the reminder worker runs a cycle
	ReminderPollInterval time.Duration `env:"REMINDER_POLL_INTERVAL" env-default:"60s"`
	// How many days ahead to expand plans when looking for doses
	ReminderLookaheadDays int `env:"REMINDER_LOOKAHEAD_DAYS" env-default:"1"`
	// How many days back to fetch completion records
	ReminderLookbackDays int `env:"REMINDER_LOOKBACK_DAYS" env-default:"7"`
	// Max concurrent per-user plan expansions
	ReminderExpandWorkers int `env:"REMINDER_EXPAND_WORKERS" env-default:"8"`
	// Enable/disable the reminder worker
	ReminderEnabled bool `env:"REMINDER_ENABLED" env-default:"true"`

	// Email settings
	// Sender address for reminder emails
	EmailSender string `env:"EMAIL_SENDER" env-default:""`
	// AWS region for SES
	AWSRegion string `env:"AWS_REGION" env-default:"us-east-1"`

	// Tracing settings
	// Enable OTLP tracing export (set to true to send traces to collector)
	OTLPEnabled bool `env:"OTLP_ENABLED" env-default:"false"`
	// OTLP collector endpoint
	OTLPEndpoint string `env:"OTLP_ENDPOINT" env-default:"localhost:4317"`
	// OTLP protocol (grpc or http)
	OTLPProtocol string `env:"OTLP_PROTOCOL" env-default:"grpc"`
	// Disable TLS for OTLP (for local development)
	OTLPInsecure bool `env:"OTLP_INSECURE" env-default:"true"`
}
