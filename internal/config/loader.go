package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/wastetrack/epr/internal/db"
)

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig
	Database db.Config
	Uploads  UploadsConfig
	Worker   WorkerConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

// UploadsConfig selects where uploaded workbooks are fetched from. The
// bucket URL scheme picks the storage driver (s3://, file://, mem://).
type UploadsConfig struct {
	BucketURL string
}

// WorkerConfig sizes the background job dispatcher.
type WorkerConfig struct {
	Workers    int
	QueueSize  int
	JobTimeout time.Duration
	MaxRetries int
}

// LoggingConfig controls the global slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// Load reads config.yaml from configPath with environment overrides
// (EPR_SERVER_PORT, EPR_DATABASE_HOST, ...). Missing file means defaults
// plus environment.
func Load(configPath string) (Config, error) {
	cfg := Config{
		Server:   ServerConfig{Port: 8080, AllowedOrigins: []string{"http://localhost:3000"}},
		Database: db.DefaultConfig(),
		Uploads:  UploadsConfig{BucketURL: "file://./uploads"},
		Worker:   WorkerConfig{QueueSize: 64, JobTimeout: 5 * time.Minute, MaxRetries: 2},
		Logging:  LoggingConfig{Level: "info", Format: "text"},
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AutomaticEnv()
	v.SetEnvPrefix("EPR")

	v.BindEnv("server.port")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("uploads.bucket_url")
	v.BindEnv("logging.level")
	v.BindEnv("logging.format")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return cfg, fmt.Errorf("read config file: %w", err)
		}
	}

	if v.IsSet("server.port") {
		cfg.Server.Port = v.GetInt("server.port")
	}
	if v.IsSet("server.allowed_origins") {
		cfg.Server.AllowedOrigins = v.GetStringSlice("server.allowed_origins")
	}
	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}
	if v.IsSet("uploads.bucket_url") {
		cfg.Uploads.BucketURL = v.GetString("uploads.bucket_url")
	}
	if v.IsSet("worker.workers") {
		cfg.Worker.Workers = v.GetInt("worker.workers")
	}
	if v.IsSet("worker.queue_size") {
		cfg.Worker.QueueSize = v.GetInt("worker.queue_size")
	}
	if v.IsSet("worker.job_timeout") {
		cfg.Worker.JobTimeout = v.GetDuration("worker.job_timeout")
	}
	if v.IsSet("worker.max_retries") {
		cfg.Worker.MaxRetries = v.GetInt("worker.max_retries")
	}
	if v.IsSet("logging.level") {
		cfg.Logging.Level = v.GetString("logging.level")
	}
	if v.IsSet("logging.format") {
		cfg.Logging.Format = v.GetString("logging.format")
	}

	return cfg, nil
}
