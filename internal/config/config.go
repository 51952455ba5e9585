package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	Processing ProcessingConfig `mapstructure:"processing" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL             string        `mapstructure:"url" validate:"required,url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns" validate:"gt=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns" validate:"gte=0,ltefield=MaxOpenConns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
}

// ProcessingConfig controls the bulk item processor and the background run runner.
type ProcessingConfig struct {
	// Workers bounds how many items are processed concurrently in one run.
	Workers int `mapstructure:"workers" validate:"gt=0,lte=1024"`

	// Timeout caps a single run. Zero means no deadline.
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`

	QueueSize     int `mapstructure:"queue_size" validate:"gt=0"`
	RunnerWorkers int `mapstructure:"runner_workers" validate:"gt=0"`
}
