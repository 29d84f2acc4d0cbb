package config

import (
	"fmt"
	"time"
	_ "time/tzdata" // zone data for minimal containers
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig   `mapstructure:"server" validate:"required"`
	Store     StoreConfig    `mapstructure:"store" validate:"required"`
	Engine    EngineConfig   `mapstructure:"engine" validate:"required"`
	Reminders ReminderConfig `mapstructure:"reminders"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// Store drivers accepted by StoreConfig.Driver.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverBadger   = "badger"
)

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	Driver      string `mapstructure:"driver" validate:"required,oneof=memory postgres sqlite badger"`
	DatabaseURL string `mapstructure:"database_url" validate:"required_if=Driver postgres"`
	SQLitePath  string `mapstructure:"sqlite_path" validate:"required_if=Driver sqlite"`
	BadgerPath  string `mapstructure:"badger_path" validate:"required_if=Driver badger"`
}

// EngineConfig tunes the memorization engine.
type EngineConfig struct {
	// Timezone is the IANA zone used to turn instants into calendar days for streaks.
	Timezone string `mapstructure:"timezone" validate:"required"`
	// StreakOnPractice makes every recorded practice count as daily activity.
	StreakOnPractice bool `mapstructure:"streak_on_practice"`
	// ReviewIntervals overrides the default interval table, in days.
	ReviewIntervals   []int `mapstructure:"review_intervals" validate:"omitempty,dive,gt=0"`
	InitialReviewDays int   `mapstructure:"initial_review_days" validate:"gte=0"`
}

// Location resolves Timezone.
func (c EngineConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid engine timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// ReminderConfig controls the periodic due-review reminder job.
type ReminderConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Interval time.Duration `mapstructure:"interval" validate:"required_if=Enabled true,omitempty,min=1m"`

	// Concurrency bounds how many users are swept at once.
	Concurrency int `mapstructure:"concurrency" validate:"gte=1"`
}
