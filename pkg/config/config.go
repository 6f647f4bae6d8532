package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/cuemby/rollwatch/pkg/log"
)

// State store variants selectable via STATE_TYPE
const (
	StateTypeInMemory = "in-memory"
	StateTypePostgres = "postgres"
)

// Config holds all environment-resolved settings. Values are read once at
// startup; the rest of the process treats the struct as immutable.
type Config struct {
	ArgoURL      string
	ArgoUser     string
	ArgoPassword string
	ArgoTimeout  int // verification deadline, seconds

	StateType  string
	SSLVerify  bool
	HistoryTTL int // in-memory task retention, seconds

	DBHost     string
	DBPort     int
	DBName     string
	DBUser     string
	DBPassword string

	LogLevel log.Level
	BindIP   string
}

// Load resolves configuration from the environment, applying defaults and
// validating required settings.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("ARGO_TIMEOUT", 300)
	v.SetDefault("STATE_TYPE", StateTypeInMemory)
	v.SetDefault("SSL_VERIFY", true)
	v.SetDefault("HISTORY_TTL", 3600)
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("LOG_LEVEL", "INFO")
	v.SetDefault("BIND_IP", "0.0.0.0")

	// AutomaticEnv alone does not register keys that have no default, so
	// bind the required ones explicitly.
	for _, key := range []string{
		"ARGO_URL", "ARGO_USER", "ARGO_PASSWORD",
		"DB_HOST", "DB_NAME", "DB_USER", "DB_PASSWORD",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind %s: %w", key, err)
		}
	}

	level, err := log.ParseLevel(v.GetString("LOG_LEVEL"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ArgoURL:      strings.TrimRight(v.GetString("ARGO_URL"), "/"),
		ArgoUser:     v.GetString("ARGO_USER"),
		ArgoPassword: v.GetString("ARGO_PASSWORD"),
		ArgoTimeout:  v.GetInt("ARGO_TIMEOUT"),
		StateType:    v.GetString("STATE_TYPE"),
		SSLVerify:    v.GetBool("SSL_VERIFY"),
		HistoryTTL:   v.GetInt("HISTORY_TTL"),
		DBHost:       v.GetString("DB_HOST"),
		DBPort:       v.GetInt("DB_PORT"),
		DBName:       v.GetString("DB_NAME"),
		DBUser:       v.GetString("DB_USER"),
		DBPassword:   v.GetString("DB_PASSWORD"),
		LogLevel:     level,
		BindIP:       v.GetString("BIND_IP"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required settings and enum values
func (c *Config) Validate() error {
	if c.ArgoURL == "" {
		return fmt.Errorf("ARGO_URL is required")
	}
	if c.ArgoUser == "" {
		return fmt.Errorf("ARGO_USER is required")
	}
	if c.ArgoPassword == "" {
		return fmt.Errorf("ARGO_PASSWORD is required")
	}
	if c.ArgoTimeout <= 0 {
		return fmt.Errorf("ARGO_TIMEOUT must be positive, got %d", c.ArgoTimeout)
	}

	switch c.StateType {
	case StateTypeInMemory:
	case StateTypePostgres:
		for name, value := range map[string]string{
			"DB_HOST":     c.DBHost,
			"DB_NAME":     c.DBName,
			"DB_USER":     c.DBUser,
			"DB_PASSWORD": c.DBPassword,
		} {
			if value == "" {
				return fmt.Errorf("%s is required when STATE_TYPE=postgres", name)
			}
		}
	default:
		return fmt.Errorf("invalid STATE_TYPE: %q (expected %q or %q)",
			c.StateType, StateTypeInMemory, StateTypePostgres)
	}

	return nil
}

// DSN returns the postgres connection string for the durable state store
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
