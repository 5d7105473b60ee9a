// Package config loads and validates the fanout server's configuration
// from environment variables (with an optional .env file for local
// development), following the env-tag convention used throughout this
// stack.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Mode selects the Broadcaster strategy.
type Mode string

const (
	ModeNaive Mode = "naive"
	ModeQueue Mode = "queue"
)

// Config holds every recognized configuration option.
//
// Tags:
//
//	env: environment variable name
//	envDefault: default value if not set
type Config struct {
	Mode string `env:"FANOUT_MODE" envDefault:"queue"`

	Host string `env:"FANOUT_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"FANOUT_PORT" envDefault:"8765"`

	Rate         float64 `env:"FANOUT_RATE" envDefault:"100"`
	PayloadBytes int     `env:"FANOUT_PAYLOAD_BYTES" envDefault:"64"`

	MaxSize     int     `env:"FANOUT_MAXSIZE" envDefault:"100"`
	DropLimit   int     `env:"FANOUT_DROP_LIMIT" envDefault:"50"`
	FullTimeout float64 `env:"FANOUT_FULL_TIMEOUT" envDefault:"5"`

	PingInterval float64 `env:"FANOUT_PING_INTERVAL" envDefault:"20"`
	PingTimeout  float64 `env:"FANOUT_PING_TIMEOUT" envDefault:"20"`

	LogJSON bool `env:"FANOUT_LOG_JSON" envDefault:"false"`

	MetricsAddr     string        `env:"FANOUT_METRICS_ADDR" envDefault:":9090"`
	MetricsInterval time.Duration `env:"FANOUT_METRICS_INTERVAL" envDefault:"5s"`
	ShutdownGrace   time.Duration `env:"FANOUT_SHUTDOWN_GRACE" envDefault:"5s"`

	InboundRate  float64 `env:"FANOUT_INBOUND_RATE" envDefault:"20"`
	InboundBurst int     `env:"FANOUT_INBOUND_BURST" envDefault:"40"`
}

// Load reads configuration from a .env file (if present) and the
// environment, then validates it. Priority: real env vars > .env file >
// struct defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// No .env file is a normal deployment shape (containers pass env
		// vars directly), not an error worth surfacing as one.
		_ = err
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that would make the server behave
// nonsensically rather than deferring the failure to a confusing runtime
// symptom.
func (c *Config) Validate() error {
	switch Mode(c.Mode) {
	case ModeNaive, ModeQueue:
	default:
		return fmt.Errorf("FANOUT_MODE must be %q or %q, got %q", ModeNaive, ModeQueue, c.Mode)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("FANOUT_PORT must be 1-65535, got %d", c.Port)
	}
	if c.Rate <= 0 {
		return fmt.Errorf("FANOUT_RATE must be > 0, got %v", c.Rate)
	}
	if c.PayloadBytes < 0 {
		return fmt.Errorf("FANOUT_PAYLOAD_BYTES must be >= 0, got %d", c.PayloadBytes)
	}
	if c.MaxSize < 1 {
		return fmt.Errorf("FANOUT_MAXSIZE must be > 0, got %d", c.MaxSize)
	}
	if c.DropLimit < 0 {
		return fmt.Errorf("FANOUT_DROP_LIMIT must be >= 0, got %d", c.DropLimit)
	}
	if c.FullTimeout <= 0 {
		return fmt.Errorf("FANOUT_FULL_TIMEOUT must be > 0, got %v", c.FullTimeout)
	}
	if c.MetricsInterval <= 0 {
		return fmt.Errorf("FANOUT_METRICS_INTERVAL must be > 0, got %v", c.MetricsInterval)
	}
	if c.InboundRate <= 0 || c.InboundBurst <= 0 {
		return fmt.Errorf("FANOUT_INBOUND_RATE and FANOUT_INBOUND_BURST must be > 0")
	}
	return nil
}

// Print writes a human-readable summary to stdout. cmd/fanout calls it
// at startup whatever the log format.
func (c *Config) Print() {
	fmt.Println("=== Fanout Server Configuration ===")
	fmt.Printf("Mode:             %s\n", c.Mode)
	fmt.Printf("Listen:           %s:%d\n", c.Host, c.Port)
	fmt.Printf("Rate:             %.1f env/s\n", c.Rate)
	fmt.Printf("Payload bytes:    %d\n", c.PayloadBytes)
	fmt.Printf("Queue maxsize:    %d\n", c.MaxSize)
	fmt.Printf("Drop limit:       %d per 10s\n", c.DropLimit)
	fmt.Printf("Full timeout:     %.1fs\n", c.FullTimeout)
	fmt.Printf("Ping interval:    %.1fs / timeout %.1fs\n", c.PingInterval, c.PingTimeout)
	fmt.Printf("Metrics:          %s every %s\n", c.MetricsAddr, c.MetricsInterval)
	fmt.Println("====================================")
}

// Log emits the same summary as a structured record.
func (c *Config) Log(logger zerolog.Logger) {
	logger.Info().
		Str("mode", c.Mode).
		Str("host", c.Host).
		Int("port", c.Port).
		Float64("rate", c.Rate).
		Int("payload_bytes", c.PayloadBytes).
		Int("maxsize", c.MaxSize).
		Int("drop_limit", c.DropLimit).
		Float64("full_timeout", c.FullTimeout).
		Str("metrics_addr", c.MetricsAddr).
		Dur("metrics_interval", c.MetricsInterval).
		Msg("configuration loaded")
}
