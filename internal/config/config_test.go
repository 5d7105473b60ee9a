package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func defaultConfig() *Config {
	return &Config{
		Mode:            string(ModeQueue),
		Host:            "0.0.0.0",
		Port:            8765,
		Rate:            100,
		PayloadBytes:    64,
		MaxSize:         100,
		DropLimit:       50,
		FullTimeout:     5,
		PingInterval:    20,
		PingTimeout:     20,
		MetricsAddr:     ":9090",
		MetricsInterval: 5 * time.Second,
		ShutdownGrace:   5 * time.Second,
		InboundRate:     20,
		InboundBurst:    40,
	}
}

func TestConfig_ValidDefaultsPass(t *testing.T) {
	assert.NoError(t, defaultConfig().Validate())
}

func TestConfig_RejectsUnknownMode(t *testing.T) {
	c := defaultConfig()
	c.Mode = "turbo"
	assert.Error(t, c.Validate())
}

func TestConfig_RejectsOutOfRangePort(t *testing.T) {
	c := defaultConfig()
	c.Port = 70000
	assert.Error(t, c.Validate())
}

func TestConfig_RejectsNonPositiveRate(t *testing.T) {
	c := defaultConfig()
	c.Rate = 0
	assert.Error(t, c.Validate())
}

func TestConfig_RejectsZeroMaxSize(t *testing.T) {
	c := defaultConfig()
	c.MaxSize = 0
	assert.Error(t, c.Validate())
}

func TestConfig_RejectsNonPositiveInboundLimits(t *testing.T) {
	c := defaultConfig()
	c.InboundBurst = 0
	assert.Error(t, c.Validate())
}
