package core

import (
	"time"
)

type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Resolver ResolverConfig
	Flood    FloodConfig
}

type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string
}

type ResolverConfig struct {
	// HTTPTimeout bounds each adapter's upstream calls; the coordinator
	// adds no timeout of its own.
	HTTPTimeout time.Duration
	// ConvertDelay is the fixed politeness pause between requests in
	// two-phase adapters.
	ConvertDelay time.Duration
	// QualityScores overrides the default ranking table when non-empty.
	QualityScores map[string]int
}

type FloodConfig struct {
	// RequestsPerMinute caps extraction requests per client IP. Zero
	// disables the gate.
	RequestsPerMinute int
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 120 * time.Second,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Resolver: ResolverConfig{
			HTTPTimeout:  30 * time.Second,
			ConvertDelay: time.Second,
		},
		Flood: FloodConfig{
			RequestsPerMinute: 10,
		},
	}
}
