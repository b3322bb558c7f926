package config

import "time"

// TranscriberConfig selects the speech-to-text backend for voice messages.
type TranscriberConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider"`
	Model    string `mapstructure:"model" yaml:"model"`
	Language string `mapstructure:"language" yaml:"language"`
	APIKey   string `mapstructure:"api_key" yaml:"api_key,omitempty"`
}

// Config holds server configuration values.
type Config struct {
	Addr               string            `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration     `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration     `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string            `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath       string            `mapstructure:"database_path" yaml:"database_path"`
	HistoryLimit       int               `mapstructure:"history_limit" yaml:"history_limit"`
	MaxMessageBytes    int64             `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	RateLimitPerMinute int               `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`
	PublishSecret      string            `mapstructure:"publish_secret" yaml:"publish_secret,omitempty"`
	Transcriber        TranscriberConfig `mapstructure:"transcriber" yaml:"transcriber"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               "127.0.0.1:8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "voxrelay.db",
		HistoryLimit:       50,
		MaxMessageBytes:    8 << 20,
		RateLimitPerMinute: 120,
		Transcriber: TranscriberConfig{
			Provider: "none",
			Model:    "whisper-1",
			Language: "ja",
		},
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.DatabasePath != "" {
		c.DatabasePath = other.DatabasePath
	}
	if other.HistoryLimit != 0 {
		c.HistoryLimit = other.HistoryLimit
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = other.RateLimitPerMinute
	}
	if other.PublishSecret != "" {
		c.PublishSecret = other.PublishSecret
	}
	if other.Transcriber.Provider != "" {
		c.Transcriber.Provider = other.Transcriber.Provider
	}
	if other.Transcriber.Model != "" {
		c.Transcriber.Model = other.Transcriber.Model
	}
	if other.Transcriber.Language != "" {
		c.Transcriber.Language = other.Transcriber.Language
	}
	if other.Transcriber.APIKey != "" {
		c.Transcriber.APIKey = other.Transcriber.APIKey
	}
}
