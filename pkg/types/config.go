// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ServerConfig holds settings for the HTTP API.
type ServerConfig struct {
	// Addr is the listen address (e.g. ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// StaticDir, when set, is served at / (the presentation layer and images).
	StaticDir string `json:"static_dir" yaml:"static_dir" mapstructure:"static_dir"`

	// AttemptTTL bounds how long an idle in-flight attempt is kept (default 2h).
	AttemptTTL time.Duration `json:"attempt_ttl" yaml:"attempt_ttl" mapstructure:"attempt_ttl"`
}

// SourceConfig describes where survey configs, the manifest and scene
// descriptions are fetched from. Exactly one of BaseURL and Dir is used;
// BaseURL wins when both are set.
type SourceConfig struct {
	BaseURL string `json:"base_url" yaml:"base_url" mapstructure:"base_url"`
	Dir     string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// ImageBase is the path prefix joined with scene id and filename to
	// form each Item's URL (default "/images").
	ImageBase string `json:"image_base" yaml:"image_base" mapstructure:"image_base"`

	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on throttled or unavailable responses.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// SurveysConfig restricts which survey ids may be selected.
type SurveysConfig struct {
	Allowed []string `json:"allowed" yaml:"allowed" mapstructure:"allowed"`
	Default string   `json:"default" yaml:"default" mapstructure:"default"`
}

// StoreDriver selects the persistence backend.
type StoreDriver string

const (
	StoreMemory StoreDriver = "memory"
	StoreSQLite StoreDriver = "sqlite"
	StoreRedis  StoreDriver = "redis"
)

// StoreConfig holds settings for session and result persistence.
type StoreConfig struct {
	Driver StoreDriver `json:"driver" yaml:"driver" mapstructure:"driver"`

	// Path is the SQLite database file.
	Path string `json:"path" yaml:"path" mapstructure:"path"`

	// RedisURL is a redis:// URL or a bare host:port.
	RedisURL      string `json:"redis_url" yaml:"redis_url" mapstructure:"redis_url"`
	RedisPassword string `json:"redis_password,omitempty" yaml:"redis_password,omitempty" mapstructure:"redis_password"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// File, when set, receives JSON logs with rotation.
	File string `json:"file" yaml:"file" mapstructure:"file"`

	// Development switches the console encoder to human-readable output.
	Development bool `json:"development" yaml:"development" mapstructure:"development"`
}

// AppConfig groups all configuration sections.
type AppConfig struct {
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Source  SourceConfig  `json:"source" yaml:"source" mapstructure:"source"`
	Surveys SurveysConfig `json:"surveys" yaml:"surveys" mapstructure:"surveys"`
	Store   StoreConfig   `json:"store" yaml:"store" mapstructure:"store"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
