package config

import (
	"fmt"
	"time"
)

// Config holds the full configuration for the proxy: where it binds, how it
// logs, and the list of routes it serves.
type Config struct {
	Filename string        `yaml:"-"`
	Server   ServerConfig  `yaml:"server"`
	Logging  LoggingConfig `yaml:"logging"`
	Routes   []RouteConfig `yaml:"routes"`
}

// ServerConfig holds HTTP server bind and timeout settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
}

// GetAddress returns the server address in host:port form.
func (s *ServerConfig) GetAddress() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig controls the global logging policy. A RouteConfig may carry
// its own Logging section, which is copied onto domain.Route.LoggingOverride
// and not read by the request path.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Output     string `yaml:"output"`
	Format     string `yaml:"format"`
	Theme      string `yaml:"theme"`
	LogHeaders bool   `yaml:"log_headers"`
	LogBodies  bool   `yaml:"log_bodies"`
	FileOutput bool   `yaml:"file_output"`
	LogDir     string `yaml:"log_dir"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// RouteConfig binds one incoming model name to one provider.
type RouteConfig struct {
	IncomingModel   string               `yaml:"incoming_model"`
	SourceDialect   string               `yaml:"source_dialect"`
	Provider        ProviderConfig       `yaml:"provider"`
	RequestHeaders  HeaderConfig         `yaml:"request_headers"`
	ResponseHeaders HeaderConfig         `yaml:"response_headers"`
	RequestRules    TransformationConfig `yaml:"request_transform"`
	ResponseRules   TransformationConfig `yaml:"response_transform"`
	Client          ClientConfig         `yaml:"client"`
	Logging         *LoggingConfig       `yaml:"logging"`
}

// ProviderConfig describes the upstream backend a route forwards to.
type ProviderConfig struct {
	Type        string `yaml:"type"` // openai | anthropic | ollama
	BaseURL     string `yaml:"base_url"`
	TargetModel string `yaml:"target_model"`
	APIKey      string `yaml:"api_key"`
}

// HeaderConfig mirrors domain.HeaderRule at the configuration-file level.
type HeaderConfig struct {
	DropAll bool              `yaml:"drop_all"`
	Drop    []string          `yaml:"drop"`
	Add     map[string]string `yaml:"add"`
	Force   map[string]string `yaml:"force"`
}

// ClientConfig mirrors domain.ClientPolicy at the configuration-file level.
type ClientConfig struct {
	TimeoutMS int   `yaml:"timeout_ms"`
	Retries   int   `yaml:"retries"`
	VerifySSL *bool `yaml:"verify_ssl"`
}

// TransformationConfig mirrors domain.TransformRule at the configuration-file level.
type TransformationConfig struct {
	RegexReplacements []RegexReplacementConfig `yaml:"regex_replacements"`
	JSONPathOps       []JSONPathOpConfig       `yaml:"json_path_ops"`
}

type RegexReplacementConfig struct {
	Pattern     string `yaml:"pattern"`
	Replacement string `yaml:"replacement"`
}

type JSONPathOpConfig struct {
	Op    string `yaml:"op"` // ADD | REMOVE
	Path  string `yaml:"path"`
	Value any    `yaml:"value"`
}
