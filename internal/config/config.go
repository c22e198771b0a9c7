package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	DefaultHost = "0.0.0.0"
	DefaultPort = 8089
)

// envVarPattern matches ${UPPER_SNAKE_CASE} placeholders, the same shape the
// original ConfigLoader.substituteEnvVars recognised.
var envVarPattern = regexp.MustCompile(`\$\{([A-Z_][A-Z0-9_]*)\}`)

// DefaultConfig returns a configuration with sensible defaults, overridden
// by whatever a config file and environment variables supply on Load.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            DefaultHost,
			Port:            DefaultPort,
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    10 * time.Minute,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			MaxBodyBytes:    10 << 20,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     "stdout",
			Format:     "text",
			Theme:      "default",
			LogHeaders: false,
			LogBodies:  false,
			FileOutput: false,
			LogDir:     "./logs",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
	}
}

// Load reads the config file named by LLMPROXY_CONFIG_FILE, or ./config.yaml
// if unset, substitutes ${ENV_VAR} placeholders, merges environment
// overrides, and validates the result. If the file does not exist,
// DefaultConfig is returned as is, without validation.
func Load(onChange func()) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("LLMPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := os.Getenv("LLMPROXY_CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file %s: %w", path, err)
	}

	substituted := substituteEnvVars(string(raw))

	if err := v.ReadConfig(bytes.NewBufferString(substituted)); err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Filename = path

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	if onChange != nil {
		v.SetConfigFile(path)
		v.OnConfigChange(func(e fsnotify.Event) {
			onChange()
		})
		v.WatchConfig()
	}

	return cfg, nil
}

// substituteEnvVars replaces ${VAR} with the value of the environment
// variable VAR, leaving an empty string (and logging nothing here — the
// caller decides whether a blank result later fails validation) when VAR is
// unset.
func substituteEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		name := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(name)
	})
}
