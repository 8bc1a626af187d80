/*
Package configs is responsible for loading and parsing the application's configuration settings.

Settings are resolved in three layers: built-in defaults, an optional YAML file, and
operating system environment variables, each layer overriding the previous one.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigFile names the environment variable that may point at a YAML config file.
const EnvConfigFile = "RELAY_CONFIG"

// AppConfig contains all configuration parameters required for the relay to run.
type AppConfig struct {
	// General Server Settings
	Environment string `yaml:"environment"`
	Port        int    `yaml:"port"`

	// Security Settings
	AllowedOrigins []string `yaml:"allowed_origins"`
	ConnectRate    float64  `yaml:"connect_rate"`
	ConnectBurst   int      `yaml:"connect_burst"`
	APIRate        float64  `yaml:"api_rate"`
	APIBurst       int      `yaml:"api_burst"`

	// Relay Settings
	DefaultRoom     string  `yaml:"default_room"`
	LeaveNotices    bool    `yaml:"leave_notices"`
	MaxContentBytes int     `yaml:"max_content_bytes"`
	SendQueueSize   int     `yaml:"send_queue_size"`
	MessageRate     float64 `yaml:"message_rate"`
	MessageBurst    int     `yaml:"message_burst"`
}

// Default returns the configuration used when nothing is overridden.
func Default() *AppConfig {
	return &AppConfig{
		Environment:     "development",
		Port:            3001,
		AllowedOrigins:  []string{},
		ConnectRate:     1,
		ConnectBurst:    10,
		APIRate:         5,
		APIBurst:        20,
		DefaultRoom:     "group",
		LeaveNotices:    false,
		MaxContentBytes: 5000,
		SendQueueSize:   256,
		MessageRate:     20,
		MessageBurst:    40,
	}
}

// IsDevelopment reports whether the relay runs with development conveniences
// (console logging, any origin accepted).
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig builds the configuration from defaults, the YAML file at path (skipped when empty)
// and environment variables, then validates the result.
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *AppConfig) loadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *AppConfig) loadEnv() error {
	// --- General Server Settings ---
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		c.Environment = env
	}

	if err := envInt("PORT", &c.Port); err != nil {
		return err
	}

	// --- Security Settings ---
	if originsStr := os.Getenv("ALLOWED_ORIGINS"); originsStr != "" {
		c.AllowedOrigins = splitList(originsStr)
	}

	if err := envFloat("RELAY_CONNECT_RATE", &c.ConnectRate); err != nil {
		return err
	}
	if err := envInt("RELAY_CONNECT_BURST", &c.ConnectBurst); err != nil {
		return err
	}
	if err := envFloat("RELAY_API_RATE", &c.APIRate); err != nil {
		return err
	}
	if err := envInt("RELAY_API_BURST", &c.APIBurst); err != nil {
		return err
	}

	// --- Relay Settings ---
	if room := strings.TrimSpace(os.Getenv("RELAY_DEFAULT_ROOM")); room != "" {
		c.DefaultRoom = room
	}

	if v := os.Getenv("RELAY_LEAVE_NOTICES"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid RELAY_LEAVE_NOTICES environment variable: %w", err)
		}
		c.LeaveNotices = b
	}

	if err := envInt("RELAY_MAX_CONTENT_BYTES", &c.MaxContentBytes); err != nil {
		return err
	}
	if err := envInt("RELAY_SEND_QUEUE", &c.SendQueueSize); err != nil {
		return err
	}
	if err := envFloat("RELAY_MESSAGE_RATE", &c.MessageRate); err != nil {
		return err
	}
	if err := envInt("RELAY_MESSAGE_BURST", &c.MessageBurst); err != nil {
		return err
	}

	return nil
}

// Validate checks value ranges and cross-field constraints.
func (c *AppConfig) Validate() error {
	if c.Port < 1024 || c.Port > 65535 {
		return fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", c.Port, 1024, 65535)
	}

	if c.DefaultRoom == "" {
		return fmt.Errorf("default room must not be empty")
	}

	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("max content bytes must be positive, got %d", c.MaxContentBytes)
	}

	if c.SendQueueSize <= 0 {
		return fmt.Errorf("send queue size must be positive, got %d", c.SendQueueSize)
	}

	if c.MessageRate < 0 || c.ConnectRate < 0 || c.APIRate < 0 {
		return fmt.Errorf("rates must not be negative (message %.2f, connect %.2f, api %.2f)", c.MessageRate, c.ConnectRate, c.APIRate)
	}

	if c.ConnectRate > 0 && c.ConnectBurst < 1 {
		return fmt.Errorf("connect burst must be at least 1 when connect rate is set, got %d", c.ConnectBurst)
	}

	if c.APIRate > 0 && c.APIBurst < 1 {
		return fmt.Errorf("api burst must be at least 1 when api rate is set, got %d", c.APIBurst)
	}

	if !c.IsDevelopment() && len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_ORIGINS is required in %s environment", c.Environment)
	}

	return nil
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	*dst = n
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", key, err)
	}

	*dst = f
	return nil
}

func splitList(s string) []string {
	out := []string{}
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
