// Package config provides YAML configuration parsing for tcup.
//
// This package enables running tcup as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	title: tCup 智能运维
//	port: 8080
//	poll_interval: 15s
//
//	storage:
//	  driver: file
//	  path: ./tcup-data.json
//
//	backend:
//	  base_url: ${OPS_BACKEND:-http://localhost:5000}
//	  timeout: 5s
//
//	users:
//	  - username: admin
//	    password_hash: ${TCUP_ADMIN_HASH}
//
//	probes:
//	  - name: CPU高负载阈值
//	    path: /api/status
//	    value: avg:cpu_data.cpu_percent
//
//	chat:
//	  port: 3000
//	  api_key: ${ANTHROPIC_API_KEY:-}
package config

import (
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// minPollInterval is the minimum allowed polling interval.
const minPollInterval = 1 * time.Second

// Config is the root configuration structure for tcup.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Title is the dashboard title. Empty uses the built-in title.
	Title string `yaml:"title"`

	// Port is the dashboard HTTP port. Defaults to 8080.
	Port int `yaml:"port"`

	// PollInterval is the time between probe cycles. Defaults to 15s.
	PollInterval Duration `yaml:"poll_interval"`

	// MaxConcurrency bounds simultaneous probe requests. Defaults to 10.
	MaxConcurrency int `yaml:"max_concurrency"`

	// LandingPath is where logged-in users visiting /login are sent.
	// Defaults to /realtime.
	LandingPath string `yaml:"landing_path"`

	Storage StorageConfig `yaml:"storage"`
	Backend BackendConfig `yaml:"backend"`
	Users   []UserConfig  `yaml:"users"`
	Probes  []ProbeConfig `yaml:"probes"`
	Chat    ChatConfig    `yaml:"chat"`
}

// StorageConfig selects the slot store for monitor configs and login flags.
type StorageConfig struct {
	// Driver is memory, file, postgres or sql. Defaults to memory.
	Driver string `yaml:"driver"`

	// Path is the JSON file for the file driver.
	Path string `yaml:"path"`

	// DSN is the connection string for the postgres and sql drivers.
	// Supports environment variable substitution.
	DSN string `yaml:"dsn"`
}

// Location returns the driver-specific location: the path for "file", the
// DSN otherwise.
func (s StorageConfig) Location() string {
	if s.Driver == "file" {
		return s.Path
	}
	return s.DSN
}

// BackendConfig points at the ops backend.
type BackendConfig struct {
	// BaseURL defaults to http://localhost:5000.
	// Supports environment variable substitution.
	BaseURL string `yaml:"base_url"`

	// Timeout is the per-request timeout. Defaults to 5s.
	Timeout Duration `yaml:"timeout"`
}

// UserConfig is a dashboard login.
type UserConfig struct {
	Username string `yaml:"username"`

	// PasswordHash is a bcrypt hash (see "tcup hash-password").
	// Supports environment variable substitution.
	PasswordHash string `yaml:"password_hash"`
}

// ProbeConfig defines a single realtime probe.
type ProbeConfig struct {
	// Name is the display name; it also selects the monitor config whose
	// threshold applies unless Config is set.
	Name string `yaml:"name"`

	// Path is the backend path, for example /api/status.
	Path string `yaml:"path"`

	// Method is GET, HEAD or POST. Defaults to GET.
	Method string `yaml:"method"`

	// Config names the monitor config holding the threshold.
	Config string `yaml:"config"`

	// Value determines how the reading is extracted from the response.
	// Can be shorthand ("json:cpu_usage", "avg:cpu_data.cpu_percent") or
	// structured.
	Value ExtractorConfig `yaml:"value"`

	// Interval is the custom polling interval for this probe.
	// Must be between 1s and 1h.
	Interval Duration `yaml:"interval"`
}

// ChatConfig configures the chat proxy started by "tcup chat".
type ChatConfig struct {
	// Port defaults to 3000.
	Port int `yaml:"port"`

	// APIKey is the LLM API key. Empty keys are allowed; the chat endpoint
	// then reports missing credentials.
	APIKey string `yaml:"api_key"`

	// Model is the LLM model id. Empty uses the built-in default.
	Model string `yaml:"model"`

	// MaxTokens caps the reply length. Empty uses the built-in default.
	MaxTokens int `yaml:"max_tokens"`
}

// ExtractorConfig specifies how to read a numeric value from a response.
//
// It supports two formats in YAML:
//
// Shorthand string:
//
//	value: json:memory_data.basic_info.percent
//	value: avg:cpu_data.cpu_percent
//	value: regex:"cpu_usage":\s*"([\d.]+)%"
//	value: default
//
// Structured object:
//
//	value:
//	  type: json
//	  path: memory_data.basic_info.percent
type ExtractorConfig struct {
	// Type is "default", "json", "avg" or "regex".
	Type string

	// Path is the gjson path (for json and avg).
	Path string

	// Pattern is the regular expression (for regex).
	Pattern string
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// UnmarshalYAML implements yaml.Unmarshaler for ExtractorConfig.
func (e *ExtractorConfig) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var s string
		if err := node.Decode(&s); err != nil {
			return err
		}
		return e.parseShorthand(s)
	}

	if node.Kind == yaml.MappingNode {
		// temporary struct to avoid infinite recursion
		var raw struct {
			Type    string `yaml:"type"`
			Path    string `yaml:"path"`
			Pattern string `yaml:"pattern"`
		}
		if err := node.Decode(&raw); err != nil {
			return err
		}
		e.Type = raw.Type
		e.Path = raw.Path
		e.Pattern = raw.Pattern
		return nil
	}

	return fmt.Errorf("value must be a string or object, got %v", node.Kind)
}

// parseShorthand parses extractor shorthand syntax.
//
// Supported formats:
//   - "default" → read "value", then "percent"
//   - "json:path" → number at a gjson path
//   - "avg:path" → average of a numeric array
//   - "regex:pattern" → first capture group of a pattern
func (e *ExtractorConfig) parseShorthand(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if idx := strings.Index(s, ":"); idx != -1 {
		e.Type = s[:idx]
		value := s[idx+1:]

		switch e.Type {
		case "json", "avg":
			e.Path = value
		case "regex":
			e.Pattern = value
		default:
			return fmt.Errorf("unknown value extractor %q", e.Type)
		}
		return nil
	}

	if s == "default" {
		e.Type = s
		return nil
	}
	return fmt.Errorf("unknown value extractor %q (expected 'default', 'json:path', 'avg:path', or 'regex:pattern')", s)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in the storage DSN and path, backend
// URL, password hashes and chat API key. Defaults are applied for Port
// (8080), PollInterval (15s), MaxConcurrency (10), Storage.Driver (memory),
// Backend (http://localhost:5000, 5s) and Chat.Port (3000).
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.PollInterval == 0 {
		cfg.PollInterval = Duration(15 * time.Second)
	}
	if cfg.MaxConcurrency == 0 {
		cfg.MaxConcurrency = 10
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = "memory"
	}
	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = "http://localhost:5000"
	}
	if cfg.Backend.Timeout == 0 {
		cfg.Backend.Timeout = Duration(5 * time.Second)
	}
	if cfg.Chat.Port == 0 {
		cfg.Chat.Port = 3000
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.PollInterval.Duration() < minPollInterval {
		return fmt.Errorf("poll_interval must be at least %s, got %s", minPollInterval, c.PollInterval.Duration())
	}
	if c.MaxConcurrency < 0 {
		return fmt.Errorf("max_concurrency cannot be negative, got %d", c.MaxConcurrency)
	}
	if c.LandingPath != "" && !strings.HasPrefix(c.LandingPath, "/") {
		return fmt.Errorf("landing_path must start with /, got %q", c.LandingPath)
	}

	if err := c.Storage.expandAndValidate(); err != nil {
		return err
	}
	if err := c.Backend.expandAndValidate(); err != nil {
		return err
	}

	seenUsers := make(map[string]bool, len(c.Users))
	for i := range c.Users {
		u := &c.Users[i]
		if u.Username == "" {
			return fmt.Errorf("users[%d]: username is required", i)
		}
		if seenUsers[u.Username] {
			return fmt.Errorf("users[%d] (%s): duplicate username", i, u.Username)
		}
		seenUsers[u.Username] = true

		expanded, err := expandEnvVars(u.PasswordHash)
		if err != nil {
			return fmt.Errorf("users[%d] (%s): password_hash: %w", i, u.Username, err)
		}
		u.PasswordHash = expanded
		if u.PasswordHash == "" {
			return fmt.Errorf("users[%d] (%s): password_hash is required", i, u.Username)
		}
	}

	seenProbes := make(map[string]bool, len(c.Probes))
	for i := range c.Probes {
		p := &c.Probes[i]

		if p.Name == "" {
			return fmt.Errorf("probes[%d]: name is required", i)
		}
		if seenProbes[p.Name] {
			return fmt.Errorf("probes[%d] (%s): duplicate name", i, p.Name)
		}
		seenProbes[p.Name] = true

		if p.Path == "" {
			return fmt.Errorf("probes[%d] (%s): path is required", i, p.Name)
		}
		if !strings.HasPrefix(p.Path, "/") {
			return fmt.Errorf("probes[%d] (%s): path must start with /", i, p.Name)
		}

		if p.Method != "" && p.Method != "GET" && p.Method != "HEAD" && p.Method != "POST" {
			return fmt.Errorf("probes[%d] (%s): method must be GET, HEAD, or POST", i, p.Name)
		}

		if p.Interval != 0 {
			if p.Interval.Duration() < time.Second {
				return fmt.Errorf("probes[%d] (%s): interval must be at least 1s, got %s",
					i, p.Name, p.Interval.Duration())
			}
			if p.Interval.Duration() > time.Hour {
				return fmt.Errorf("probes[%d] (%s): interval must not exceed 1h, got %s",
					i, p.Name, p.Interval.Duration())
			}
		}

		if err := validateExtractor(&p.Value, fmt.Sprintf("probes[%d] (%s)", i, p.Name)); err != nil {
			return err
		}
	}

	expanded, err := expandEnvVars(c.Chat.APIKey)
	if err != nil {
		return fmt.Errorf("chat: api_key: %w", err)
	}
	c.Chat.APIKey = expanded
	if c.Chat.Port < 1 || c.Chat.Port > 65535 {
		return fmt.Errorf("chat: port must be between 1 and 65535, got %d", c.Chat.Port)
	}
	if c.Chat.MaxTokens < 0 {
		return fmt.Errorf("chat: max_tokens cannot be negative, got %d", c.Chat.MaxTokens)
	}

	return nil
}

func (s *StorageConfig) expandAndValidate() error {
	var err error
	if s.Path, err = expandEnvVars(s.Path); err != nil {
		return fmt.Errorf("storage: path: %w", err)
	}
	if s.DSN, err = expandEnvVars(s.DSN); err != nil {
		return fmt.Errorf("storage: dsn: %w", err)
	}

	switch s.Driver {
	case "memory":
	case "file":
		if s.Path == "" {
			return fmt.Errorf("storage: driver %q requires a path", s.Driver)
		}
	case "postgres", "sql":
		if s.DSN == "" {
			return fmt.Errorf("storage: driver %q requires a dsn", s.Driver)
		}
	default:
		return fmt.Errorf("storage: unknown driver %q (expected memory, file, postgres or sql)", s.Driver)
	}
	return nil
}

func (b *BackendConfig) expandAndValidate() error {
	expanded, err := expandEnvVars(b.BaseURL)
	if err != nil {
		return fmt.Errorf("backend: base_url: %w", err)
	}
	b.BaseURL = expanded

	parsedURL, err := url.Parse(b.BaseURL)
	if err != nil {
		return fmt.Errorf("backend: invalid base_url: %w", err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return fmt.Errorf("backend: base_url scheme must be http or https, got %q", parsedURL.Scheme)
	}
	if b.Timeout.Duration() < 0 {
		return fmt.Errorf("backend: timeout cannot be negative, got %s", b.Timeout.Duration())
	}
	return nil
}

// validateExtractor validates a value extractor configuration.
func validateExtractor(e *ExtractorConfig, context string) error {
	switch e.Type {
	case "", "default":
	case "json", "avg":
		if e.Path == "" {
			return fmt.Errorf("%s: value extractor %q requires a path", context, e.Type)
		}
	case "regex":
		if e.Pattern == "" {
			return fmt.Errorf("%s: value extractor 'regex' requires a pattern", context)
		}
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return fmt.Errorf("%s: invalid regex: %w", context, err)
		}
		if re.NumSubexp() < 1 {
			return fmt.Errorf("%s: regex needs a capture group", context)
		}
	default:
		return fmt.Errorf("%s: unknown value extractor %q", context, e.Type)
	}
	return nil
}
