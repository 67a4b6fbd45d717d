package config

import (
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nipafx/LibFX-sub001/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "nestctl.json"

	// DefaultAddr is the default listen address of nestctl serve.
	DefaultAddr = ":8080"

	// DefaultWriteTimeout is the default WebSocket write timeout.
	DefaultWriteTimeout = "5s"

	// DefaultScenarioDir is the default directory holding scenario files.
	DefaultScenarioDir = "scenarios"
)

// Config represents the complete nestctl.json configuration.
type Config struct {
	// Log configures the CLI logger.
	Log LogConfig `json:"log"`

	// Metrics configures the Prometheus observer.
	Metrics MetricsConfig `json:"metrics"`

	// Tracing configures the OpenTelemetry observer.
	Tracing TracingConfig `json:"tracing"`

	// Serve configures the scenario server.
	Serve ServeConfig `json:"serve"`

	// Scenarios configures where scenarios are loaded from.
	Scenarios ScenariosConfig `json:"scenarios"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `json:"level,omitempty"`

	// Format is text or json.
	Format string `json:"format,omitempty"`
}

// MetricsConfig contains Prometheus metric naming.
type MetricsConfig struct {
	Namespace string `json:"namespace,omitempty"`
	Subsystem string `json:"subsystem,omitempty"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// TracerName is the instrumentation name of pass spans.
	TracerName string `json:"tracerName,omitempty"`
}

// ServeConfig contains scenario server settings.
type ServeConfig struct {
	// Addr is the listen address.
	Addr string `json:"addr,omitempty"`

	// WriteTimeout bounds each WebSocket write (e.g., "5s").
	WriteTimeout string `json:"writeTimeout,omitempty"`
}

// ScenariosConfig contains scenario source settings.
type ScenariosConfig struct {
	// Dir is the directory scanned for *.yaml scenarios.
	Dir string `json:"dir,omitempty"`

	// S3 configures the client used for s3:// scenario sources.
	S3 S3Config `json:"s3"`
}

// S3Config contains the S3 client settings.
type S3Config struct {
	Region string `json:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, for S3-compatible stores.
	Endpoint string `json:"endpoint,omitempty"`

	// PathStyle forces path-style addressing.
	PathStyle bool `json:"pathStyle,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Namespace: "libfx",
			Subsystem: "nesting",
		},
		Tracing: TracingConfig{
			TracerName: "libfx/nesting",
		},
		Serve: ServeConfig{
			Addr:         DefaultAddr,
			WriteTimeout: DefaultWriteTimeout,
		},
		Scenarios: ScenariosConfig{
			Dir: DefaultScenarioDir,
			S3: S3Config{
				Region: "us-east-1",
			},
		},
	}
}

// Load reads nestctl.json from dir.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadOrDefault reads nestctl.json from dir, or returns the defaults if
// there is none. Any other failure is returned.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err == nil {
		return cfg, nil
	}
	var e *errors.Error
	if errors.As(err, &e) && e.Code == "C001" {
		cfg = New()
		cfg.configPath = filepath.Join(dir, ConfigFileName)
		return cfg, nil
	}
	return nil, err
}

// LoadFile reads configuration from the specified file path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("C001").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path)).
				Wrap(err)
		}
		return nil, errors.New("C002").WithDetail(err.Error()).Wrap(err)
	}

	cfg := New()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C002").
			WithDetail("Failed to parse " + ConfigFileName + ": " + err.Error()).
			WithSuggestion("Check that " + ConfigFileName + " is valid JSON").
			Wrap(err)
	}

	cfg.configPath = path
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.New("C002").Wrap(err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("C002").WithDetail(err.Error()).Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for fields set to "" in the file.
func (c *Config) applyDefaults() {
	d := New()
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = d.Log.Format
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = d.Tracing.TracerName
	}
	if c.Serve.Addr == "" {
		c.Serve.Addr = d.Serve.Addr
	}
	if c.Serve.WriteTimeout == "" {
		c.Serve.WriteTimeout = d.Serve.WriteTimeout
	}
	if c.Scenarios.Dir == "" {
		c.Scenarios.Dir = d.Scenarios.Dir
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, ok := parseLevel(c.Log.Level); !ok {
		return errors.New("C003").
			WithDetail("log.level must be one of debug, info, warn, error; got " + c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("C003").
			WithDetail("log.format must be text or json; got " + c.Log.Format)
	}
	if d, err := time.ParseDuration(c.Serve.WriteTimeout); err != nil || d <= 0 {
		return errors.New("C003").
			WithDetail("serve.writeTimeout must be a positive duration; got " + c.Serve.WriteTimeout)
	}
	return nil
}

// WriteTimeoutDuration returns serve.writeTimeout as a duration, falling back to
// the default when it does not parse.
func (s ServeConfig) WriteTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(s.WriteTimeout); err == nil && d > 0 {
		return d
	}
	d, _ := time.ParseDuration(DefaultWriteTimeout)
	return d
}

// ScenarioPath resolves the scenario directory against the config file's
// directory. URIs such as s3://bucket/prefix are returned unchanged.
func (c *Config) ScenarioPath() string {
	if strings.Contains(c.Scenarios.Dir, "://") || filepath.IsAbs(c.Scenarios.Dir) || c.Dir() == "" {
		return c.Scenarios.Dir
	}
	return filepath.Join(c.Dir(), c.Scenarios.Dir)
}

// NewLogger builds the logger described by l, writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	level, _ := parseLevel(l.Level)
	opts := &slog.HandlerOptions{Level: level}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, bool) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
