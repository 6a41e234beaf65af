package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nlowe/miele"
	"github.com/nlowe/miele/mqtt"
)

// ApplianceDishwasher is the only supported appliance type.
const ApplianceDishwasher = "dishwasher"

var (
	ErrNoBroker         = errors.New("mqtt.broker is required")
	ErrApplianceType    = errors.New("unknown appliance type")
	ErrApplianceID      = errors.New("invalid appliance id")
	ErrDuplicateID      = errors.New("duplicate appliance id")
	ErrLogLevel         = errors.New("unknown log level")
	ErrLogFormat        = errors.New("unknown log format")
	ErrQualityOfService = errors.New("invalid mqtt qos")
)

// Config is the complete bridge configuration.
type Config struct {
	MQTT       MQTTConfig        `yaml:"mqtt"`
	Logging    LoggingConfig     `yaml:"logging"`
	Metrics    MetricsConfig     `yaml:"metrics"`
	Decoding   DecodingConfig    `yaml:"decoding"`
	Appliances []ApplianceConfig `yaml:"appliances"`
}

type MQTTConfig struct {
	// Broker is the URL of the broker, e.g. mqtt://localhost:1883
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	// KeepAlive in seconds.
	KeepAlive   uint16 `yaml:"keepalive"`
	TopicPrefix string `yaml:"topic_prefix"`
	QoS         byte   `yaml:"qos"`
	// Retain applies to state channels. Property channels are always retained.
	Retain bool `yaml:"retain"`
}

type LoggingConfig struct {
	// Level is one of debug, info, warn or error.
	Level string `yaml:"level"`
	// Format is text or json.
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Listen is the address the Prometheus endpoint is served on. Empty disables it.
	Listen string `yaml:"listen"`
	// StatsdAddress is the DogStatsD agent address. Empty disables it.
	StatsdAddress string `yaml:"statsd_address"`
}

type DecodingConfig struct {
	TimeParseFailure string `yaml:"time_parse_failure"`
}

type ApplianceConfig struct {
	ID   string `yaml:"id"`
	Type string `yaml:"type"`
}

// Load reads configuration from the YAML file at path, applies environment overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with every optional value set.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			ClientID:    "mieled",
			KeepAlive:   30,
			TopicPrefix: "miele",
			QoS:         byte(mqtt.QOSAtLeastOnce),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Decoding: DecodingConfig{
			TimeParseFailure: miele.TimeParseDegradeToEpoch.String(),
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	for env, dst := range map[string]*string{
		"MIELE_MQTT_BROKER":    &cfg.MQTT.Broker,
		"MIELE_MQTT_USERNAME":  &cfg.MQTT.Username,
		"MIELE_MQTT_PASSWORD":  &cfg.MQTT.Password,
		"MIELE_LOG_LEVEL":      &cfg.Logging.Level,
		"MIELE_METRICS_LISTEN": &cfg.Metrics.Listen,
		"MIELE_STATSD_ADDRESS": &cfg.Metrics.StatsdAddress,
	} {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
}

// Validate checks the configuration, returning every problem found joined together.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.MQTT.Broker) == "" {
		errs = append(errs, ErrNoBroker)
	}

	if !mqtt.QualityOfService(c.MQTT.QoS).Valid() {
		errs = append(errs, fmt.Errorf("%w: %d", ErrQualityOfService, c.MQTT.QoS))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	switch c.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrLogFormat, c.Logging.Format))
	}

	if _, err := c.Decoding.Policy(); err != nil {
		errs = append(errs, err)
	}

	seen := make(map[string]struct{}, len(c.Appliances))
	for i, a := range c.Appliances {
		if !mqtt.ValidTopicLevel(a.ID) {
			errs = append(errs, fmt.Errorf("appliances[%d]: %w: %q", i, ErrApplianceID, a.ID))
		}

		if _, dup := seen[a.ID]; dup {
			errs = append(errs, fmt.Errorf("appliances[%d]: %w: %q", i, ErrDuplicateID, a.ID))
		}
		seen[a.ID] = struct{}{}

		if _, err := a.Registry(); err != nil {
			errs = append(errs, fmt.Errorf("appliances[%d]: %w", i, err))
		}
	}

	return errors.Join(errs...)
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrLogLevel, l.Level)
	}
}

// Policy parses TimeParseFailure.
func (d DecodingConfig) Policy() (miele.TimeParsePolicy, error) {
	return miele.ParseTimeParsePolicy(d.TimeParseFailure)
}

// Registry returns the selectors for the appliance's type.
func (a ApplianceConfig) Registry() (*miele.Registry, error) {
	switch a.Type {
	case ApplianceDishwasher:
		return miele.Dishwasher, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrApplianceType, a.Type)
	}
}
