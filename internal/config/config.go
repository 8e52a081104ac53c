package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/berfenger/sundispatch/internal/core/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const ENV_PREFIX = "sundispatch"

type Config struct {
	LogLevel          zapcore.Level           `mapstructure:"-"`
	Preset            string                  `mapstructure:"preset"`
	SnapshotMode      string                  `mapstructure:"snapshot_mode"`
	InverterModbusTcp InverterModbusTCPConfig `mapstructure:"inverter_modbus_tcp"`
	MQTT              MQTTConfig              `mapstructure:"mqtt"`
	MonitorConfig     MonitorConfig           `mapstructure:"monitor"`
	Port              uint                    `mapstructure:"port"`
	HttpLog           bool                    `mapstructure:"http_log"`
}

type InverterModbusTCPConfig struct {
	Host          string
	Port          uint
	MeterId       uint `mapstructure:"meter_id"`
	InverterId    uint `mapstructure:"inverter_id"`
	IgnoreFronius bool `mapstructure:"ignore_fronius"`
}

// Telemetry polling is only started when an inverter host is configured.
func (c InverterModbusTCPConfig) Enabled() bool {
	return c.Host != ""
}

type MonitorConfig struct {
	PollIntervalMillis uint32 `mapstructure:"poll_interval_millis"`
}

type MQTTConfig struct {
	Enable            bool
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func (c Config) Mode() domain.SnapshotMode {
	mode, ok := domain.ParseSnapshotMode(c.SnapshotMode)
	if !ok {
		return domain.SnapshotModeRetain
	}
	return mode
}

// Load reads defaults, SUNDISPATCH_* env vars and the optional yaml file named
// by CONFIG_FILE, in increasing priority of env over file over defaults.
func Load() (*Config, error) {
	return LoadWith(viper.New())
}

func LoadWith(v *viper.Viper) (*Config, error) {

	// alias PORT => SUNDISPATCH_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv(strings.ToUpper(ENV_PREFIX)+"_PORT", port)
	}

	SetDefaults(v)

	v.SetEnvPrefix(ENV_PREFIX)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			v.SetConfigFile(cfgFile)

			err = v.ReadInConfig()
			if err != nil {
				return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
			}
		}
	}

	var cfg Config

	err := v.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	cfg.LogLevel = ParseLogLevel(v.GetString("log_level"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "warn")
	v.SetDefault("preset", domain.PRESET_BASIC)
	v.SetDefault("snapshot_mode", string(domain.SnapshotModeRetain))
	v.SetDefault("port", 8080)
	v.SetDefault("http_log", false)
	v.SetDefault("mqtt.enable", false)
	v.SetDefault("mqtt.host", "")
	v.SetDefault("mqtt.port", 1883)
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.base_topic", "sundispatch")
	v.SetDefault("mqtt.ha_discovery_enable", false)
	v.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	v.SetDefault("inverter_modbus_tcp.host", "")
	v.SetDefault("inverter_modbus_tcp.port", 502)
	v.SetDefault("inverter_modbus_tcp.meter_id", 200)
	v.SetDefault("inverter_modbus_tcp.inverter_id", 1)
	v.SetDefault("inverter_modbus_tcp.ignore_fronius", false)
	v.SetDefault("monitor.poll_interval_millis", 5000)
}

func ParseLogLevel(level string) zapcore.Level {
	switch level {
	case "trace":
		return zap.DebugLevel
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "error":
		return zap.ErrorLevel
	case "warn":
		return zap.WarnLevel
	case "fatal":
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// Validate checks bounds and normalizes mqtt topics in place.
func (cfg *Config) Validate() error {
	if cfg.Preset == "" {
		return errors.New("config param preset must not be empty")
	}
	if _, ok := domain.ParseSnapshotMode(cfg.SnapshotMode); !ok {
		return fmt.Errorf("config param snapshot_mode must be %q or %q", domain.SnapshotModeRetain, domain.SnapshotModeFresh)
	}

	// check and fix base topic
	baseTopic, err := CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	if cfg.MonitorConfig.PollIntervalMillis < 1000 {
		return errors.New("config param monitor.poll_interval_millis should be >= 1000")
	}
	return nil
}

var topicRegexp = regexp.MustCompile("^[a-z0-9_]+$")

func CheckMQTTTopic(baseTopic string) (string, error) {
	lowerBaseTopic := strings.ToLower(baseTopic)
	if !topicRegexp.MatchString(lowerBaseTopic) {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}

func SafePrintConfig(cfg Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
