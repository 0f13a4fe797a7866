package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	apperrors "staywithme/internal/platform/errors"
)

const (
	FileName = "config.yaml"
	EnvFile  = ".env"

	DefaultMonitorInterval = 15 * time.Minute
	MinMonitorInterval     = time.Minute
	DefaultForegroundTick  = time.Second
	DefaultRetention       = 30 * 24 * time.Hour
	DefaultDeliveryTimeout = 10 * time.Second
	MaxDeliveryTimeout     = time.Minute

	ChannelOutbox  = "outbox"
	ChannelGateway = "gateway"
	ChannelSMTP    = "smtp"
	ChannelPlugin  = "plugin"
)

type Config struct {
	DataDir string `yaml:"-"`
	DBPath  string `yaml:"-"`

	Log        LogConfig        `yaml:"log"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Foreground ForegroundConfig `yaml:"foreground"`
	Retention  time.Duration    `yaml:"retention"`
	Delivery   DeliveryConfig   `yaml:"delivery"`
	Notifier   NotifierConfig   `yaml:"notifier"`
	Location   LocationConfig   `yaml:"location"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

type MonitorConfig struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
}

type ForegroundConfig struct {
	Tick time.Duration `yaml:"tick"`
}

type DeliveryConfig struct {
	Channel string        `yaml:"channel"`
	Timeout time.Duration `yaml:"timeout"`
	Outbox  string        `yaml:"outbox"`
	Plugin  string        `yaml:"plugin"`
	Gateway GatewayConfig `yaml:"gateway"`
	SMTP    SMTPConfig    `yaml:"smtp"`
}

// GatewayConfig describes an HTTP SMS gateway accepting JSON {to, from, body}.
type GatewayConfig struct {
	URL         string `yaml:"url"`
	From        string `yaml:"from"`
	TokenSecret string `yaml:"token_secret"`
}

// SMTPConfig describes an email-to-SMS bridge: messages go to <digits>@Domain.
type SMTPConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	User           string `yaml:"user"`
	From           string `yaml:"from"`
	Domain         string `yaml:"domain"`
	PasswordSecret string `yaml:"password_secret"`
}

// NotifierConfig picks the local notifier: Command when set, otherwise the
// desktop notification service unless Desktop is false.
type NotifierConfig struct {
	Desktop bool     `yaml:"desktop"`
	Command string   `yaml:"command"`
	Args    []string `yaml:"args"`
}

type LocationConfig struct {
	File   string        `yaml:"file"`
	MaxAge time.Duration `yaml:"max_age"`
}

func Default(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		DBPath:  filepath.Join(dataDir, "staywithme.db"),
		Log:     LogConfig{Level: "info", Format: "console", File: filepath.Join(dataDir, "staywithme.log")},
		Monitor: MonitorConfig{Interval: DefaultMonitorInterval, Listen: "127.0.0.1:8765"},
		Foreground: ForegroundConfig{
			Tick: DefaultForegroundTick,
		},
		Retention: DefaultRetention,
		Delivery: DeliveryConfig{
			Channel: ChannelOutbox,
			Timeout: DefaultDeliveryTimeout,
			Outbox:  filepath.Join(dataDir, "outbox.jsonl"),
			Gateway: GatewayConfig{TokenSecret: "gateway-token"},
			SMTP:    SMTPConfig{Port: 587, PasswordSecret: "smtp-password"},
		},
		Notifier: NotifierConfig{Desktop: true},
		Location: LocationConfig{
			File:   filepath.Join(dataDir, "location.json"),
			MaxAge: 2 * time.Hour,
		},
	}
}

// DefaultDataDir is ~/.staywithme, or the working directory when no home exists.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".staywithme"
	}
	return filepath.Join(home, ".staywithme")
}

// Load layers defaults, <dataDir>/config.yaml, <dataDir>/.env and STAYWITHME_*
// environment variables, in that order.
func Load(dataDir string) (Config, error) {
	if strings.TrimSpace(dataDir) == "" {
		return Config{}, fmt.Errorf("%w: data directory is required", apperrors.ErrConfiguration)
	}
	cfg := Default(dataDir)

	raw, err := os.ReadFile(filepath.Join(dataDir, FileName))
	switch {
	case err == nil:
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("%w: decode %s: %v", apperrors.ErrConfiguration, FileName, err)
		}
	case os.IsNotExist(err):
	default:
		return Config{}, fmt.Errorf("read %s: %w", FileName, err)
	}

	if err := godotenv.Load(filepath.Join(dataDir, EnvFile)); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("%w: load %s: %v", apperrors.ErrConfiguration, EnvFile, err)
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Monitor.Interval < MinMonitorInterval {
		return fmt.Errorf("%w: monitor.interval must be at least %s", apperrors.ErrConfiguration, MinMonitorInterval)
	}
	if c.Foreground.Tick <= 0 || c.Foreground.Tick > time.Second {
		return fmt.Errorf("%w: foreground.tick must be within (0, 1s]", apperrors.ErrConfiguration)
	}
	if c.Retention <= 0 {
		return fmt.Errorf("%w: retention must be positive", apperrors.ErrConfiguration)
	}
	if c.Delivery.Timeout <= 0 || c.Delivery.Timeout > MaxDeliveryTimeout {
		return fmt.Errorf("%w: delivery.timeout must be within (0, %s]", apperrors.ErrConfiguration, MaxDeliveryTimeout)
	}
	switch c.Delivery.Channel {
	case ChannelOutbox:
	case ChannelGateway:
		if c.Delivery.Gateway.URL == "" {
			return fmt.Errorf("%w: delivery.gateway.url is required", apperrors.ErrConfiguration)
		}
	case ChannelSMTP:
		if c.Delivery.SMTP.Host == "" || c.Delivery.SMTP.Domain == "" {
			return fmt.Errorf("%w: delivery.smtp.host and delivery.smtp.domain are required", apperrors.ErrConfiguration)
		}
	case ChannelPlugin:
		if c.Delivery.Plugin == "" {
			return fmt.Errorf("%w: delivery.plugin is required", apperrors.ErrConfiguration)
		}
	default:
		return fmt.Errorf("%w: unknown delivery.channel %q", apperrors.ErrConfiguration, c.Delivery.Channel)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Log.Level, "STAYWITHME_LOG_LEVEL")
	setString(&cfg.Log.Format, "STAYWITHME_LOG_FORMAT")
	setString(&cfg.Log.File, "STAYWITHME_LOG_FILE")
	setString(&cfg.Monitor.Listen, "STAYWITHME_MONITOR_LISTEN")
	setString(&cfg.Delivery.Channel, "STAYWITHME_DELIVERY_CHANNEL")
	setString(&cfg.Delivery.Plugin, "STAYWITHME_DELIVERY_PLUGIN")
	setString(&cfg.Delivery.Gateway.URL, "STAYWITHME_GATEWAY_URL")
	setString(&cfg.Delivery.Gateway.From, "STAYWITHME_GATEWAY_FROM")
	setString(&cfg.Delivery.SMTP.Host, "STAYWITHME_SMTP_HOST")
	setString(&cfg.Delivery.SMTP.User, "STAYWITHME_SMTP_USER")
	setString(&cfg.Delivery.SMTP.From, "STAYWITHME_SMTP_FROM")
	setString(&cfg.Delivery.SMTP.Domain, "STAYWITHME_SMTP_DOMAIN")
	setString(&cfg.Location.File, "STAYWITHME_LOCATION_FILE")
	if err := setDuration(&cfg.Monitor.Interval, "STAYWITHME_MONITOR_INTERVAL"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Delivery.Timeout, "STAYWITHME_DELIVERY_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.Retention, "STAYWITHME_RETENTION"); err != nil {
		return err
	}
	if raw, ok := os.LookupEnv("STAYWITHME_SMTP_PORT"); ok && raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: STAYWITHME_SMTP_PORT: %v", apperrors.ErrConfiguration, err)
		}
		cfg.Delivery.SMTP.Port = port
	}
	return nil
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperrors.ErrConfiguration, key, err)
	}
	*dst = d
	return nil
}
