// Package config loads mv settings from a YAML file, MV_* environment
// variables and command-line flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/spf13/viper"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/source"
)

// Config holds all application configuration.
type Config struct {
	Source  source.Config `mapstructure:"source"`
	Window  WindowConfig  `mapstructure:"window"`
	UI      UIConfig      `mapstructure:"ui"`
	Refresh RefreshConfig `mapstructure:"refresh"`
	Notify  NotifyConfig  `mapstructure:"notify"`
	Log     LogConfig     `mapstructure:"log"`
}

type WindowConfig struct {
	Default int `mapstructure:"default"`
}

type UIConfig struct {
	Title           string `mapstructure:"title"`
	ToastSeconds    int    `mapstructure:"toast_seconds"`
	HandleTolerance int    `mapstructure:"handle_tolerance"` // in terminal cells
	Color           bool   `mapstructure:"color"`
}

type RefreshConfig struct {
	Cron string `mapstructure:"cron"`
}

type NotifyConfig struct {
	Telegram TelegramConfig `mapstructure:"telegram"`
}

type TelegramConfig struct {
	BotToken string `mapstructure:"bot_token"`
	ChatID   string `mapstructure:"chat_id"`
}

// Enabled reports whether both credentials are present.
func (t TelegramConfig) Enabled() bool { return t.BotToken != "" && t.ChatID != "" }

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// CronParser accepts the six-field (with seconds) specs used by the
// refresh scheduler, plus descriptors such as @hourly.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// New returns a viper instance with defaults and MV_* environment lookup.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix("MV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("notify.telegram.bot_token", "MV_NOTIFY_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN")
	_ = v.BindEnv("notify.telegram.chat_id", "MV_NOTIFY_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID")
	_ = v.BindEnv("source.proxy", "MV_SOURCE_PROXY", "HTTPS_PROXY")
	return v
}

// SetDefaults registers every known key so environment overrides reach
// Unmarshal even when the config file omits them.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.kind", "ths")
	v.SetDefault("source.timeout", 30*time.Second)
	v.SetDefault("source.proxy", "")
	v.SetDefault("source.ths.url", source.DefaultTHSURL)
	v.SetDefault("source.ths.code", source.DefaultTHSCode)
	v.SetDefault("source.ths.index_id", source.DefaultTHSIndexID)
	v.SetDefault("source.ths.start", source.DefaultTHSStart)
	v.SetDefault("source.ths.tz", "Asia/Shanghai")
	v.SetDefault("source.ths.label", source.DefaultLabel)
	v.SetDefault("source.yahoo.symbol", "")
	v.SetDefault("source.yahoo.label", "")
	v.SetDefault("source.yahoo.tz", "")
	v.SetDefault("source.yaml.path", "")
	v.SetDefault("source.sqlite.path", "")
	v.SetDefault("source.sqlite.table", "margin_ratio")
	v.SetDefault("source.mock.length", 0)
	v.SetDefault("source.mock.base", 0.0)
	v.SetDefault("source.mock.end", "")

	v.SetDefault("window.default", 200)
	v.SetDefault("ui.title", format.SeriesName)
	v.SetDefault("ui.toast_seconds", 5)
	v.SetDefault("ui.handle_tolerance", 1)
	v.SetDefault("ui.color", true)
	v.SetDefault("refresh.cron", "")
	v.SetDefault("notify.telegram.bot_token", "")
	v.SetDefault("notify.telegram.chat_id", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads the config file into v and decodes the result. With an empty
// path, ./mv.yaml and $HOME/.config/mv/mv.yaml are tried and a missing file
// is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mv")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mv")
	}
	if err := v.ReadInConfig(); err != nil {
		var nf viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &nf) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadDotEnv loads .env files into the process environment. Missing files
// are ignored.
func LoadDotEnv(files ...string) error {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// Validate checks the settings that cannot be defaulted.
func (c *Config) Validate() error {
	if _, ok := source.Registry[c.Source.Kind]; !ok {
		return fmt.Errorf("source.kind %q is not one of %v", c.Source.Kind, source.Kinds())
	}
	switch c.Source.Kind {
	case "yahoo":
		if c.Source.Yahoo.Symbol == "" {
			return fmt.Errorf("source.yahoo.symbol is required")
		}
	case "yaml":
		if c.Source.YAML.Path == "" {
			return fmt.Errorf("source.yaml.path is required")
		}
	case "sqlite":
		if c.Source.SQLite.Path == "" {
			return fmt.Errorf("source.sqlite.path is required")
		}
	}
	if c.Window.Default < 2 {
		return fmt.Errorf("window.default must be at least 2")
	}
	if c.UI.ToastSeconds < 0 {
		return fmt.Errorf("ui.toast_seconds must not be negative")
	}
	if c.Refresh.Cron != "" {
		if _, err := CronParser.Parse(c.Refresh.Cron); err != nil {
			return fmt.Errorf("refresh.cron: %w", err)
		}
	}
	if (c.Notify.Telegram.BotToken == "") != (c.Notify.Telegram.ChatID == "") {
		return fmt.Errorf("notify.telegram needs both bot_token and chat_id")
	}
	return nil
}

// Toast is how long a notice banner stays visible.
func (c *Config) Toast() time.Duration {
	return time.Duration(c.UI.ToastSeconds) * time.Second
}
