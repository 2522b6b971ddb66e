package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/dgallion1/docloc/internal/locale"
	"github.com/dgallion1/docloc/internal/rewrite"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by docloc.
const EnvPrefix = "DOCLOC"

type Config struct {
	// Source and destination trees
	SrcDir string `mapstructure:"src_dir"`
	DstDir string `mapstructure:"dst_dir"`
	WWWDir string `mapstructure:"www_dir"`

	// Locales to build; empty means every discovered locale
	Locales []string `mapstructure:"locales"`

	// Existing destination files
	Replace string   `mapstructure:"replace"`
	Exclude []string `mapstructure:"exclude"`

	// Logging
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Preview server
	Addr     string `mapstructure:"addr"`
	ServeDir string `mapstructure:"serve_dir"`

	// YAML job report, written when set
	Report string `mapstructure:"report"`
}

// SetDefaults registers the default of every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("src_dir", "doc")
	v.SetDefault("dst_dir", "build")
	v.SetDefault("www_dir", "www")
	v.SetDefault("locales", []string{})
	v.SetDefault("replace", string(rewrite.PolicyAsk))
	v.SetDefault("exclude", []string{})
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("addr", ":8090")
	v.SetDefault("serve_dir", "build")
	v.SetDefault("report", "")
}

// ReadFile reads the optional YAML configuration file and enables DOCLOC_
// environment variables. An empty file name only enables the environment.
func ReadFile(v *viper.Viper, file string) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if file == "" {
		return nil
	}
	v.SetConfigFile(file)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return fmt.Errorf("configuration file %s not found", file)
		}
		return fmt.Errorf("invalid configuration file: %w", err)
	}
	return nil
}

// Load builds a Config from v. Blank values fall back to their defaults.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode configuration: %w", err)
	}

	cfg.Locales = splitList(cfg.Locales)
	cfg.Exclude = splitList(cfg.Exclude)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	if cfg.Replace == "" {
		cfg.Replace = string(rewrite.PolicyAsk)
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.Addr == "" {
		cfg.Addr = ":8090"
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if _, err := rewrite.ParsePolicy(c.Replace); err != nil {
		return err
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.LogFormat)
	}
	for _, loc := range c.Locales {
		if !locale.IsCode(loc) {
			return fmt.Errorf("invalid locale %q", loc)
		}
	}
	return nil
}

// Policy returns the validated replace policy.
func (c Config) Policy() rewrite.Policy {
	p, err := rewrite.ParsePolicy(c.Replace)
	if err != nil {
		return rewrite.PolicyAsk
	}
	return p
}

// Logger returns the logger the configuration asks for, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

// splitList accepts both repeated values and comma separated ones, as
// environment variables only carry a single string.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
