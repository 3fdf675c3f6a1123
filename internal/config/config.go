package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is Marquee's runtime configuration.
type Config struct {
	APIKey            string        `toml:"api_key" validate:"required"`
	APIURL            string        `toml:"api_url" validate:"required,url"`
	FilterMode        string        `toml:"filter_mode" validate:"oneof=remote local"`
	SeedQuery         string        `toml:"seed_query" validate:"required_if=FilterMode local"`
	Debounce          time.Duration `toml:"debounce" validate:"gte=0"`
	RequestTimeout    time.Duration `toml:"request_timeout" validate:"gte=0"`
	RequestsPerSecond float64       `toml:"requests_per_second" validate:"gte=0"`
	Cache             CacheConfig   `toml:"cache"`
	Log               LogConfig     `toml:"log"`
}

// CacheConfig selects and tunes the result cache backend.
type CacheConfig struct {
	Backend string        `toml:"backend" validate:"oneof=off memory sqlite"`
	TTL     time.Duration `toml:"ttl" validate:"gte=0"`
	Path    string        `toml:"path" validate:"required_if=Backend sqlite"`
}

// LogConfig controls the application log file.
type LogConfig struct {
	Level  string `toml:"level" validate:"oneof=trace debug info warn error"`
	Format string `toml:"format" validate:"oneof=json console"`
	File   string `toml:"file" validate:"required"`
}

// EnvAPIKey overrides api_key when set.
const EnvAPIKey = "MARQUEE_API_KEY"

const (
	defaultConfigPath = "~/.config/marquee/config.toml"
	defaultAPIURL     = "https://www.omdbapi.com/"
	defaultFilterMode = "remote"
	defaultSeedQuery  = "movie"
	defaultCacheTTL   = 10 * time.Minute
	defaultCachePath  = "~/.local/share/marquee/cache.db"
	defaultLogLevel   = "info"
	defaultLogFormat  = "json"
	defaultLogFile    = "~/.local/state/marquee/marquee.log"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:     defaultAPIURL,
		FilterMode: defaultFilterMode,
		SeedQuery:  defaultSeedQuery,
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     defaultCacheTTL,
			Path:    mustExpand(defaultCachePath),
		},
		Log: LogConfig{
			Level:  defaultLogLevel,
			Format: defaultLogFormat,
			File:   mustExpand(defaultLogFile),
		},
	}
}

type rawConfig struct {
	APIKey            string   `toml:"api_key"`
	APIURL            string   `toml:"api_url"`
	FilterMode        string   `toml:"filter_mode"`
	SeedQuery         string   `toml:"seed_query"`
	Debounce          string   `toml:"debounce"`
	RequestTimeout    string   `toml:"request_timeout"`
	RequestsPerSecond *float64 `toml:"requests_per_second"`
	Cache             struct {
		Backend string `toml:"backend"`
		TTL     string `toml:"ttl"`
		Path    string `toml:"path"`
	} `toml:"cache"`
	Log struct {
		Level  string `toml:"level"`
		Format string `toml:"format"`
		File   string `toml:"file"`
	} `toml:"log"`
}

// Load reads the config at path (the default location when blank), falling
// back to defaults when the file is missing. Load does not validate; call
// Validate before using the result.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		applyEnv(&cfg)
		return cfg, nil
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := apply(&cfg, raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

func apply(cfg *Config, raw rawConfig) error {
	setString(&cfg.APIKey, raw.APIKey)
	setString(&cfg.APIURL, raw.APIURL)
	setString(&cfg.FilterMode, strings.ToLower(raw.FilterMode))
	setString(&cfg.SeedQuery, raw.SeedQuery)
	if raw.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *raw.RequestsPerSecond
	}
	if err := setDuration(&cfg.Debounce, "debounce", raw.Debounce); err != nil {
		return err
	}
	if err := setDuration(&cfg.RequestTimeout, "request_timeout", raw.RequestTimeout); err != nil {
		return err
	}

	setString(&cfg.Cache.Backend, strings.ToLower(raw.Cache.Backend))
	if err := setDuration(&cfg.Cache.TTL, "cache.ttl", raw.Cache.TTL); err != nil {
		return err
	}
	if p := strings.TrimSpace(raw.Cache.Path); p != "" {
		cfg.Cache.Path = mustExpand(p)
	}

	setString(&cfg.Log.Level, strings.ToLower(raw.Log.Level))
	setString(&cfg.Log.Format, strings.ToLower(raw.Log.Format))
	if p := strings.TrimSpace(raw.Log.File); p != "" {
		cfg.Log.File = mustExpand(p)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if key := strings.TrimSpace(os.Getenv(EnvAPIKey)); key != "" {
		cfg.APIKey = key
	}
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, name, value string) error {
	v := strings.TrimSpace(value)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}

// Validate checks the configuration and reports every invalid field as
// "config: <field>: <rule>".
func (c Config) Validate() error {
	err := newValidator().Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("config: %w", err)
	}
	errs := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		errs = append(errs, fmt.Errorf("config: %s: %s", fieldPath(fe), rule(fe)))
	}
	return errors.Join(errs...)
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("toml"), ",")
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	return v
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func rule(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
