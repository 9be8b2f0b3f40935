/*
config.go - Application configuration

PURPOSE:
  One Config for the server and the CLI, loaded in layers where each
  layer overrides the previous one:

    1. Default() struct values
    2. Optional JSON file
    3. PEOPLEDEAR_* environment variables, "__" separating levels
       (PEOPLEDEAR_HTTP__ADDR -> http.addr)

  A .env file, when present, is read into the environment before step 3
  and never overrides variables that are already set. Unknown keys are
  errors so typos fail at startup.

SEE ALSO:
  - cmd/peopledear: binds --config and --env-file
*/
package config

import (
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/peopledear/peopledear/logging"
)

const EnvPrefix = "PEOPLEDEAR_"

type Config struct {
	Debug     bool            `koanf:"debug"`
	HTTP      HTTPConfig      `koanf:"http"`
	Database  DatabaseConfig  `koanf:"database"`
	Log       logging.Options `koanf:"log"`
	Mail      MailConfig      `koanf:"mail"`
	Scheduler SchedulerConfig `koanf:"scheduler"`
}

type HTTPConfig struct {
	Addr           string        `koanf:"addr" validate:"required"`
	AllowedOrigins []string      `koanf:"allowed_origins"`
	RateLimit      float64       `koanf:"rate_limit" validate:"gte=0"`
	RateBurst      int           `koanf:"rate_burst" validate:"gte=0"`
	ReadTimeout    time.Duration `koanf:"read_timeout" validate:"gte=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout" validate:"gte=0"`
}

// DatabaseConfig selects the store. Path is required for sqlite; use
// ":memory:" for a throwaway database.
type DatabaseConfig struct {
	Driver string `koanf:"driver" validate:"required,oneof=sqlite memory"`
	Path   string `koanf:"path" validate:"required_if=Driver sqlite"`
}

type MailConfig struct {
	Driver      string `koanf:"driver" validate:"required,oneof=log sendgrid none"`
	SendgridKey string `koanf:"sendgrid_key" validate:"required_if=Driver sendgrid"`
	FromEmail   string `koanf:"from_email" validate:"omitempty,email"`
	FromName    string `koanf:"from_name"`
}

// SchedulerConfig drives the yearly rollover job. RolloverSpec is a
// standard five-field cron expression.
type SchedulerConfig struct {
	Enabled      bool   `koanf:"enabled"`
	RolloverSpec string `koanf:"rollover_spec" validate:"required"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			AllowedOrigins: []string{"*"},
			RateLimit:      20,
			RateBurst:      40,
			ReadTimeout:    15 * time.Second,
			WriteTimeout:   15 * time.Second,
		},
		Database:  DatabaseConfig{Driver: "sqlite", Path: "peopledear.db"},
		Log:       logging.Options{Level: "info", Format: "text"},
		Mail:      MailConfig{Driver: "log", FromEmail: "no-reply@peopledear.app", FromName: "PeopleDear"},
		Scheduler: SchedulerConfig{Enabled: true, RolloverSpec: "0 0 1 1 *"},
	}
}

// Source names the optional inputs of Load. Empty paths are skipped.
type Source struct {
	File    string
	DotEnv  string
	Prefix  string
	Default *Config
}

// Load builds the configuration from src and validates it.
func Load(src Source) (Config, error) {
	defaults := Default()
	if src.Default != nil {
		defaults = *src.Default
	}
	prefix := src.Prefix
	if prefix == "" {
		prefix = EnvPrefix
	}

	k := koanf.New(".")
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return Config{}, errors.Wrap(err, "load defaults")
	}

	if src.File != "" {
		if err := k.Load(file.Provider(src.File), json.Parser()); err != nil {
			return Config{}, errors.Wrapf(err, "load config file %s", src.File)
		}
	}

	if src.DotEnv != "" {
		if err := godotenv.Load(src.DotEnv); err != nil && !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "load env file %s", src.DotEnv)
		}
	}

	if err := k.Load(env.Provider(prefix, ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, prefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return Config{}, errors.Wrap(err, "load environment")
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
			Result:           &cfg,
			TagName:          "koanf",
		},
	})
	if err != nil {
		return Config{}, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field rules and the rollover cron expression.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "invalid config")
	}
	if _, err := cron.ParseStandard(c.Scheduler.RolloverSpec); err != nil {
		return errors.Wrapf(err, "invalid scheduler.rollover_spec %q", c.Scheduler.RolloverSpec)
	}
	return nil
}
