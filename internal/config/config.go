package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

var (
	instance *Config
	mu       sync.RWMutex
)

// Config is the full configuration surface of the tool.
type Config struct {
	Input     InputConfig     `mapstructure:"input"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	WhatsApp  WhatsAppConfig  `mapstructure:"whatsapp"`
	Log       LogConfig       `mapstructure:"log"`
}

// InputConfig locates the form-responses export. Path may also come
// from the --input flag, so it is checked at the call site rather than
// here.
type InputConfig struct {
	Path string `mapstructure:"path"`
	// PhoneColumn is the zero-based column holding the phone number.
	PhoneColumn int `mapstructure:"phone_column" validate:"min=0"`
}

// BatchConfig controls batch sizing and pacing.
type BatchConfig struct {
	Size             int           `mapstructure:"size" validate:"min=1"`
	Start            int           `mapstructure:"start" validate:"min=1"`
	InterActionDelay time.Duration `mapstructure:"inter_action_delay" validate:"min=0"`
	InterBatchDelay  time.Duration `mapstructure:"inter_batch_delay" validate:"min=0"`
	Deduplicate      bool          `mapstructure:"deduplicate"`
}

// RewriteRule maps a local trunk prefix to its country code.
type RewriteRule struct {
	TrunkPrefix string `mapstructure:"trunk_prefix" validate:"required,number"`
	CountryCode string `mapstructure:"country_code" validate:"required,startswith=+"`
}

// NormalizeConfig controls the phone canonicalization rules.
type NormalizeConfig struct {
	MinDigits int           `mapstructure:"min_digits" validate:"min=1"`
	MaxDigits int           `mapstructure:"max_digits" validate:"gtefield=MinDigits"`
	Rules     []RewriteRule `mapstructure:"rules" validate:"min=1,dive"`
}

// WhatsAppConfig controls the browser session.
type WhatsAppConfig struct {
	URL               string        `mapstructure:"url" validate:"required,url"`
	SearchBoxSelector string        `mapstructure:"search_box_selector" validate:"required"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" validate:"gt=0"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
}

// Get returns the loaded configuration. Load must have succeeded first.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return instance
}

// Load reads configuration from an optional YAML file, environment
// variables, and defaults, then validates the result.
func Load(configPath string) error {
	mu.Lock()
	defer mu.Unlock()

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	instance = cfg
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("input.phone_column", 3)

	// 25 per batch with seconds-scale pacing keeps within WhatsApp's
	// tolerance for bulk additions.
	v.SetDefault("batch.size", 25)
	v.SetDefault("batch.start", 1)
	v.SetDefault("batch.inter_action_delay", "2s")
	v.SetDefault("batch.inter_batch_delay", "15s")
	v.SetDefault("batch.deduplicate", false)

	v.SetDefault("normalize.min_digits", 9)
	v.SetDefault("normalize.max_digits", 15)
	v.SetDefault("normalize.rules", []map[string]any{
		{"trunk_prefix": "0", "country_code": "+62"},
	})

	v.SetDefault("whatsapp.url", "https://web.whatsapp.com")
	v.SetDefault("whatsapp.search_box_selector", `div[contenteditable="true"][data-tab="3"]`)
	v.SetDefault("whatsapp.action_timeout", "30s")

	v.SetDefault("log.level", "info")
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("input.path", "WAFORM_INPUT_PATH")
	v.BindEnv("input.phone_column", "WAFORM_INPUT_PHONE_COLUMN")

	v.BindEnv("batch.size", "WAFORM_BATCH_SIZE")
	v.BindEnv("batch.start", "WAFORM_BATCH_START")
	v.BindEnv("batch.inter_action_delay", "WAFORM_BATCH_INTER_ACTION_DELAY")
	v.BindEnv("batch.inter_batch_delay", "WAFORM_BATCH_INTER_BATCH_DELAY")
	v.BindEnv("batch.deduplicate", "WAFORM_BATCH_DEDUPLICATE")

	v.BindEnv("normalize.min_digits", "WAFORM_NORMALIZE_MIN_DIGITS")
	v.BindEnv("normalize.max_digits", "WAFORM_NORMALIZE_MAX_DIGITS")

	v.BindEnv("whatsapp.url", "WAFORM_WHATSAPP_URL")
	v.BindEnv("whatsapp.search_box_selector", "WAFORM_WHATSAPP_SEARCH_BOX_SELECTOR")
	v.BindEnv("whatsapp.action_timeout", "WAFORM_WHATSAPP_ACTION_TIMEOUT")

	v.BindEnv("log.level", "WAFORM_LOG_LEVEL")
}
