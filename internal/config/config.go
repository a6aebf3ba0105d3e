package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"meal-rotation/internal/planner/tuning"

	"github.com/spf13/viper"
)

// ErrNotSet is returned when a setting a feature depends on is empty.
var ErrNotSet = errors.New("environment variable not set")

const (
	ProviderGemini = "gemini"
	ProviderGroq   = "groq"
)

// Config holds the configuration for the application.
type Config struct {
	GhostURL        string `mapstructure:"ghost_api_url"`
	GhostContentKey string `mapstructure:"ghost_content_api_key"`
	GhostAdminKey   string `mapstructure:"ghost_admin_api_key"`

	LLMProvider  string `mapstructure:"llm_provider"`
	GeminiAPIKey string `mapstructure:"gemini_api_key"`
	GeminiModel  string `mapstructure:"gemini_model"`
	GroqAPIKey   string `mapstructure:"groq_api_key"`
	GroqModel    string `mapstructure:"groq_model"`

	// Telegram Config
	TelegramBotToken       string  `mapstructure:"telegram_bot_token"`
	TelegramWebhookURL     string  `mapstructure:"telegram_webhook_url"`
	TelegramAllowedUserIDs []int64 `mapstructure:"-"`
	AdminTelegramID        int64   `mapstructure:"admin_telegram_id"`
	Port                   string  `mapstructure:"port"`

	DatabasePath string `mapstructure:"database_path"`
	BackupPath   string `mapstructure:"backup_path"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	Debug     bool   `mapstructure:"debug"`

	PantryStaples []string      `mapstructure:"-"`
	Planner       tuning.Tuning `mapstructure:"planner"`
}

// NewFromEnv creates a new Config object from environment variables and an
// optional mealplanner.yaml. Environment variables win over the file.
func NewFromEnv() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("mealplanner")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	allowed, err := parseIDs(stringList(v, "telegram_allow_user_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEGRAM_ALLOW_USER_IDS: %w", err)
	}
	cfg.TelegramAllowedUserIDs = allowed
	cfg.PantryStaples = stringList(v, "pantry_staples")

	if len(cfg.Planner.Penalties) == 0 {
		cfg.Planner.Penalties = tuning.DefaultPenalties()
	}
	if cfg.GhostAdminKey == "" {
		// Fallback to content key if only one is provided
		cfg.GhostAdminKey = cfg.GhostContentKey
	}
	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("config_file", "")

	v.SetDefault("ghost_api_url", "")
	v.SetDefault("ghost_content_api_key", "")
	v.SetDefault("ghost_admin_api_key", "")

	v.SetDefault("llm_provider", ProviderGroq)
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.0-flash")
	v.SetDefault("groq_api_key", "")
	v.SetDefault("groq_model", "llama-3.3-70b-versatile")

	v.SetDefault("telegram_bot_token", "")
	v.SetDefault("telegram_webhook_url", "")
	v.SetDefault("telegram_allow_user_ids", "")
	v.SetDefault("admin_telegram_id", 0)
	v.SetDefault("port", "8080")

	v.SetDefault("database_path", "data/meal-rotation.db")
	v.SetDefault("backup_path", "data/backups")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
	v.SetDefault("debug", false)

	v.SetDefault("pantry_staples", "")

	d := tuning.Default()
	v.SetDefault("planner.window_days", d.WindowDays)
	v.SetDefault("planner.neutral_rating", d.NeutralRating)
	v.SetDefault("planner.never_eaten_days", d.NeverEatenDays)
	v.SetDefault("planner.recency_cap", d.RecencyCap)
	v.SetDefault("planner.quality_weight", d.QualityWeight)
	v.SetDefault("planner.recency_weight", d.RecencyWeight)
	v.SetDefault("planner.max_jitter", d.MaxJitter)
}

// Validate checks settings every command depends on.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH %w", ErrNotSet)
	}
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("log_format must be json or console, got %q", c.LogFormat)
	}
	switch c.LLMProvider {
	case ProviderGemini, ProviderGroq:
	default:
		return fmt.Errorf("llm_provider must be %s or %s, got %q", ProviderGemini, ProviderGroq, c.LLMProvider)
	}
	return c.Planner.Validate()
}

// RequireLLM checks the key of the configured LLM provider.
func (c *Config) RequireLLM() error {
	switch c.LLMProvider {
	case ProviderGemini:
		return required("GEMINI_API_KEY", c.GeminiAPIKey)
	default:
		return required("GROQ_API_KEY", c.GroqAPIKey)
	}
}

// RequireGhost checks the Ghost blog settings.
func (c *Config) RequireGhost() error {
	if err := required("GHOST_API_URL", c.GhostURL); err != nil {
		return err
	}
	return required("GHOST_CONTENT_API_KEY", c.GhostContentKey)
}

// RequireTelegram checks the bot settings.
func (c *Config) RequireTelegram() error {
	if err := required("TELEGRAM_BOT_TOKEN", c.TelegramBotToken); err != nil {
		return err
	}
	if err := required("TELEGRAM_WEBHOOK_URL", c.TelegramWebhookURL); err != nil {
		return err
	}
	if len(c.TelegramAllowedUserIDs) == 0 {
		return fmt.Errorf("TELEGRAM_ALLOW_USER_IDS %w", ErrNotSet)
	}
	return nil
}

func required(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s %w", name, ErrNotSet)
	}
	return nil
}

// stringList reads a comma separated env value or a YAML list.
func stringList(v *viper.Viper, key string) []string {
	if s, ok := v.Get(key).(string); ok {
		var out []string
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out
	}
	return v.GetStringSlice(key)
}

func parseIDs(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, s := range values {
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
