package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env             string        `mapstructure:"ENV"`
	Port            string        `mapstructure:"PORT"`
	DatabaseURL     string        `mapstructure:"DATABASE_URL"`
	AdminKey        string        `mapstructure:"ADMIN_KEY"`
	CORSAllowed     string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout  time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel        string        `mapstructure:"LOG_LEVEL"`
	MaxUploadSizeMB int64         `mapstructure:"MAX_UPLOAD_MB"`

	DefaultLLMProvider string `mapstructure:"DEFAULT_LLM_PROVIDER"`
	GeminiAPIKey       string `mapstructure:"GEMINI_API_KEY"`
	OpenAIAPIKey       string `mapstructure:"OPENAI_API_KEY"`
	AnthropicAPIKey    string `mapstructure:"ANTHROPIC_API_KEY"`
	GeminiModel        string `mapstructure:"GEMINI_MODEL"`
	OpenAIModel        string `mapstructure:"OPENAI_MODEL"`
	AnthropicModel     string `mapstructure:"ANTHROPIC_MODEL"`
	OpenAIBaseURL      string `mapstructure:"OPENAI_BASE_URL"`
	AnthropicBaseURL   string `mapstructure:"ANTHROPIC_BASE_URL"`

	JobTTL                  time.Duration `mapstructure:"JOB_TTL"`
	ComplexCommentThreshold int           `mapstructure:"COMPLEX_COMMENT_THRESHOLD"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")
	v.SetDefault("MAX_UPLOAD_MB", 10)
	v.SetDefault("DEFAULT_LLM_PROVIDER", "mock")
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4o-mini")
	v.SetDefault("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest")
	v.SetDefault("OPENAI_BASE_URL", "https://api.openai.com/v1")
	v.SetDefault("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1")
	v.SetDefault("JOB_TTL", "1h")
	v.SetDefault("COMPLEX_COMMENT_THRESHOLD", 5)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
