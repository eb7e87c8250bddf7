package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port         string   `mapstructure:"PORT"`
	Env          string   `mapstructure:"ENV"`
	JWTSecret    string   `mapstructure:"JWT_SECRET"`
	HFAPIKey     string   `mapstructure:"HF_API_KEY"`
	HFModel      string   `mapstructure:"HF_MODEL"`
	HFBaseURL    string   `mapstructure:"HF_BASE_URL"`
	DataDir      string   `mapstructure:"DATA_DIR"`
	UploadDir    string   `mapstructure:"UPLOAD_DIR"`
	MaxFileSize  int64    `mapstructure:"MAX_FILE_SIZE"`
	LoadDemoData bool     `mapstructure:"LOAD_DEMO_DATA"`
	CORSOrigins  []string `mapstructure:"CORS_ORIGINS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("HF_MODEL", "mistralai/Mistral-7B-Instruct-v0.2")
	v.SetDefault("HF_BASE_URL", "https://api-inference.huggingface.co")
	v.SetDefault("DATA_DIR", "./data")
	v.SetDefault("UPLOAD_DIR", "./uploads")
	v.SetDefault("MAX_FILE_SIZE", 10485760)
	v.SetDefault("LOAD_DEMO_DATA", false)
	v.SetDefault("CORS_ORIGINS", "http://localhost:5173")

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("HF_API_KEY")
	v.BindEnv("HF_MODEL")
	v.BindEnv("HF_BASE_URL")
	v.BindEnv("DATA_DIR")
	v.BindEnv("UPLOAD_DIR")
	v.BindEnv("MAX_FILE_SIZE")
	v.BindEnv("LOAD_DEMO_DATA")
	v.BindEnv("CORS_ORIGINS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Validate checks that the configuration is safe to run. Outside development
// a JWT secret must be set so that issued tokens cannot be forged.
func (c *Config) Validate() error {
	if !c.IsDev() && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required when ENV=%q", c.Env)
	}
	if c.MaxFileSize <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE must be positive, got %d", c.MaxFileSize)
	}
	return nil
}
