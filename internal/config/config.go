package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env            string        `mapstructure:"ENV"`
	Port           string        `mapstructure:"PORT"`
	DatabaseURL    string        `mapstructure:"DATABASE_URL"`
	ReviewerKey    string        `mapstructure:"REVIEWER_KEY"`
	MapboxAPIKey   string        `mapstructure:"MAPBOX_API_KEY"`
	MapboxBaseURL  string        `mapstructure:"MAPBOX_BASE_URL"`
	ExtractorURL   string        `mapstructure:"EXTRACTOR_URL"`
	ExtractorModel string        `mapstructure:"EXTRACTOR_MODEL"`
	ExtractorKey   string        `mapstructure:"EXTRACTOR_API_KEY"`
	CORSAllowed    string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel       string        `mapstructure:"LOG_LEVEL"`
	TariffPath     string        `mapstructure:"TARIFF_PATH"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("MAPBOX_BASE_URL", "https://api.mapbox.com")
	v.SetDefault("EXTRACTOR_MODEL", "llama-3.1-8b-instant")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
