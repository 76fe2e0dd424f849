package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	DB        DBConfig
	Redis     RedisConfig
	Geo       GeoConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
	Clicks    ClicksConfig
	Analytics AnalyticsConfig
}

type AppConfig struct {
	Port    string
	BaseURL string
	// FallbackURL - куда редиректить несуществующие коды.
	// Пустая строка означает JSON-ответ 404.
	FallbackURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

// GeoConfig - настройки определения геолокации по IP.
// Strategy: headers-only, headers-then-api или api-only.
type GeoConfig struct {
	Strategy      string
	Endpoint      string
	Timeout       time.Duration
	Required      bool
	CityHeader    string
	CountryHeader string
}

type AuthConfig struct {
	JWTSecret string
}

type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

type ClicksConfig struct {
	Workers    int
	BufferSize int
}

type AnalyticsConfig struct {
	// BatchSize - максимальный размер IN-фильтра по link_id за один запрос.
	BatchSize int
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Отсутствие .env не ошибка: конфиг может приходить целиком из окружения
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	var cfg Config
	cfg.App.Port = viper.GetString("APP_PORT")
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	cfg.App.BaseURL = viper.GetString("APP_BASE_URL")
	if cfg.App.BaseURL == "" {
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}
	cfg.App.FallbackURL = viper.GetString("APP_FALLBACK_URL")

	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	cfg.Geo.Strategy = viper.GetString("GEO_STRATEGY")
	if cfg.Geo.Strategy == "" {
		cfg.Geo.Strategy = "headers-then-api"
	}
	cfg.Geo.Endpoint = viper.GetString("GEO_API_URL")
	if cfg.Geo.Endpoint == "" {
		cfg.Geo.Endpoint = "https://ipapi.co"
	}
	timeoutMs := viper.GetInt("GEO_TIMEOUT_MS")
	if timeoutMs == 0 {
		timeoutMs = 2000
	}
	cfg.Geo.Timeout = time.Duration(timeoutMs) * time.Millisecond
	cfg.Geo.Required = viper.GetBool("GEO_REQUIRED")
	cfg.Geo.CityHeader = viper.GetString("GEO_CITY_HEADER")
	if cfg.Geo.CityHeader == "" {
		cfg.Geo.CityHeader = "X-Geo-City"
	}
	cfg.Geo.CountryHeader = viper.GetString("GEO_COUNTRY_HEADER")
	if cfg.Geo.CountryHeader == "" {
		cfg.Geo.CountryHeader = "X-Geo-Country"
	}

	cfg.Auth.JWTSecret = viper.GetString("AUTH_JWT_SECRET")

	cfg.RateLimit.RequestsPerSecond = viper.GetFloat64("RATE_LIMIT_RPS")
	if cfg.RateLimit.RequestsPerSecond == 0 {
		cfg.RateLimit.RequestsPerSecond = 10
	}
	cfg.RateLimit.BurstSize = viper.GetInt("RATE_LIMIT_BURST")
	if cfg.RateLimit.BurstSize == 0 {
		cfg.RateLimit.BurstSize = 20
	}

	cfg.Clicks.Workers = viper.GetInt("CLICK_WORKERS")
	if cfg.Clicks.Workers == 0 {
		cfg.Clicks.Workers = 3
	}
	cfg.Clicks.BufferSize = viper.GetInt("CLICK_BUFFER")
	if cfg.Clicks.BufferSize == 0 {
		cfg.Clicks.BufferSize = 1000
	}

	cfg.Analytics.BatchSize = viper.GetInt("ANALYTICS_BATCH_SIZE")
	if cfg.Analytics.BatchSize == 0 {
		cfg.Analytics.BatchSize = 30
	}

	return &cfg, nil
}
