package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const defaultWeatherBaseURL = "https://api.openweathermap.org/data/2.5"

type Config struct {
	DBDSN         string
	ServerPort    string
	SessionSecret string

	AdminUsername string
	AdminPassword string

	WeatherAPIKey   string
	WeatherBaseURL  string
	WeatherTimeout  time.Duration
	WeatherCacheTTL time.Duration

	RedisAddr string
	AMQPURL   string

	LogLevel  string
	LogFormat string
}

// Load читает .env (если есть) и переменные окружения.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv собирает конфиг только из окружения, без .env.
func FromEnv() (*Config, error) {
	cfg := &Config{
		DBDSN:          os.Getenv("DB_DSN"),
		ServerPort:     os.Getenv("SERVER_PORT"),
		SessionSecret:  os.Getenv("SESSION_SECRET"),
		AdminUsername:  os.Getenv("ADMIN_USERNAME"),
		AdminPassword:  os.Getenv("ADMIN_PASSWORD"),
		WeatherAPIKey:  os.Getenv("WEATHER_API_KEY"),
		WeatherBaseURL: os.Getenv("WEATHER_BASE_URL"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
		AMQPURL:        os.Getenv("AMQP_URL"),
		LogLevel:       os.Getenv("LOG_LEVEL"),
		LogFormat:      os.Getenv("LOG_FORMAT"),
	}

	if cfg.DBDSN == "" {
		return nil, errors.New("DB_DSN is not set")
	}
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "admin@buildops.local"
	}
	if cfg.AdminPassword == "" {
		cfg.AdminPassword = "Admin123!"
	}
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = defaultWeatherBaseURL
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}

	var err error
	if cfg.WeatherTimeout, err = durationEnv("WEATHER_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.WeatherCacheTTL, err = durationEnv("WEATHER_CACHE_TTL", 30*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateServer: настройки, без которых не поднять HTTP-сервер.
// CLI сессиями не пользуется и эту проверку не вызывает.
func (c *Config) ValidateServer() error {
	if c.SessionSecret == "" {
		return errors.New("SESSION_SECRET is not set")
	}
	return nil
}

// WeatherEnabled: без ключа API погодный анализ выключен.
func (c *Config) WeatherEnabled() bool {
	return c.WeatherAPIKey != ""
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}
