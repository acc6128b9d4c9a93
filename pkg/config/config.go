package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Weather  WeatherConfig
	Map      MapConfig
	Push     PushConfig
	CORS     CORSConfig
	Log      LogConfig
	Cache    CacheConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig carries the access- and refresh-token lifetimes. The secret,
// issuer and audience are validated by the token issuer at startup.
type JWTConfig struct {
	Secret        string
	Issuer        string
	Audience      string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// WeatherConfig points at the OpenWeatherMap API.
type WeatherConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// MapConfig points at the LocationIQ static map API.
type MapConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// PushConfig carries the VAPID key pair for web push delivery.
type PushConfig struct {
	Subject    string
	PublicKey  string
	PrivateKey string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig tunes Redis caching of upstream weather responses.
// Token state is never cached.
type CacheConfig struct {
	Enabled    bool
	WeatherTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:        v.GetString("JWT_SECRET"),
		Issuer:        v.GetString("JWT_ISSUER"),
		Audience:      v.GetString("JWT_AUDIENCE"),
		AccessExpiry:  parseDuration(v.GetString("JWT_EXPIRATION"), 30*time.Minute),
		RefreshExpiry: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.Weather = WeatherConfig{
		BaseURL: v.GetString("OPENWEATHERMAP_BASE_URL"),
		APIKey:  v.GetString("OPENWEATHERMAP_API_KEY"),
		Timeout: parseDuration(v.GetString("OPENWEATHERMAP_TIMEOUT"), 10*time.Second),
	}

	cfg.Map = MapConfig{
		BaseURL: v.GetString("LOCATIONIQ_BASE_URL"),
		APIKey:  v.GetString("LOCATIONIQ_API_KEY"),
		Timeout: parseDuration(v.GetString("LOCATIONIQ_TIMEOUT"), 10*time.Second),
	}

	cfg.Push = PushConfig{
		Subject:    v.GetString("VAPID_SUBJECT"),
		PublicKey:  v.GetString("VAPID_PUBLIC_KEY"),
		PrivateKey: v.GetString("VAPID_PRIVATE_KEY"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_WEATHER_CACHE"),
		WeatherTTL: parseDuration(v.GetString("WEATHER_CACHE_TTL"), 10*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "weatherwise")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("JWT_AUDIENCE", "")
	v.SetDefault("JWT_EXPIRATION", "30m")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("OPENWEATHERMAP_BASE_URL", "https://api.openweathermap.org")
	v.SetDefault("OPENWEATHERMAP_API_KEY", "")
	v.SetDefault("OPENWEATHERMAP_TIMEOUT", "10s")

	v.SetDefault("LOCATIONIQ_BASE_URL", "https://maps.locationiq.com")
	v.SetDefault("LOCATIONIQ_API_KEY", "")
	v.SetDefault("LOCATIONIQ_TIMEOUT", "10s")

	v.SetDefault("VAPID_SUBJECT", "")
	v.SetDefault("VAPID_PUBLIC_KEY", "")
	v.SetDefault("VAPID_PRIVATE_KEY", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_WEATHER_CACHE", true)
	v.SetDefault("WEATHER_CACHE_TTL", "10m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
