package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config groups the application configuration (read via Viper from env vars
// and optionally from a .env file; env vars win).
type Config struct {
	App    AppConfig
	HTTP   HTTPConfig
	Source SourceConfig
}

// AppConfig general application settings.
type AppConfig struct {
	Env  string // development, staging, production
	Name string
}

// HTTPConfig settings for the HTTP server.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SourceConfig settings for the RemOnline source API and its login service.
type SourceConfig struct {
	BaseURL         string // RemOnline web base, e.g. https://web.roapp.io
	LoginServiceURL string // login service that trades credentials for a cookie string
	Username        string
	Password        string
	PageSize        int // full page size the source serves; a shorter page ends pagination
	MaxPages        int // hard safety ceiling per fetch
	SessionTTLMin   int // minutes a cached session cookie is trusted
	DirectoryTTLMin int // minutes the employee directory cache is trusted
}

// Load reads the configuration from environment variables (and optionally a
// .env / config.env file). Expected names: APP_ENV, HTTP_PORT, REMONLINE_BASE_URL, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Optional config file (.env or config.env); missing file is not an error.
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig()

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:  getString(v, "APP_ENV", "development"),
			Name: getString(v, "APP_NAME", "stockhistory-api"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 8080),
		},
		Source: SourceConfig{
			BaseURL:         getString(v, "REMONLINE_BASE_URL", "https://web.roapp.io"),
			LoginServiceURL: getString(v, "LOGIN_SERVICE_URL", "http://localhost:3000"),
			Username:        getString(v, "REMONLINE_USERNAME", ""),
			Password:        getString(v, "REMONLINE_PASSWORD", ""),
			PageSize:        getInt(v, "SOURCE_PAGE_SIZE", 50),
			MaxPages:        getInt(v, "SOURCE_MAX_PAGES", 200),
			SessionTTLMin:   getInt(v, "SESSION_TTL_MINUTES", 25),
			DirectoryTTLMin: getInt(v, "DIRECTORY_TTL_MINUTES", 60),
		},
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, _ := strconv.Atoi(v.GetString(key))
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}
