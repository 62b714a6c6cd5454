package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Services ServicesConfig `mapstructure:"services"`
	Webhooks WebhooksConfig `mapstructure:"webhooks"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	APIPrefix    string        `mapstructure:"api_prefix"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type AuthConfig struct {
	IssuerURL      string        `mapstructure:"issuer_url"`
	Realm          string        `mapstructure:"realm"`
	Audience       string        `mapstructure:"audience"`
	JWKSRefresh    time.Duration `mapstructure:"jwks_refresh"`
	JWKSFetchLimit time.Duration `mapstructure:"jwks_fetch_limit"`
}

// Issuer returns the token issuer URL. A realm suffix is appended
// Keycloak-style when a realm is configured.
func (c AuthConfig) Issuer() string {
	if c.Realm == "" {
		return c.IssuerURL
	}
	return fmt.Sprintf("%s/realms/%s", c.IssuerURL, c.Realm)
}

// JWKSURL returns the well-known signing key endpoint for the issuer.
func (c AuthConfig) JWKSURL() string {
	return c.Issuer() + "/protocol/openid-connect/certs"
}

type ServicesConfig struct {
	FallbackToMock bool           `mapstructure:"fallback_to_mock"`
	N8N            UpstreamConfig `mapstructure:"n8n"`
	Intelligence   UpstreamConfig `mapstructure:"intelligence"`
	NDVIWorker     UpstreamConfig `mapstructure:"ndvi_worker"`
	Email          UpstreamConfig `mapstructure:"email"`
	Odoo           UpstreamConfig `mapstructure:"odoo"`
	ROS2Bridge     UpstreamConfig `mapstructure:"ros2_bridge"`
	Orion          UpstreamConfig `mapstructure:"orion"`
	ContextURL     string         `mapstructure:"context_url"`
}

type UpstreamConfig struct {
	URL          string        `mapstructure:"url"`
	APIKey       string        `mapstructure:"api_key"`
	APIKeyHeader string        `mapstructure:"api_key_header"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

type WebhooksConfig struct {
	Store           string        `mapstructure:"store"` // memory | sqlite
	SQLitePath      string        `mapstructure:"sqlite_path"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	ResponsePreview int           `mapstructure:"response_preview"`
	InboundSecret   string        `mapstructure:"inbound_secret"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	MaxAge         int      `mapstructure:"max_age"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.api_prefix", "/api/hub")
	viper.SetDefault("auth.jwks_refresh", time.Hour)
	viper.SetDefault("auth.jwks_fetch_limit", time.Minute)
	viper.SetDefault("webhooks.store", "memory")
	viper.SetDefault("webhooks.delivery_timeout", 10*time.Second)
	viper.SetDefault("webhooks.response_preview", 500)
	viper.SetDefault("services.n8n.timeout", 30*time.Second)
	viper.SetDefault("services.intelligence.timeout", 30*time.Second)
	viper.SetDefault("services.ndvi_worker.timeout", 60*time.Second)
	viper.SetDefault("services.email.timeout", 30*time.Second)
	viper.SetDefault("services.odoo.timeout", 30*time.Second)
	viper.SetDefault("services.ros2_bridge.timeout", 30*time.Second)
	viper.SetDefault("services.orion.timeout", 30*time.Second)
}
