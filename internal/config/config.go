package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	EnvPrefix              = "PIX"
	DefaultPort            = 8888
	DefaultPollingInterval = 10 * time.Second
	DefaultProviderBaseURL = "https://api.mercadopago.com"
)

var ErrMissingAccessToken = errors.New("missing provider access token: set PIX_MP_TOKEN or mp_token in the config file")

type Config struct {
	AccessToken     string        `mapstructure:"mp_token"`
	TunnelToken     string        `mapstructure:"ngrok_token"`
	TunnelPort      int           `mapstructure:"ngrok_port"`
	PollingInterval time.Duration `mapstructure:"polling_interval"`
	ProviderBaseURL string        `mapstructure:"provider_base_url"`
}

// Load reads PIX_* environment variables, optionally merged over a YAML
// file. Environment wins over the file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("mp_token", "")
	v.SetDefault("ngrok_token", "")
	v.SetDefault("ngrok_port", DefaultPort)
	v.SetDefault("polling_interval", DefaultPollingInterval)
	v.SetDefault("provider_base_url", DefaultProviderBaseURL)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate requires the access token only. Sandbox runs skip it.
func (c Config) Validate() error {
	if c.AccessToken == "" {
		return ErrMissingAccessToken
	}
	return nil
}
