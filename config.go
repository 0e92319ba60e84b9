package main

import (
	"github.com/spf13/viper"
)

// Config carries everything tunable from the environment. The match
// threshold and component weight look like magic numbers but are product
// rules, so they live here instead of being hard-coded at call sites.
type Config struct {
	Port        string `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`
	JWTSecret   string `mapstructure:"jwt_secret"`
	AdminEmail  string `mapstructure:"admin_email"`
	UploadDir   string `mapstructure:"upload_dir"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`

	// Score needed before full profile details and messaging unlock.
	MatchThreshold int `mapstructure:"match_threshold"`
	// Points each of the five score components contributes at a perfect match.
	ComponentWeight int `mapstructure:"component_weight"`

	MessageHistoryLimit int `mapstructure:"message_history_limit"`
	MaxMessageLen       int `mapstructure:"max_message_len"`
}

func loadConfig() (*Config, error) {
	v := viper.New()

	v.SetDefault("port", "8080")
	v.SetDefault("database_url", "user=admin password=password dbname=matrimonydb sslmode=disable")
	v.SetDefault("jwt_secret", "your_secret_key_please_change_in_production")
	v.SetDefault("admin_email", "admin@matrimony.local")
	v.SetDefault("upload_dir", "./uploads")
	v.SetDefault("max_upload_mb", 15)
	v.SetDefault("match_threshold", 90)
	v.SetDefault("component_weight", 20)
	v.SetDefault("message_history_limit", 200)
	v.SetDefault("max_message_len", 2000)

	v.AutomaticEnv()
	// Also pick up a local config file when present (optional).
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
