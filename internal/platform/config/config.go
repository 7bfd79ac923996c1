package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Uploads  UploadsConfig  `mapstructure:"uploads"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Invites  InvitesConfig  `mapstructure:"invites"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	URL            string `mapstructure:"url"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// StorageConfig addresses the object store. DefaultBucket is the shared
// bucket for prefix-isolated organizations; dedicated-bucket organizations
// carry their own bucket name on the org record.
type StorageConfig struct {
	Region          string        `mapstructure:"region"`
	BaseEndpoint    string        `mapstructure:"base_endpoint"`
	AccessKeyID     string        `mapstructure:"access_key_id"`
	SecretAccessKey string        `mapstructure:"secret_access_key"`
	DefaultBucket   string        `mapstructure:"default_bucket"`
	PresignTTL      time.Duration `mapstructure:"presign_ttl"`
}

type UploadsConfig struct {
	PartSizeBytes int64 `mapstructure:"part_size_bytes"`
	MaxParts      int   `mapstructure:"max_parts"`
}

type BillingConfig struct {
	WebhookSecret string `mapstructure:"webhook_secret"`
}

type InvitesConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
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

	viper.SetDefault("uploads.part_size_bytes", 5*1024*1024)
	viper.SetDefault("uploads.max_parts", 10000)
	viper.SetDefault("storage.presign_ttl", time.Hour)
	viper.SetDefault("invites.ttl", 7*24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
