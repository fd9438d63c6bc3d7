package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Port            int           `mapstructure:"port" validate:"min=1,max=65535"`
	Bind            string        `mapstructure:"bind" validate:"required"`
	DataDir         string        `mapstructure:"data_dir" validate:"required"`
	MaxUploadSizeMB int           `mapstructure:"max_upload_size_mb" validate:"min=1"`
	DefaultQuality  int           `mapstructure:"default_quality" validate:"min=10,max=100"`
	DownloadTTL     time.Duration `mapstructure:"download_ttl" validate:"min=1m"`
	Engine          EngineConfig  `mapstructure:"engine"`
	Log             LogConfig     `mapstructure:"log"`
}

type EngineConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required"`
	RuntimeName string        `mapstructure:"runtime_name" validate:"required"`
	PayloadName string        `mapstructure:"payload_name" validate:"required"`
	CacheDir    string        `mapstructure:"cache_dir"`
	AutoLoad    bool          `mapstructure:"auto_load"`
	LoadTimeout time.Duration `mapstructure:"load_timeout" validate:"min=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	File   string `mapstructure:"file"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 7890)
	v.SetDefault("bind", "127.0.0.1")
	v.SetDefault("data_dir", "./data")
	v.SetDefault("max_upload_size_mb", 500)
	v.SetDefault("default_quality", 80)
	v.SetDefault("download_ttl", "1h")
	v.SetDefault("engine.base_url", "file:///usr/bin")
	v.SetDefault("engine.runtime_name", "ffmpeg")
	v.SetDefault("engine.payload_name", "ffprobe")
	v.SetDefault("engine.cache_dir", "")
	v.SetDefault("engine.auto_load", true)
	v.SetDefault("engine.load_timeout", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Load reads configuration from the environment (SOBERANO_ prefix) and,
// when path is non-empty, from that file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SOBERANO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Engine.CacheDir == "" {
		cfg.Engine.CacheDir = strings.TrimRight(cfg.DataDir, "/") + "/engine"
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}
