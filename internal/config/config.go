package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type App struct {
	Env             string `mapstructure:"env"`
	Port            int    `mapstructure:"port"`
	ShutdownSeconds int    `mapstructure:"shutdown_seconds"`
}

func (a *App) PortString() string { return fmt.Sprintf("%d", a.Port) }

type Mongo struct {
	URI      string `mapstructure:"uri"`
	DB       string `mapstructure:"db"`
	Users    string `mapstructure:"users_collection"`
	Messages string `mapstructure:"messages_collection"`
}

type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type Kafka struct {
	Brokers       []string `mapstructure:"brokers"`
	MessageTopic  string   `mapstructure:"message_topic"`
	PresenceTopic string   `mapstructure:"presence_topic"`
}

type S3 struct {
	Region     string `mapstructure:"region"`
	Bucket     string `mapstructure:"bucket"`
	Endpoint   string `mapstructure:"endpoint"`
	PublicRead bool   `mapstructure:"public_read"`
}

type JWT struct {
	Alg           string `mapstructure:"alg"`
	PublicKeyPath string `mapstructure:"public_key_path"`
	HSSecret      string `mapstructure:"hs_secret"`
}

type Directory struct {
	// Visibility controls who appears in the contact list before
	// messaging is attempted: all | following | mutual.
	Visibility string `mapstructure:"visibility"`
}

type Presence struct {
	// GraceSeconds is how long a hidden tab stays online before the
	// tracker stamps it offline.
	GraceSeconds int `mapstructure:"grace_seconds"`
	TTLSeconds   int `mapstructure:"cache_ttl_seconds"`
}

type Config struct {
	App       App       `mapstructure:"app"`
	Mongo     Mongo     `mapstructure:"mongo"`
	Redis     Redis     `mapstructure:"redis"`
	Kafka     Kafka     `mapstructure:"kafka"`
	S3        S3        `mapstructure:"s3"`
	JWT       JWT       `mapstructure:"jwt"`
	Directory Directory `mapstructure:"directory"`
	Presence  Presence  `mapstructure:"presence"`

	// derived
	ShutdownTimeout time.Duration
	PresenceGrace   time.Duration
	PresenceTTL     time.Duration
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	cfg.ShutdownTimeout = time.Duration(cfg.App.ShutdownSeconds) * time.Second
	cfg.PresenceGrace = time.Duration(cfg.Presence.GraceSeconds) * time.Second
	cfg.PresenceTTL = time.Duration(cfg.Presence.TTLSeconds) * time.Second
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.ShutdownSeconds == 0 {
		cfg.App.ShutdownSeconds = 15
	}
	if cfg.Mongo.Users == "" {
		cfg.Mongo.Users = "Users"
	}
	if cfg.Mongo.Messages == "" {
		cfg.Mongo.Messages = "Messages"
	}
	if cfg.Redis.Prefix == "" {
		cfg.Redis.Prefix = "nexthread"
	}
	if cfg.Directory.Visibility == "" {
		cfg.Directory.Visibility = "following"
	}
	if cfg.Presence.GraceSeconds == 0 {
		cfg.Presence.GraceSeconds = 30
	}
	if cfg.Presence.TTLSeconds == 0 {
		cfg.Presence.TTLSeconds = 300
	}
}

func validate(cfg *Config) error {
	if cfg.App.Port == 0 {
		return errors.New("app.port missing or invalid")
	}
	if cfg.Mongo.URI == "" {
		return errors.New("mongo.uri missing")
	}
	if cfg.Mongo.DB == "" {
		return errors.New("mongo.db missing")
	}
	if cfg.Redis.Addr == "" {
		return errors.New("redis.addr missing")
	}
	switch cfg.Directory.Visibility {
	case "all", "following", "mutual":
	default:
		return fmt.Errorf("invalid directory.visibility %q (use all, following or mutual)", cfg.Directory.Visibility)
	}
	switch strings.ToUpper(cfg.JWT.Alg) {
	case "RS256":
		if cfg.JWT.PublicKeyPath == "" {
			return errors.New("jwt.public_key_path required for RS256")
		}
	case "HS256":
		if cfg.JWT.HSSecret == "" {
			return errors.New("jwt.hs_secret required for HS256")
		}
	default:
		return errors.New("invalid jwt.alg (use RS256 or HS256)")
	}
	return nil
}
