package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type GRPC struct {
	Addr string `yaml:"addr"`
}

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN string `yaml:"dsn"`
}

type Session struct {
	Secret string `yaml:"secret"`
	Issuer string `yaml:"issuer"`
	TTL    string `yaml:"ttl"` // duration, дефолт 720h
}

type Chat struct {
	AnnouncementsEnabled bool   `yaml:"announcementsEnabled"`
	GuestNamePrefix      string `yaml:"guestNamePrefix"`
	MaxMessageLen        int    `yaml:"maxMessageLen"`
}

type Reaper struct {
	Enabled  bool   `yaml:"enabled"`
	RoomCron string `yaml:"roomCron"` // дефолт: ежедневно в полночь
	UserCron string `yaml:"userCron"` // дефолт: первое число месяца
	RoomTTL  string `yaml:"roomTTL"`  // duration, дефолт 168h
	UserTTL  string `yaml:"userTTL"`  // duration, дефолт 720h
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Session  Session  `yaml:"session"`
	Chat     Chat     `yaml:"chat"`
	Reaper   Reaper   `yaml:"reaper"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Session.Secret == "" {
		return errors.New("session.secret is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	if c.Session.Issuer == "" {
		c.Session.Issuer = "chat-service"
	}
	if c.Chat.GuestNamePrefix == "" {
		c.Chat.GuestNamePrefix = "ゲスト"
	}
	if c.Chat.MaxMessageLen <= 0 {
		c.Chat.MaxMessageLen = 4000
	}
	return nil
}

// SessionTTL парсит session.ttl с дефолтом в месяц.
func (c *Config) SessionTTL() time.Duration {
	return parseDurationOr(720*time.Hour, c.Session.TTL)
}

func (c *Config) ReaperRoomTTL() time.Duration {
	return parseDurationOr(7*24*time.Hour, c.Reaper.RoomTTL)
}

func (c *Config) ReaperUserTTL() time.Duration {
	return parseDurationOr(30*24*time.Hour, c.Reaper.UserTTL)
}

// helper для парсинга duration-ов
func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
