package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig is loaded once at startup and handed to constructors; nothing
// reads it through package state.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Mongo    MongoConfig    `yaml:"mongo"`
	Postgres PostgresConfig `yaml:"postgres"`
	Redis    RedisConfig    `yaml:"redis"`
	Nats     NatsConfig     `yaml:"nats"`
	JWT      JWTConfig      `yaml:"jwt"`
	Feed     FeedConfig     `yaml:"feed"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

type ServerConfig struct {
	Addr   string `yaml:"addr"`    // e.g. ":8080"
	NodeID string `yaml:"node_id"` // gateway node id, also snowflake node seed
}

type MongoConfig struct {
	Uri         string `yaml:"uri"`
	Database    string `yaml:"database"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	AuthSource  string `yaml:"auth_source"`
	MaxPoolSize int    `yaml:"max_pool_size"`
	MaxRetry    int    `yaml:"max_retry"`
}

type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type NatsConfig struct {
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"` // cross-node event relay subject
	Enabled bool   `yaml:"enabled"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Alg    string        `yaml:"alg"`
	TTL    time.Duration `yaml:"ttl"`
}

type FeedConfig struct {
	DefaultPageSize int           `yaml:"default_page_size"`
	MaxPageSize     int           `yaml:"max_page_size"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
}

type RealtimeConfig struct {
	SendQueueSize  int `yaml:"send_queue_size"`
	FanoutWorkers  int `yaml:"fanout_workers"`
	FanoutQueue    int `yaml:"fanout_queue"`
	InboxQueueSize int `yaml:"inbox_queue_size"`
}

func Load(path string) (*AppConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := &AppConfig{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	cfg.normalize()
	return cfg, nil
}

func Default() *AppConfig {
	cfg := &AppConfig{}
	cfg.normalize()
	return cfg
}

func (c *AppConfig) normalize() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.NodeID == "" {
		c.Server.NodeID = "gateway_1"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "devlink"
	}
	if c.Mongo.MaxPoolSize <= 0 {
		c.Mongo.MaxPoolSize = 20
	}
	if c.Mongo.MaxRetry <= 0 {
		c.Mongo.MaxRetry = 3
	}
	if c.Redis.PoolSize <= 0 {
		c.Redis.PoolSize = 10
	}
	if c.Nats.Subject == "" {
		c.Nats.Subject = "feed.events"
	}
	if c.JWT.Alg == "" {
		c.JWT.Alg = "HS256"
	}
	if c.JWT.TTL <= 0 {
		c.JWT.TTL = 2 * time.Hour
	}
	if c.Feed.DefaultPageSize <= 0 {
		c.Feed.DefaultPageSize = 20
	}
	if c.Feed.MaxPageSize <= 0 {
		c.Feed.MaxPageSize = 100
	}
	if c.Feed.CacheTTL <= 0 {
		c.Feed.CacheTTL = time.Hour
	}
	if c.Realtime.SendQueueSize <= 0 {
		c.Realtime.SendQueueSize = 256
	}
	if c.Realtime.FanoutWorkers <= 0 {
		c.Realtime.FanoutWorkers = 8
	}
	if c.Realtime.FanoutQueue <= 0 {
		c.Realtime.FanoutQueue = 1024
	}
	if c.Realtime.InboxQueueSize <= 0 {
		c.Realtime.InboxQueueSize = 64
	}
}
