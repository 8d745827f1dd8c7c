package config

import "time"

// Config is the top-level YAML structure of the blueprint server.
type Config struct {
	Server ServerConf `yaml:"server"`
	Store  StoreConf  `yaml:"store"`
	Log    LogConf    `yaml:"log"`
}

// ServerConf holds HTTP settings.
type ServerConf struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	// MaxSessions caps the graphs held in memory at once.
	MaxSessions int `yaml:"max_sessions"`
}

// StoreConf selects and configures the persistence backend.
type StoreConf struct {
	Driver   string        `yaml:"driver"` // memory, postgres or redis
	Postgres PostgresConf  `yaml:"postgres"`
	Redis    RedisConf     `yaml:"redis"`
	Timeout  time.Duration `yaml:"timeout"`
}

type PostgresConf struct {
	URL string `yaml:"url"`
}

type RedisConf struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogConf controls the server logger. Level is one of debug, info, warn,
// error.
type LogConf struct {
	Level string `yaml:"level"`
}

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)
