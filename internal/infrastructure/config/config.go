package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	// DefaultSector seeds the aggregate's active sector on first boot.
	DefaultSector string `env:"DEFAULT_SECTOR, default=hospital"`

	// LobbyRefresh is the public board's poll period; it self-heals from
	// lost change notifications.
	LobbyRefresh time.Duration `env:"LOBBY_REFRESH, default=5s"`

	// AnnounceDelay separates the chime from the spoken announcement.
	AnnounceDelay   time.Duration `env:"ANNOUNCE_DELAY,   default=1s"`
	AnnounceWorkers int           `env:"ANNOUNCE_WORKERS, default=4"`

	// SaveRetries bounds how often a mutation retries after losing a
	// concurrent-write race.
	SaveRetries int `env:"SAVE_RETRIES, default=3"`

	// LobbyPreview caps the public board's waiting list.
	LobbyPreview int `env:"LOBBY_PREVIEW, default=10"`

	Mongo MongoConfig
	Redis RedisConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=queue_display"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
