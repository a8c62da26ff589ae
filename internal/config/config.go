package config

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr string     `env:"HTTP_ADDR" envDefault:":8080"`
	DBPath   string     `env:"DB_PATH" envDefault:"data/streettag.db"`
	RedisURL string     `env:"REDIS_URL" envDefault:"redis://localhost:6379/0"`
	LogLevel slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`

	// Bounds for host-chosen game settings.
	MinPlayers    int     `env:"MIN_PLAYERS" envDefault:"2"`
	MaxPlayers    int     `env:"MAX_PLAYERS" envDefault:"32"`
	MinTagRadius  float64 `env:"MIN_TAG_RADIUS_M" envDefault:"1"`
	MaxTagRadius  float64 `env:"MAX_TAG_RADIUS_M" envDefault:"500"`
	MaxSpeedKmh   float64 `env:"MAX_SPEED_KMH" envDefault:"50"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return &cfg, nil
}
