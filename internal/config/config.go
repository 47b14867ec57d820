// Package config loads server configuration from a YAML file with
// environment overrides for deployment-specific values.
package config

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Redis  RedisConfig  `yaml:"redis"`
	Game   GameConfig   `yaml:"game"`
	Limits LimitsConfig `yaml:"limits"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the websocket listener.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RedisConfig configures the optional history store. With an empty Addr the
// server runs without Redis and history recording is a no-op.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// GameConfig holds per-room gameplay knobs.
type GameConfig struct {
	DeckCount    int `yaml:"deck_count"`
	HandSize     int `yaml:"hand_size"`
	MinPlayers   int `yaml:"min_players"`
	MaxPlayers   int `yaml:"max_players"`
	FillWithAI   int `yaml:"fill_with_ai"`    // auto-add AI seats up to this count at start
	TurnSeconds  int `yaml:"turn_seconds"`    // per-turn chess-clock allotment
	ClockTickMs  int `yaml:"clock_tick_ms"`   // scheduler tick interval
	AIDelayMinMs int `yaml:"ai_delay_min_ms"` // AI "thinking" delay bounds
	AIDelayMaxMs int `yaml:"ai_delay_max_ms"`
}

// LimitsConfig holds the token-bucket parameters for client connections.
type LimitsConfig struct {
	ActionsPerSecond float64 `yaml:"actions_per_second"`
	ActionBurst      int     `yaml:"action_burst"`
	ChatPerSecond    float64 `yaml:"chat_per_second"`
	ChatBurst        int     `yaml:"chat_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// TurnAllotment returns the per-turn countdown duration.
func (c *GameConfig) TurnAllotment() time.Duration {
	return time.Duration(c.TurnSeconds) * time.Second
}

// ClockTick returns the scheduler tick interval.
func (c *GameConfig) ClockTick() time.Duration {
	return time.Duration(c.ClockTickMs) * time.Millisecond
}

// AIDelayBounds returns the AI thinking-delay range.
func (c *GameConfig) AIDelayBounds() (time.Duration, time.Duration) {
	return time.Duration(c.AIDelayMinMs) * time.Millisecond,
		time.Duration(c.AIDelayMaxMs) * time.Millisecond
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Game: GameConfig{
			DeckCount:    1,
			HandSize:     7,
			MinPlayers:   2,
			MaxPlayers:   8,
			FillWithAI:   0,
			TurnSeconds:  30,
			ClockTickMs:  500,
			AIDelayMinMs: 600,
			AIDelayMaxMs: 1800,
		},
		Limits: LimitsConfig{
			ActionsPerSecond: 5,
			ActionBurst:      10,
			ChatPerSecond:    1,
			ChatBurst:        3,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv maps deployment-environment variables onto the config.
func applyEnv(cfg *Config) {
	if v := os.Getenv("UNOROOM_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("UNOROOM_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
		}
	}
	if v := os.Getenv("UNOROOM_REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("UNOROOM_REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("UNOROOM_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}
