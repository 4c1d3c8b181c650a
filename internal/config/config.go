package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

// Config holds server configuration values.
type Config struct {
	Addr               string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout  time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout    time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	LogLevel           string        `mapstructure:"log_level" yaml:"log_level"`
	DatabasePath       string        `mapstructure:"database_path" yaml:"database_path"`
	RateLimitPerMinute int           `mapstructure:"rate_limit_per_minute" yaml:"rate_limit_per_minute"`

	JWTSecret   string        `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string        `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string        `mapstructure:"jwt_audience" yaml:"jwt_audience"`
	JWTTTL      time.Duration `mapstructure:"jwt_ttl" yaml:"jwt_ttl"`

	Game    GameConfig    `mapstructure:"game" yaml:"game"`
	Discord DiscordConfig `mapstructure:"discord" yaml:"discord"`
}

// GameConfig holds the table rules.
type GameConfig struct {
	Capacity       int   `mapstructure:"capacity" yaml:"capacity"`
	DefaultBet     int64 `mapstructure:"default_bet" yaml:"default_bet"`
	DealerStandsOn int   `mapstructure:"dealer_stands_on" yaml:"dealer_stands_on"`
	ShoeDecks      int   `mapstructure:"shoe_decks" yaml:"shoe_decks"`
}

// DiscordConfig enables the Discord adapter when Token is set.
type DiscordConfig struct {
	Token       string `mapstructure:"token" yaml:"token"`
	Prefix      string `mapstructure:"prefix" yaml:"prefix"`
	HitEmoji    string `mapstructure:"hit_emoji" yaml:"hit_emoji"`
	StayEmoji   string `mapstructure:"stay_emoji" yaml:"stay_emoji"`
	DoubleEmoji string `mapstructure:"double_emoji" yaml:"double_emoji"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	game := core.DefaultConfig()
	return Config{
		Addr:               ":8080",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		LogLevel:           "info",
		DatabasePath:       "blackjack.db",
		RateLimitPerMinute: 120,
		JWTSecret:          "change-me",
		JWTIssuer:          "wirechat-blackjack",
		JWTTTL:             24 * time.Hour,
		Game: GameConfig{
			Capacity:       game.Capacity,
			DefaultBet:     game.DefaultBet,
			DealerStandsOn: game.DealerStandsOn,
			ShoeDecks:      game.ShoeDecks,
		},
		Discord: DiscordConfig{
			Prefix:      "!",
			HitEmoji:    "🃏",
			StayEmoji:   "✋",
			DoubleEmoji: "⏫",
		},
	}
}

// Core converts the game section into engine rules.
func (g GameConfig) Core() core.Config {
	return core.Config{
		Capacity:       g.Capacity,
		DefaultBet:     g.DefaultBet,
		DealerStandsOn: g.DealerStandsOn,
		ShoeDecks:      g.ShoeDecks,
	}
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	if err := c.Game.Core().Validate(); err != nil {
		return err
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("jwt_ttl must be positive")
	}
	if c.Discord.Token != "" {
		emojis := []string{c.Discord.HitEmoji, c.Discord.StayEmoji, c.Discord.DoubleEmoji}
		seen := make(map[string]struct{}, len(emojis))
		for _, e := range emojis {
			if e == "" {
				return fmt.Errorf("discord emojis must be set")
			}
			if _, dup := seen[e]; dup {
				return fmt.Errorf("discord emoji %q mapped to more than one action", e)
			}
			seen[e] = struct{}{}
		}
	}
	return nil
}
