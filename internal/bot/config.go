package bot

import (
	"time"
)

// BotConfig represents the configuration for the bot
type BotConfig struct {
	// Long-poll timeout in seconds
	UpdateTimeout int
	// Pause between clips when playing a session
	ClipInterval time.Duration
}

// DefaultConfig returns the default bot configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		UpdateTimeout: 60,
		ClipInterval:  3 * time.Second,
	}
}
