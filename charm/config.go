// ABOUTME: Connection settings for the Charm KV backend
// ABOUTME: Filled from the process config; nothing here touches disk

package charm

import (
	"time"

	"github.com/charmbracelet/charm/kv"
)

const (
	// DefaultCharmHost is the self-hosted 2389 research server.
	DefaultCharmHost = "charm.2389.dev"

	// AppName names the Charm KV database.
	AppName = "prospecta"
)

// Config holds charm connection settings.
type Config struct {
	Host string
	// AutoSync pushes after every write and pulls on open.
	AutoSync       bool
	StaleThreshold time.Duration
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() *Config {
	return &Config{
		Host:           DefaultCharmHost,
		AutoSync:       true,
		StaleThreshold: kv.DefaultStaleThreshold,
	}
}

func (c *Config) withDefaults() *Config {
	out := *c
	if out.Host == "" {
		out.Host = DefaultCharmHost
	}
	if out.StaleThreshold <= 0 {
		out.StaleThreshold = kv.DefaultStaleThreshold
	}
	return &out
}
