// Package config handles configuration for the session agent, including
// defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the session agent.
//
// Fields:
//   - GatewayBaseURL: base URL of the gateway API.
//   - RenewalInterval: cadence of background access-token renewal. Must stay
//     well under the access-token lifetime or the cookie goes stale between
//     runs.
//   - RequestTimeout: bound on a single gateway call.
//   - FailureThreshold: consecutive transient failures tolerated before the
//     agent re-checks the session with the gateway.
type Config struct {
	GatewayBaseURL   string
	RenewalInterval  time.Duration
	RequestTimeout   time.Duration
	FailureThreshold int
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.GatewayBaseURL = "http://localhost:3002/api/v1"
	c.RenewalInterval = 90 * time.Second
	c.RequestTimeout = 10 * time.Second
	c.FailureThreshold = 5
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
