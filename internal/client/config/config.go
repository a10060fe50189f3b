package config

import "time"

// Config holds runtime settings for the FocusKeeper client.
//
// Fields:
//   - ServerEndpointURL: base URL of the remote backend HTTP API.
//   - DatabasePath: location of the local SQLite database file.
//   - OnlineCheckInterval: how often the client probes backend reachability.
//   - ProbeTimeout: per-probe timeout for the reachability check.
//   - MetricsAddr: listen address for the Prometheus endpoint; empty disables it.
type Config struct {
	ServerEndpointURL   string
	DatabasePath        string
	OnlineCheckInterval time.Duration
	ProbeTimeout        time.Duration
	MetricsAddr         string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabasePath = "focuskeeper.db"
	c.OnlineCheckInterval = 3 * time.Second
	c.ProbeTimeout = 3 * time.Second
	c.MetricsAddr = ""
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
