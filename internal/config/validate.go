package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

var validDrivers = map[string]bool{"postgres": true, "sqlite": true, "memory": true}

// Validate checks the settings a command mode depends on. Modes: serve,
// import, migrate, client.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "serve":
		problems = append(problems, c.validateStore()...)
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			problems = append(problems, "server.port must be > 0 and <= 65535")
		}
		if c.Catalog.DefaultLimit <= 0 || c.Catalog.DefaultLimit > 100 {
			problems = append(problems, "catalog.default_limit must be between 1 and 100")
		}
	case "import", "migrate":
		problems = append(problems, c.validateStore()...)
	case "client":
		if c.Client.BaseURL == "" {
			problems = append(problems, "client.base_url is required")
		}
		if c.Client.RatePerSec < 0 {
			problems = append(problems, "client.rate_per_sec must be >= 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var problems []string
	if !validDrivers[c.Store.Driver] {
		problems = append(problems, "store.driver must be one of postgres, sqlite, memory")
	}
	if c.Store.Driver != "memory" && c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}
	if c.Store.MinConns > c.Store.MaxConns && c.Store.MaxConns > 0 {
		problems = append(problems, "store.min_conns must not exceed store.max_conns")
	}
	return problems
}
