package config

import (
	"github.com/knadh/koanf/v2"
)

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"backend.url":              "http://localhost:8000",
		"backend.poll_interval_ms": 2000,
		"backend.reconnect_delay":  "3s",

		"history.limit":          10,
		"history.extended_limit": 50,
		"history.extended":       false,

		"server.host": "127.0.0.1",
		"server.port": 8090,

		"logging.level":  "info",
		"logging.format": "pretty",
	}

	for key, val := range defaults {
		k.Set(key, val)
	}
	return nil
}
