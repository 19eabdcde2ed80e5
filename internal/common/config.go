package common

import (
	"fmt"
	"os"
	"time"

	"github.com/dtnitsch/docufind/pkg/platform"
	"github.com/dtnitsch/docufind/pkg/watch"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

// DefaultWorkers is the summarize worker count when neither flag nor config
// file sets one.
const DefaultWorkers = 4

// Config is the optional --config YAML file.
//
//	profiles:
//	  - id: mattermost
//	    name: Mattermost
//	    domain: mattermost.example.com
//	    chat_container: "#post-list"
//	    message: ".post"
//	    attachment: ".post-image__column a"
//	    text: ".post-message__text"
//	    timestamp: "time"
//	debounce: 750ms
//	workers: 8
//	cache_dir: /var/cache/docufind
type Config struct {
	Profiles []platform.Profile `yaml:"profiles"`
	Debounce time.Duration      `yaml:"debounce"`
	Workers  int                `yaml:"workers"`
	CacheDir string             `yaml:"cache_dir"`
}

// LoadConfig reads path. An empty path yields the zero config.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	for i, p := range cfg.Profiles {
		if p.ID == "" || p.Domain == "" || p.ChatContainer == "" || p.Message == "" {
			return nil, fmt.Errorf("profile %d: id, domain, chat_container and message are required", i+1)
		}
		if p.DisplayName == "" {
			cfg.Profiles[i].DisplayName = p.ID
		}
	}
	return cfg, nil
}

// ConfigFromContext loads the file named by the global --config flag.
func ConfigFromContext(c *cli.Context) (*Config, error) {
	return LoadConfig(c.String("config"))
}

// Registry returns the built-in profiles preceded by the configured ones.
func (c *Config) Registry() *platform.Registry {
	return platform.NewRegistry(c.Profiles...)
}

// DebounceWindow returns the configured window or the watcher default.
func (c *Config) DebounceWindow() time.Duration {
	if c.Debounce > 0 {
		return c.Debounce
	}
	return watch.DefaultWindow
}

// WorkerCount returns flagValue when positive, else the configured count,
// else DefaultWorkers.
func (c *Config) WorkerCount(flagValue int) int {
	if flagValue > 0 {
		return flagValue
	}
	if c.Workers > 0 {
		return c.Workers
	}
	return DefaultWorkers
}
