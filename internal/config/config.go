// Package config holds the persisted configuration: the site table, the run
// record, delay ranges, and the precedence resolver that turns all of it into
// effective run parameters.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all application configuration.
type Config struct {
	Version     int                   `toml:"version"`
	DefaultSite string                `toml:"default_site"`
	Run         RunConfig             `toml:"run"`
	Delays      DelayConfig           `toml:"delays"`
	Sites       map[string]SiteConfig `toml:"sites"`
	Notify      NotifyConfig          `toml:"notify"`
	Schedule    ScheduleConfig        `toml:"schedule"`
	Logging     LoggingConfig         `toml:"logging"`
}

// RunConfig is the persisted run record: the browse parameters a plain
// `star` invocation uses when no flags override them.
type RunConfig struct {
	Mode     string `toml:"mode"`
	URL      string `toml:"url"`
	Cycles   int    `toml:"cycles"`
	Headless bool   `toml:"headless"`
	Like     bool   `toml:"like"`
}

// DelayConfig holds the randomized wait ranges, in seconds.
type DelayConfig struct {
	ScrollMin float64 `toml:"scroll_min"`
	ScrollMax float64 `toml:"scroll_max"`
	ReadMin   float64 `toml:"read_min"`
	ReadMax   float64 `toml:"read_max"`
	CycleMin  float64 `toml:"cycle_min"`
	CycleMax  float64 `toml:"cycle_max"`
	BottomMin float64 `toml:"bottom_min"`
	BottomMax float64 `toml:"bottom_max"`
}

// SiteConfig describes one configured forum site. Selector lists are optional
// overrides; when empty the named profile supplies them.
type SiteConfig struct {
	Name           string   `toml:"name"`
	BaseURL        string   `toml:"base_url"`
	LoginURL       string   `toml:"login_url"`
	Profile        string   `toml:"profile"`
	UserDataDir    string   `toml:"user_data_dir"`
	LikeSelectors  []string `toml:"like_selectors"`
	TopicSelectors []string `toml:"topic_selectors"`
}

// NotifyConfig configures the optional run-completion notification.
type NotifyConfig struct {
	Provider   string `toml:"provider"`
	WebhookURL string `toml:"webhook_url"`
	SMTPHost   string `toml:"smtp_host"`
	SMTPPort   int    `toml:"smtp_port"`
	SMTPUser   string `toml:"smtp_user"`
	SMTPPass   string `toml:"smtp_pass"`
	FromAddr   string `toml:"from_address"`
	ToAddr     string `toml:"to_address"`
}

// ScheduleConfig configures recurring runs.
type ScheduleConfig struct {
	Spec     string `toml:"spec"`
	Timezone string `toml:"timezone"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `toml:"level"`
	File  bool   `toml:"file"`
}

// Default returns a Config with sensible defaults and one preconfigured site.
func Default() *Config {
	return &Config{
		Version:     1,
		DefaultSite: "shuiyuan",
		Run: RunConfig{
			Mode:     "random",
			Cycles:   5,
			Headless: false,
			Like:     true,
		},
		Delays: DelayConfig{
			ScrollMin: 1.5,
			ScrollMax: 2.5,
			ReadMin:   1,
			ReadMax:   3,
			CycleMin:  5,
			CycleMax:  10,
			BottomMin: 2,
			BottomMax: 4,
		},
		Sites: map[string]SiteConfig{
			"shuiyuan": {
				Name:     "水源社区",
				BaseURL:  "https://shuiyuan.sjtu.edu.cn",
				LoginURL: "https://jaccount.sjtu.edu.cn",
				Profile:  "discourse",
			},
		},
		Notify: NotifyConfig{
			SMTPPort: 587,
		},
		Schedule: ScheduleConfig{
			Timezone: "Local",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  true,
		},
	}
}

// Dir returns the platform-appropriate config directory.
func Dir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "star-auto"), nil
}

// DefaultPath returns the full path to the config file.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads config from disk. Keys missing from the file keep their
// defaults, so partially written files stay usable.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	if cfg.Sites == nil {
		cfg.Sites = map[string]SiteConfig{}
	}
	return cfg, nil
}

// Save writes config to disk.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(c)
}

// Site returns the configured site for key.
func (c *Config) Site(key string) (SiteConfig, bool) {
	s, ok := c.Sites[key]
	return s, ok
}

// SiteKeys returns the configured site keys in sorted order.
func (c *Config) SiteKeys() []string {
	keys := make([]string, 0, len(c.Sites))
	for k := range c.Sites {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// AddSite registers a new site under a sanitized key. The first site added
// becomes the default.
func (c *Config) AddSite(key string, s SiteConfig) (string, error) {
	key = SanitizeSiteKey(key)
	if key == "" {
		return "", fmt.Errorf("site key is empty after sanitizing")
	}
	if s.BaseURL == "" {
		return "", fmt.Errorf("site %q has no base URL", key)
	}
	if c.Sites == nil {
		c.Sites = map[string]SiteConfig{}
	}
	if _, exists := c.Sites[key]; exists {
		return "", fmt.Errorf("site %q already exists", key)
	}

	c.Sites[key] = s
	if c.DefaultSite == "" {
		c.DefaultSite = key
	}
	return key, nil
}

// RemoveSite deletes a site. If it was the default, another configured site
// takes over as default.
func (c *Config) RemoveSite(key string) error {
	if _, ok := c.Sites[key]; !ok {
		return fmt.Errorf("unknown site %q", key)
	}
	delete(c.Sites, key)

	if c.DefaultSite == key {
		c.DefaultSite = ""
		if keys := c.SiteKeys(); len(keys) > 0 {
			c.DefaultSite = keys[0]
		}
	}
	return nil
}

// SetDefaultSite marks an existing site as the default.
func (c *Config) SetDefaultSite(key string) error {
	if _, ok := c.Sites[key]; !ok {
		return fmt.Errorf("unknown site %q", key)
	}
	c.DefaultSite = key
	return nil
}

// SanitizeSiteKey normalizes a user-supplied site key into something safe to
// embed in directory and file names: lowercase, spaces to underscores, only
// [a-z0-9._-] kept, at most 50 runes.
func SanitizeSiteKey(key string) string {
	key = strings.ToLower(strings.TrimSpace(key))
	key = strings.ReplaceAll(key, " ", "_")

	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z',
			r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
		}
	}

	out := b.String()
	if len(out) > 50 {
		out = out[:50]
	}
	return out
}
