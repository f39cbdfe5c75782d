// Package site merges configured site records with the selector profiles of
// known forum engines into the resolved view the browser layers work from.
package site

import (
	"embed"
	"fmt"
	"io/fs"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/zduu/star-auto/internal/config"
)

//go:embed profiles/*.yaml
var profilesFS embed.FS

// Profile holds the selector sets for one forum engine. Selector lists are
// ordered by preference: the first selector that matches anything wins.
type Profile struct {
	Name               string   `yaml:"name"`
	TopicSelectors     []string `yaml:"topic_selectors"`
	LikeSelectors      []string `yaml:"like_selectors"`
	LoggedInSelectors  []string `yaml:"logged_in_selectors"`
	LoggedOutSelectors []string `yaml:"logged_out_selectors"`
	SSOHosts           []string `yaml:"sso_hosts"`
}

var (
	loadOnce sync.Once
	profiles map[string]*Profile
	loadErr  error
)

func loadProfiles() (map[string]*Profile, error) {
	loadOnce.Do(func() {
		profiles = make(map[string]*Profile)

		entries, err := fs.ReadDir(profilesFS, "profiles")
		if err != nil {
			loadErr = fmt.Errorf("read embedded profiles: %w", err)
			return
		}

		for _, entry := range entries {
			if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
				continue
			}

			data, err := fs.ReadFile(profilesFS, "profiles/"+entry.Name())
			if err != nil {
				loadErr = fmt.Errorf("read profile %s: %w", entry.Name(), err)
				return
			}

			var p Profile
			if err := yaml.Unmarshal(data, &p); err != nil {
				loadErr = fmt.Errorf("parse profile %s: %w", entry.Name(), err)
				return
			}
			if p.Name == "" {
				loadErr = fmt.Errorf("profile %s has no name", entry.Name())
				return
			}
			profiles[p.Name] = &p
		}
	})
	return profiles, loadErr
}

// ProfileByName returns the engine profile with the given name.
func ProfileByName(name string) (*Profile, error) {
	all, err := loadProfiles()
	if err != nil {
		return nil, err
	}
	p, ok := all[name]
	if !ok {
		return nil, fmt.Errorf("unknown engine profile %q (available: %s)",
			name, strings.Join(ProfileNames(), ", "))
	}
	return p, nil
}

// ProfileNames lists the embedded engine profiles in sorted order.
func ProfileNames() []string {
	all, err := loadProfiles()
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(all))
	for name := range all {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolved is one site merged with its engine profile, ready for use.
// Per-site selector overrides from the config win over profile defaults.
type Resolved struct {
	Key      string
	Name     string
	BaseURL  string
	LoginURL string

	// UserDataDir is where the browser profile (and with it the login
	// state) persists between runs.
	UserDataDir string

	TopicSelectors     []string
	LikeSelectors      []string
	LoggedInSelectors  []string
	LoggedOutSelectors []string

	// SSOHosts are hosts the login flow may redirect through; being on one
	// of them means the login is still in progress.
	SSOHosts []string
}

// Resolve merges a site record with its engine profile. dataDir anchors the
// default browser profile location for sites that do not pin their own.
func Resolve(key string, sc config.SiteConfig, dataDir string) (*Resolved, error) {
	profileName := sc.Profile
	if profileName == "" {
		profileName = "discourse"
	}
	p, err := ProfileByName(profileName)
	if err != nil {
		return nil, fmt.Errorf("site %q: %w", key, err)
	}
	if sc.BaseURL == "" {
		return nil, fmt.Errorf("site %q has no base URL", key)
	}

	r := &Resolved{
		Key:                key,
		Name:               sc.Name,
		BaseURL:            strings.TrimRight(sc.BaseURL, "/"),
		LoginURL:           sc.LoginURL,
		UserDataDir:        sc.UserDataDir,
		TopicSelectors:     p.TopicSelectors,
		LikeSelectors:      p.LikeSelectors,
		LoggedInSelectors:  p.LoggedInSelectors,
		LoggedOutSelectors: p.LoggedOutSelectors,
		SSOHosts:           append([]string(nil), p.SSOHosts...),
	}
	if r.Name == "" {
		r.Name = key
	}
	if len(sc.TopicSelectors) > 0 {
		r.TopicSelectors = sc.TopicSelectors
	}
	if len(sc.LikeSelectors) > 0 {
		r.LikeSelectors = sc.LikeSelectors
	}
	if r.UserDataDir == "" {
		r.UserDataDir = filepath.Join(dataDir, "profiles", "chrome_user_data_"+key)
	}

	// A login page on a different host is an SSO hop; staying on it means
	// the user has not finished logging in yet.
	if h := hostOf(r.LoginURL); h != "" && h != hostOf(r.BaseURL) && !containsHost(r.SSOHosts, h) {
		r.SSOHosts = append(r.SSOHosts, h)
	}

	return r, nil
}

func hostOf(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}

func containsHost(hosts []string, h string) bool {
	for _, have := range hosts {
		if have == h {
			return true
		}
	}
	return false
}
