// Command starfix diagnoses the browser environment when star cannot start
// a session: it finds the executable, kills stray browser processes, sweeps
// stale scratch directories, and proves a clean headless launch. With
// -profiles it also wipes the saved site profiles, forcing fresh logins.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/zduu/star-auto/internal/auth"
	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/doctor"
	"github.com/zduu/star-auto/internal/site"
)

func main() {
	wipeProfiles := flag.Bool("profiles", false, "also wipe saved site profiles (forces fresh logins)")
	configFlag := flag.String("config", "", "config file (default: <user config dir>/star-auto/config.toml)")
	timeout := flag.Duration("timeout", 30*time.Second, "launch test timeout")
	flag.Parse()

	fmt.Println("starfix: browser startup diagnostics")
	fmt.Println()

	targets, err := wipeTargets(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: cannot resolve site profiles: %v\n", err)
	}

	steps, pass := doctor.Run(context.Background(), doctor.Options{
		WipeProfiles:  *wipeProfiles,
		ProfileDirs:   targets,
		LaunchTimeout: *timeout,
	}, doctor.DefaultHooks())

	for _, s := range steps {
		mark := "✓"
		if !s.OK {
			mark = "✗"
		}
		fmt.Printf("%s %-20s %s\n", mark, s.Name, s.Detail)
	}
	fmt.Println()

	if pass {
		fmt.Println("PASS: the browser launches cleanly. Re-run star.")
		return
	}
	fmt.Println("FAIL: fix the failed steps above. If no browser was found, install Google Chrome or Chromium.")
	os.Exit(1)
}

// wipeTargets resolves everything that holds login state per configured
// site: the browser profile directory and the cookie snapshot. -profiles
// wipes both, otherwise the snapshot would restore the login the wipe was
// meant to clear. A missing config file means defaults.
func wipeTargets(path string) ([]string, error) {
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		cfg = config.Default()
	}

	dataDir := filepath.Dir(path)
	var targets []string
	for _, key := range cfg.SiteKeys() {
		sc, _ := cfg.Site(key)
		rs, err := site.Resolve(key, sc, dataDir)
		if err != nil {
			continue
		}
		targets = append(targets, rs.UserDataDir, auth.CookiePath(dataDir, key))
	}
	return targets, nil
}
