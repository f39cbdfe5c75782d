// Package platform answers the operating-system questions the diagnostic
// tool asks: which OS family this is, where the browser executable lives,
// how to kill stray browser processes, and which scratch directories can go.
package platform

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// ErrBrowserNotFound is returned when no Chrome or Chromium executable
// exists at any known location.
var ErrBrowserNotFound = errors.New("no chrome or chromium executable found")

// Family returns the OS family name used in config and diagnostics.
func Family() string {
	switch runtime.GOOS {
	case "windows":
		return "windows"
	case "darwin":
		return "macos"
	default:
		return runtime.GOOS
	}
}

// browserNames are the PATH lookups tried after the well-known install
// locations.
var browserNames = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
}

// Finder locates the browser executable. The hooks default to the real OS;
// tests replace them.
type Finder struct {
	Stat     func(string) (fs.FileInfo, error)
	LookPath func(string) (string, error)
	Getenv   func(string) string
	Home     func() (string, error)
}

// NewFinder returns a Finder backed by the real OS.
func NewFinder() *Finder {
	return &Finder{
		Stat:     os.Stat,
		LookPath: exec.LookPath,
		Getenv:   os.Getenv,
		Home:     os.UserHomeDir,
	}
}

// candidatePaths lists the well-known install locations per OS family.
func (f *Finder) candidatePaths(family string) []string {
	switch family {
	case "windows":
		paths := []string{
			`C:\Program Files\Google\Chrome\Application\chrome.exe`,
			`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
		}
		if local := f.Getenv("LOCALAPPDATA"); local != "" {
			paths = append(paths, filepath.Join(local, "Google", "Chrome", "Application", "chrome.exe"))
		}
		return paths
	case "macos":
		paths := []string{
			"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
		}
		if home, err := f.Home(); err == nil {
			paths = append(paths, filepath.Join(home, "Applications", "Google Chrome.app", "Contents", "MacOS", "Google Chrome"))
		}
		return paths
	case "linux":
		return []string{
			"/usr/bin/google-chrome",
			"/usr/bin/google-chrome-stable",
			"/usr/bin/chromium-browser",
			"/snap/bin/chromium",
		}
	default:
		return nil
	}
}

// Find returns the first existing browser executable for the family,
// falling back to a PATH search.
func (f *Finder) Find(family string) (string, error) {
	for _, p := range f.candidatePaths(family) {
		if _, err := f.Stat(p); err == nil {
			return p, nil
		}
	}
	for _, name := range browserNames {
		if path, err := f.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", ErrBrowserNotFound
}

// Killer terminates stray browser processes, best effort: a process that
// refuses to die or a missing kill tool is reported, never fatal.
type Killer struct {
	Run func(name string, args ...string) error
}

// NewKiller returns a Killer that runs real commands with discarded output.
func NewKiller() *Killer {
	return &Killer{
		Run: func(name string, args ...string) error {
			cmd := exec.Command(name, args...)
			cmd.Stdout = io.Discard
			cmd.Stderr = io.Discard
			return cmd.Run()
		},
	}
}

// Kill terminates browser processes by name and returns the process names
// it went after. Command failures are expected (usually nothing matched)
// and ignored.
func (k *Killer) Kill(family string) []string {
	var attempted []string
	switch family {
	case "windows":
		for _, image := range []string{"chrome.exe", "chromium.exe"} {
			_ = k.Run("taskkill", "/F", "/IM", image)
			attempted = append(attempted, image)
		}
	default:
		for _, name := range []string{"chrome", "chromium"} {
			_ = k.Run("pkill", "-f", name)
			attempted = append(attempted, name)
		}
	}
	return attempted
}

// staleTempPatterns are the scratch directories the browser stack leaves
// behind after crashes: chromedp allocator dirs plus the chrome scoped
// dirs older drivers used.
var staleTempPatterns = []string{
	"chromedp-runner*",
	"scoped_dir*",
	"chrome_*",
}

// Cleaner removes stale browser scratch directories.
type Cleaner struct {
	TempDir   func() string
	Glob      func(pattern string) ([]string, error)
	RemoveAll func(path string) error
}

// NewCleaner returns a Cleaner backed by the real filesystem.
func NewCleaner() *Cleaner {
	return &Cleaner{
		TempDir:   os.TempDir,
		Glob:      filepath.Glob,
		RemoveAll: os.RemoveAll,
	}
}

// StaleTempDirs lists scratch directories matching the known patterns.
func (c *Cleaner) StaleTempDirs() []string {
	var dirs []string
	for _, pattern := range staleTempPatterns {
		matches, err := c.Glob(filepath.Join(c.TempDir(), pattern))
		if err != nil {
			continue
		}
		dirs = append(dirs, matches...)
	}
	return dirs
}

// Clean removes the given directories, returning the ones that went away
// and the first failure seen.
func (c *Cleaner) Clean(dirs []string) ([]string, error) {
	var removed []string
	var firstErr error
	for _, dir := range dirs {
		if err := c.RemoveAll(dir); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, dir)
	}
	return removed, firstErr
}
