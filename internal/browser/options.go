// Package browser provides the shared chromedp session with
// anti-bot-detection measures. Login, reading, and the diagnostic launch
// test all go through it.
package browser

import "github.com/chromedp/chromedp"

// DefaultUserAgent is a realistic Chrome user agent
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configure one browser session.
type Options struct {
	Headless bool

	// UserDataDir persists the browser profile (and with it the login
	// state) between runs. Empty means a throwaway profile.
	UserDataDir string

	// ExecPath pins the browser executable. Empty lets chromedp search
	// the usual install locations.
	ExecPath string

	UserAgent    string
	WindowWidth  int
	WindowHeight int
}

// DefaultOptions returns the options every session starts from.
func DefaultOptions() *Options {
	return &Options{
		UserAgent:    DefaultUserAgent,
		WindowWidth:  1920,
		WindowHeight: 1080,
	}
}

// allocatorOptions returns chromedp allocator options with anti-bot-detection
// measures. All browser instances go through this so the stealth
// configuration stays consistent.
func allocatorOptions(o *Options) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", o.Headless),

		// Prevent navigator.webdriver = true detection
		chromedp.Flag("disable-blink-features", "AutomationControlled"),

		// Use a realistic user agent
		chromedp.UserAgent(o.UserAgent),

		// Realistic window size
		chromedp.WindowSize(o.WindowWidth, o.WindowHeight),

		// Disable automation-related extensions and features
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-default-apps", true),
		chromedp.Flag("disable-infobars", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	if o.Headless {
		opts = append(opts, chromedp.Flag("disable-gpu", true))
	}
	if o.UserDataDir != "" {
		opts = append(opts, chromedp.UserDataDir(o.UserDataDir))
	}
	if o.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(o.ExecPath))
	}

	return opts
}
