package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
)

// ErrNotRunning is returned by page operations when the session has not
// been started or has already been stopped.
var ErrNotRunning = errors.New("browser session not running")

// webdriverMask hides the automation flag from page scripts. Installed on
// every new document so it survives navigation.
const webdriverMask = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

const startTimeout = 60 * time.Second

// Session is one controlled browser instance. All page operations go
// through it; nothing else holds the chromedp contexts.
type Session struct {
	id   string
	opts *Options

	mu          sync.Mutex
	running     bool
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewSession creates a session with the given options (nil for defaults).
func NewSession(opts *Options) *Session {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Session{
		id:   uuid.New().String(),
		opts: opts,
	}
}

// ID returns the session identifier used in logs and history records.
func (s *Session) ID() string { return s.id }

// Start launches the browser process. The allocator is parented on
// context.Background() so the browser outlives individual page operations;
// Stop is the only way to tear it down. The launch itself honors the
// deadline on ctx.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("browser session already running")
	}

	if s.opts.UserDataDir != "" {
		if err := os.MkdirAll(s.opts.UserDataDir, 0700); err != nil {
			return fmt.Errorf("create user data dir: %w", err)
		}
	}

	s.allocCtx, s.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(s.opts)...)
	s.ctx, s.cancel = chromedp.NewContext(s.allocCtx)

	timeout := startTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	// The first Run materializes the browser process. Failures here are
	// environment problems, not page problems.
	startCtx, cancel := context.WithTimeout(s.ctx, timeout)
	defer cancel()
	err := chromedp.Run(startCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(webdriverMask).Do(ctx)
			return err
		}),
	)
	if err != nil {
		s.cleanup()
		return fmt.Errorf("start browser: %w", err)
	}

	s.running = true
	return nil
}

// Stop closes the browser and releases its resources. Safe to call on a
// session that never started.
func (s *Session) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.cleanup()
	return nil
}

func (s *Session) cleanup() {
	s.running = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	if s.allocCancel != nil {
		s.allocCancel()
		s.allocCancel = nil
	}
	s.ctx = nil
	s.allocCtx = nil
}

// IsRunning reports whether the browser is active.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// target snapshots the browser context under lock so page operations never
// race Stop.
func (s *Session) target() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running || s.ctx == nil {
		return nil, ErrNotRunning
	}
	return s.ctx, nil
}

// Navigate loads the given URL and waits for the load to settle.
func (s *Session) Navigate(ctx context.Context, url string) error {
	browserCtx, err := s.target()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(browserCtx, chromedp.Navigate(url))
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	browserCtx, err := s.target()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var url string
	if err := chromedp.Run(browserCtx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// WaitVisible waits for a CSS selector to become visible, honoring the
// deadline on ctx.
func (s *Session) WaitVisible(ctx context.Context, selector string) error {
	browserCtx, err := s.target()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	execCtx := browserCtx
	if deadline, ok := ctx.Deadline(); ok {
		var cancel context.CancelFunc
		execCtx, cancel = context.WithDeadline(browserCtx, deadline)
		defer cancel()
	}

	done := make(chan error, 1)
	go func() {
		done <- chromedp.Run(execCtx, chromedp.WaitVisible(selector, chromedp.ByQuery))
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Evaluate runs a JavaScript expression in the page, decoding the result
// into out when out is non-nil.
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	browserCtx, err := s.target()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return chromedp.Run(browserCtx, chromedp.Evaluate(expr, out))
}

// Cookies exports all cookies the browser currently holds.
func (s *Session) Cookies(ctx context.Context) ([]*network.Cookie, error) {
	browserCtx, err := s.target()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var cookies []*network.Cookie
	err = chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = storage.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("export cookies: %w", err)
	}
	return cookies, nil
}

// SetCookies injects cookies into the browser, typically before the first
// site navigation.
func (s *Session) SetCookies(ctx context.Context, cookies []*network.Cookie) error {
	browserCtx, err := s.target()
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	return chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			err := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly).
				WithSameSite(c.SameSite).
				Do(ctx)
			if err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	}))
}
