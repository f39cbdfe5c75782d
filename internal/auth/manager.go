// Package auth detects login state on a site and waits out the manual
// login flow, snapshotting cookies once a session exists.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zduu/star-auto/internal/browser"
	"github.com/zduu/star-auto/internal/logging"
	"github.com/zduu/star-auto/internal/site"
)

// ErrLoginRequired is returned when the site needs a manual login but the
// browser is headless, so nobody can complete it.
var ErrLoginRequired = errors.New("login required: run once without --headless and log in when the browser opens")

const (
	// loginWait is how long the manual login may take before we give up.
	loginWait = 5 * time.Minute
	loginPoll = 2 * time.Second

	// settleDelay lets client-side rendering finish before selectors are
	// inspected.
	settleDelay = 3 * time.Second
)

// Manager checks and establishes login state for one site on one session.
type Manager struct {
	session *browser.Session
	site    *site.Resolved
	cookies *CookieStore
}

// NewManager creates a Manager. The cookie store may be nil to skip
// snapshotting.
func NewManager(sess *browser.Session, st *site.Resolved, cookies *CookieStore) *Manager {
	return &Manager{session: sess, site: st, cookies: cookies}
}

// Status navigates to the site and reports whether a user is logged in.
func (m *Manager) Status(ctx context.Context) (bool, error) {
	if err := m.session.Navigate(ctx, m.site.BaseURL); err != nil {
		return false, fmt.Errorf("load %s: %w", m.site.BaseURL, err)
	}
	if err := sleep(ctx, settleDelay); err != nil {
		return false, err
	}

	// The login button is the strongest signal: Discourse renders it only
	// for anonymous visitors.
	out, err := m.anyPresent(ctx, m.site.LoggedOutSelectors)
	if err != nil {
		return false, err
	}
	if out {
		return false, nil
	}

	in, err := m.anyPresent(ctx, m.site.LoggedInSelectors)
	if err != nil {
		return false, err
	}
	if in {
		return true, nil
	}

	// Neither marker present. Being parked on an SSO host means a login
	// redirect is in progress; anything else counts as logged in, since
	// themes can hide the user menu.
	loc, err := m.session.Location(ctx)
	if err != nil {
		return false, err
	}
	if m.onSSOHost(loc) {
		return false, nil
	}
	return true, nil
}

// EnsureLoggedIn checks the login state and, when a window is available,
// walks the user through a manual login. Success refreshes the cookie
// snapshot.
func (m *Manager) EnsureLoggedIn(ctx context.Context, headless bool) error {
	log := logging.From(ctx)

	ok, err := m.Status(ctx)
	if err != nil {
		return err
	}
	if ok {
		log.Debug("already logged in", "site", m.site.Key)
		m.snapshot(ctx)
		return nil
	}

	if headless {
		return ErrLoginRequired
	}

	loginURL := m.site.LoginURL
	if loginURL == "" {
		loginURL = m.site.BaseURL
	}
	if err := m.session.Navigate(ctx, loginURL); err != nil {
		return fmt.Errorf("open login page: %w", err)
	}
	if err := m.WaitForLogin(ctx); err != nil {
		return err
	}

	m.snapshot(ctx)
	return nil
}

// WaitForLogin polls until the user completes the manual login or the wait
// times out. Completion means the browser is back under the site's base URL,
// off any SSO host, with logged-in markers present.
func (m *Manager) WaitForLogin(ctx context.Context) error {
	log := logging.From(ctx)
	log.Info("waiting for manual login in the browser window", "site", m.site.Key, "timeout", loginWait.String())

	timeout := time.After(loginWait)
	ticker := time.NewTicker(loginPoll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("manual login timed out after %s", loginWait)
		case <-ticker.C:
			loc, err := m.session.Location(ctx)
			if err != nil {
				if errors.Is(err, browser.ErrNotRunning) {
					return err
				}
				continue
			}
			if !strings.HasPrefix(loc, m.site.BaseURL) || m.onSSOHost(loc) {
				continue
			}

			ok, err := m.Status(ctx)
			if err != nil {
				if errors.Is(err, browser.ErrNotRunning) {
					return err
				}
				continue
			}
			if ok {
				log.Info("login detected", "site", m.site.Key)
				return nil
			}
		}
	}
}

// RestoreCookies injects a stored snapshot into the session. Used when the
// browser profile is fresh but a snapshot from an earlier profile survives.
func (m *Manager) RestoreCookies(ctx context.Context) error {
	if m.cookies == nil {
		return nil
	}
	if !m.cookies.IsValid() {
		// An expired or emptied snapshot can only mislead later runs.
		_ = m.cookies.Clear()
		return nil
	}

	stored, err := m.cookies.Load()
	if err != nil {
		return err
	}
	if err := m.session.SetCookies(ctx, stored.Cookies); err != nil {
		return fmt.Errorf("inject cookies: %w", err)
	}

	logging.From(ctx).Info("restored cookie snapshot",
		"site", m.site.Key, "captured_at", stored.CapturedAt.Format(time.RFC3339))
	return nil
}

// snapshot exports the session cookies, best effort: a failed snapshot
// never fails the run, it only costs a future manual login.
func (m *Manager) snapshot(ctx context.Context) {
	if m.cookies == nil {
		return
	}
	log := logging.From(ctx)

	cookies, err := m.session.Cookies(ctx)
	if err != nil {
		log.Warn("cookie export failed", "error", err)
		return
	}
	if err := m.cookies.Save(cookies); err != nil {
		log.Warn("cookie snapshot not saved", "error", err)
		return
	}
	log.Debug("cookie snapshot saved", "site", m.site.Key, "cookies", len(cookies))
}

// anyPresent checks all selectors in one page round trip.
func (m *Manager) anyPresent(ctx context.Context, selectors []string) (bool, error) {
	if len(selectors) == 0 {
		return false, nil
	}
	sels, err := json.Marshal(selectors)
	if err != nil {
		return false, err
	}

	js := fmt.Sprintf(`%s.some(function(sel) {
		try { return document.querySelector(sel) !== null; } catch (e) { return false; }
	})`, sels)

	var present bool
	if err := m.session.Evaluate(ctx, js, &present); err != nil {
		return false, err
	}
	return present, nil
}

func (m *Manager) onSSOHost(rawURL string) bool {
	for _, h := range m.site.SSOHosts {
		if h != "" && strings.Contains(rawURL, h) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
