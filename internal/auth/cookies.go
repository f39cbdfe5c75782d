package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chromedp/cdproto/network"
)

// sessionCookieNames are the cookies Discourse issues for an authenticated
// session. Their earliest expiry bounds how long a snapshot stays usable.
var sessionCookieNames = []string{"_t", "_forum_session"}

// StoredCookies is the on-disk snapshot format.
type StoredCookies struct {
	Cookies    []*network.Cookie `json:"cookies"`
	CapturedAt time.Time         `json:"captured_at"`
	ExpiresAt  time.Time         `json:"expires_at"`
}

// CookieStore persists one site's session cookies as a fallback next to the
// browser profile: if the profile directory is lost, the snapshot restores
// the login without another manual round.
type CookieStore struct {
	path string
}

// NewCookieStore creates a cookie store backed by the given file.
func NewCookieStore(path string) *CookieStore {
	return &CookieStore{path: path}
}

// CookiePath returns the snapshot location for a site key under dataDir.
func CookiePath(dataDir, siteKey string) string {
	return filepath.Join(dataDir, fmt.Sprintf("cookies_%s.json", siteKey))
}

// Save writes a snapshot. Expiry is the earliest expiry among the session
// cookies; zero when only browser-session-scoped cookies are present.
func (cs *CookieStore) Save(cookies []*network.Cookie) error {
	if err := os.MkdirAll(filepath.Dir(cs.path), 0700); err != nil {
		return fmt.Errorf("create cookie dir: %w", err)
	}

	var earliest time.Time
	for _, c := range cookies {
		if !isSessionCookie(c.Name) || c.Expires <= 0 {
			continue
		}
		exp := time.Unix(int64(c.Expires), 0)
		if earliest.IsZero() || exp.Before(earliest) {
			earliest = exp
		}
	}

	stored := StoredCookies{
		Cookies:    cookies,
		CapturedAt: time.Now(),
		ExpiresAt:  earliest,
	}
	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cookies: %w", err)
	}

	// 0600: the snapshot is a login credential.
	if err := os.WriteFile(cs.path, data, 0600); err != nil {
		return fmt.Errorf("write cookies: %w", err)
	}
	return nil
}

// Load reads the snapshot from disk.
func (cs *CookieStore) Load() (*StoredCookies, error) {
	data, err := os.ReadFile(cs.path)
	if err != nil {
		return nil, err
	}

	var stored StoredCookies
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse cookies %s: %w", cs.path, err)
	}
	return &stored, nil
}

// IsValid reports whether a snapshot exists, has not passed its expiry, and
// still carries at least one session cookie.
func (cs *CookieStore) IsValid() bool {
	stored, err := cs.Load()
	if err != nil {
		return false
	}
	if !stored.ExpiresAt.IsZero() && time.Now().After(stored.ExpiresAt) {
		return false
	}
	for _, c := range stored.Cookies {
		if isSessionCookie(c.Name) {
			return true
		}
	}
	return false
}

// Clear removes the snapshot. Missing files are fine.
func (cs *CookieStore) Clear() error {
	err := os.Remove(cs.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func isSessionCookie(name string) bool {
	for _, want := range sessionCookieNames {
		if name == want {
			return true
		}
	}
	return false
}
