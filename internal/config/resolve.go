package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zduu/star-auto/internal/types"
)

// Sentinel errors from parameter resolution. The CLI treats these as usage
// failures, not browser-session failures.
var (
	// ErrDirectNeedsURL is returned when direct mode is requested but no
	// topic URL is resolvable from flags, the config file, or prompts.
	ErrDirectNeedsURL = errors.New("direct mode needs a topic URL")

	// ErrURLOutsideSite is returned when a direct URL does not live under
	// the selected site's base URL and nobody confirmed it.
	ErrURLOutsideSite = errors.New("topic URL is outside the selected site")

	// ErrUnknownSite is returned when the requested site key is not
	// configured.
	ErrUnknownSite = errors.New("unknown site")
)

// RunParams are the effective parameters of one browse run after precedence
// resolution.
type RunParams struct {
	SiteKey  string
	Mode     types.Mode
	URL      string
	Cycles   int
	Headless bool
	Like     bool
}

// Overrides carries command-line values into Resolve. Nil fields mean "flag
// not supplied", keeping zero values distinguishable from explicit ones.
type Overrides struct {
	SiteKey  *string
	Mode     *string
	URL      *string
	Cycles   *int
	Headless *bool
	Like     *bool
}

// PromptSource supplies interactively gathered values when flags and the
// config file leave a required parameter unset. A nil PromptSource disables
// prompting, so non-interactive runs fail fast instead of hanging.
type PromptSource interface {
	// DirectURL asks for the topic URL of a direct-mode run.
	DirectURL() (string, error)

	// ConfirmForeignURL asks whether a URL outside the site's base URL
	// should be visited anyway.
	ConfirmForeignURL(rawURL, baseURL string) (bool, error)
}

// Resolve computes the effective run parameters. Precedence per value:
// command-line override, then config file, then interactive prompt, then
// built-in default.
func Resolve(cfg *Config, ov Overrides, prompts PromptSource) (RunParams, error) {
	p := RunParams{
		SiteKey:  cfg.DefaultSite,
		Mode:     normalizeMode(cfg.Run.Mode),
		URL:      strings.TrimSpace(cfg.Run.URL),
		Cycles:   cfg.Run.Cycles,
		Headless: cfg.Run.Headless,
		Like:     cfg.Run.Like,
	}

	if ov.SiteKey != nil {
		p.SiteKey = strings.TrimSpace(*ov.SiteKey)
	}
	if ov.Mode != nil {
		p.Mode = normalizeMode(*ov.Mode)
	}
	if ov.URL != nil {
		p.URL = strings.TrimSpace(*ov.URL)
	}
	if ov.Cycles != nil {
		p.Cycles = *ov.Cycles
	}
	if ov.Headless != nil {
		p.Headless = *ov.Headless
	}
	if ov.Like != nil {
		p.Like = *ov.Like
	}

	if !p.Mode.Valid() {
		return RunParams{}, fmt.Errorf("unknown mode %q (want %q or %q)",
			p.Mode, types.ModeRandom, types.ModeDirect)
	}
	if p.Cycles < 0 {
		return RunParams{}, fmt.Errorf("cycles must be >= 0, got %d", p.Cycles)
	}

	site, ok := cfg.Site(p.SiteKey)
	if !ok {
		return RunParams{}, fmt.Errorf("%w: %q", ErrUnknownSite, p.SiteKey)
	}

	if p.Mode == types.ModeDirect {
		// A persisted cycle count belongs to random browsing. When the
		// mode is switched on the command line, a direct run visits its
		// topic once unless the cycles flag says otherwise.
		if ov.Cycles == nil && normalizeMode(cfg.Run.Mode) != types.ModeDirect {
			p.Cycles = 1
		}

		if p.URL == "" && prompts != nil {
			u, err := prompts.DirectURL()
			if err != nil {
				return RunParams{}, err
			}
			p.URL = strings.TrimSpace(u)
		}
		if p.URL == "" {
			return RunParams{}, ErrDirectNeedsURL
		}

		base := strings.TrimRight(site.BaseURL, "/")
		if !strings.HasPrefix(p.URL, base) {
			if prompts == nil {
				return RunParams{}, fmt.Errorf("%w: %s is not under %s", ErrURLOutsideSite, p.URL, base)
			}
			confirmed, err := prompts.ConfirmForeignURL(p.URL, base)
			if err != nil {
				return RunParams{}, err
			}
			if !confirmed {
				return RunParams{}, fmt.Errorf("%w: %s is not under %s", ErrURLOutsideSite, p.URL, base)
			}
		}
	}

	return p, nil
}

func normalizeMode(mode string) types.Mode {
	return types.Mode(strings.ToLower(strings.TrimSpace(mode)))
}
