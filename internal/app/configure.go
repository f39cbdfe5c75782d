package app

import (
	"fmt"
	"strings"

	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/prompt"
	"github.com/zduu/star-auto/internal/types"
)

// Configure walks the saved run settings through the prompter, one key at a
// time, and persists the result. Returns the saved config so the caller can
// summarize it.
func (a *App) Configure(p *prompt.Prompter) (*config.Config, error) {
	cfg := a.Config()

	if keys := cfg.SiteKeys(); len(keys) > 0 {
		def := 0
		labels := make([]string, len(keys))
		for i, k := range keys {
			if k == cfg.DefaultSite {
				def = i
			}
			s, _ := cfg.Site(k)
			labels[i] = fmt.Sprintf("%s (%s)", k, s.BaseURL)
		}
		cfg.DefaultSite = keys[p.Choose("Default site", labels, def)]
	}

	modes := []string{string(types.ModeRandom), string(types.ModeDirect)}
	modeDef := 0
	if strings.EqualFold(cfg.Run.Mode, string(types.ModeDirect)) {
		modeDef = 1
	}
	cfg.Run.Mode = modes[p.Choose("Topic selection mode", modes, modeDef)]
	if cfg.Run.Mode == string(types.ModeDirect) {
		cfg.Run.URL = p.String("Topic URL", cfg.Run.URL)
	}

	cfg.Run.Cycles = p.Int("Browse cycles per run", cfg.Run.Cycles)
	cfg.Run.Headless = p.YesNo("Run the browser headless?", cfg.Run.Headless)
	cfg.Run.Like = p.YesNo("Like posts while reading?", cfg.Run.Like)

	a.SetConfig(cfg)
	if err := a.SaveConfig(); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}
	return cfg, nil
}
