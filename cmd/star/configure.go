package main

import (
	"fmt"

	"github.com/zduu/star-auto/internal/app"
	"github.com/zduu/star-auto/internal/prompt"
)

// runConfigure drives the interactive settings flow and prints where the
// result landed.
func runConfigure(a *app.App) error {
	fmt.Println("star configuration")
	fmt.Println()

	cfg, err := a.Configure(prompt.New(nil, nil))
	if err != nil {
		return err
	}

	path, _ := configPath()
	fmt.Println()
	fmt.Printf("Saved to %s\n", path)
	fmt.Printf("  site=%s mode=%s cycles=%d headless=%t like=%t\n",
		cfg.DefaultSite, cfg.Run.Mode, cfg.Run.Cycles, cfg.Run.Headless, cfg.Run.Like)
	return nil
}
