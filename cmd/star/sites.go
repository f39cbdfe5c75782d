package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/prompt"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List and manage configured sites",
	RunE:  runSitesList,
}

var sitesAddCmd = &cobra.Command{
	Use:   "add [key]",
	Short: "Add a site (prompts for URLs)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSitesAdd,
}

var sitesRemoveCmd = &cobra.Command{
	Use:   "remove KEY",
	Short: "Remove a site",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesRemove,
}

var sitesDefaultCmd = &cobra.Command{
	Use:   "set-default KEY",
	Short: "Make a site the default",
	Args:  cobra.ExactArgs(1),
	RunE:  runSitesSetDefault,
}

func init() {
	sitesCmd.AddCommand(sitesAddCmd, sitesRemoveCmd, sitesDefaultCmd)
}

func runSitesList(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := a.Config()
	keys := cfg.SiteKeys()
	if len(keys) == 0 {
		fmt.Println("No sites configured. Add one with `star sites add`.")
		return nil
	}
	for _, k := range keys {
		s, _ := cfg.Site(k)
		marker := " "
		if k == cfg.DefaultSite {
			marker = "*"
		}
		fmt.Printf("%s %-16s %s\n", marker, k, s.BaseURL)
	}
	return nil
}

func runSitesAdd(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	p := prompt.New(nil, nil)
	name := p.String("Site name", "")
	base := p.String("Base URL", "")
	login := p.String("Login URL (empty to log in on the site itself)", "")

	key := name
	if len(args) == 1 {
		key = args[0]
	}

	cfg := a.Config()
	key, err = cfg.AddSite(key, config.SiteConfig{
		Name:     name,
		BaseURL:  base,
		LoginURL: login,
		Profile:  "discourse",
	})
	if err != nil {
		return err
	}
	a.SetConfig(cfg)
	if err := a.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Added site %q", key)
	if cfg.DefaultSite == key {
		fmt.Print(" (now the default)")
	}
	fmt.Println()
	return nil
}

func runSitesRemove(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := a.Config()
	if err := cfg.RemoveSite(args[0]); err != nil {
		return err
	}
	a.SetConfig(cfg)
	if err := a.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Removed site %q\n", args[0])
	if cfg.DefaultSite != "" {
		fmt.Printf("Default site is now %q\n", cfg.DefaultSite)
	}
	return nil
}

func runSitesSetDefault(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := a.Config()
	if err := cfg.SetDefaultSite(args[0]); err != nil {
		return err
	}
	a.SetConfig(cfg)
	if err := a.SaveConfig(); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Default site is now %q\n", args[0])
	return nil
}
