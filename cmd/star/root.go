package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zduu/star-auto/internal/app"
	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/logging"
	"github.com/zduu/star-auto/internal/prompt"
)

var (
	flagConfig    string
	flagConfigure bool
	flagNoInput   bool

	flagSite       string
	flagBaseURL    string
	flagMode       string
	flagURL        string
	flagCycles     int
	flagHeadless   bool
	flagNoHeadless bool
	flagLike       bool
	flagNoLike     bool
)

var rootCmd = &cobra.Command{
	Use:   "star",
	Short: "Automated Discourse forum browsing",
	Long: `star opens topics on a Discourse forum, scrolls through them at a
human reading pace, and optionally likes the posts it passes. Login state
persists in a per-site browser profile, so one visible login is enough.

Run it bare to browse with the saved settings. Flags override individual
settings for one run; --configure rewrites them interactively.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runRoot,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagConfig, "config", "", "config file (default: <user config dir>/star-auto/config.toml)")

	f := rootCmd.Flags()
	f.BoolVar(&flagConfigure, "configure", false, "interactively rewrite the saved settings, then exit")
	f.BoolVar(&flagNoInput, "no-input", false, "never prompt; fail where input would be needed")
	f.StringVar(&flagSite, "site", "", "site key to browse (see `star sites`)")
	f.StringVar(&flagBaseURL, "base-url", "", "browse an unconfigured Discourse site by base URL")
	f.StringVar(&flagMode, "mode", "", "topic selection: random or direct")
	f.StringVar(&flagURL, "url", "", "topic URL for direct mode")
	f.IntVar(&flagCycles, "cycles", 0, "browse cycles to run")
	f.BoolVar(&flagHeadless, "headless", false, "run the browser headless")
	f.BoolVar(&flagNoHeadless, "no-headless", false, "run the browser visibly")
	f.BoolVar(&flagLike, "like", false, "like posts while reading")
	f.BoolVar(&flagNoLike, "no-like", false, "read only, never like")
	rootCmd.MarkFlagsMutuallyExclusive("headless", "no-headless")
	rootCmd.MarkFlagsMutuallyExclusive("like", "no-like")
	rootCmd.MarkFlagsMutuallyExclusive("site", "base-url")

	rootCmd.AddCommand(loginCmd, historyCmd, scheduleCmd, sitesCmd, versionCmd)
}

// configPath resolves the config file location from the flag or the
// platform default.
func configPath() (string, error) {
	if flagConfig != "" {
		return flagConfig, nil
	}
	return config.DefaultPath()
}

// loadOrDefault reads the config file; a missing file means first run and
// yields the defaults.
func loadOrDefault(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg, nil
}

// setup loads the config, installs logging, and builds the App. The
// returned cleanup closes the history store and the log file.
func setup() (*app.App, func(), error) {
	path, err := configPath()
	if err != nil {
		return nil, nil, fmt.Errorf("locating config dir: %w", err)
	}
	cfg, err := loadOrDefault(path)
	if err != nil {
		return nil, nil, err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File {
		logCfg.Dir = filepath.Join(filepath.Dir(path), "logs")
	}
	log, closeLog, err := logging.Setup(logCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("setting up logging: %w", err)
	}

	a, err := app.New(path, cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, err
	}
	return a, func() {
		a.Close()
		closeLog()
	}, nil
}

func runRoot(cmd *cobra.Command, args []string) error {
	a, cleanup, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagConfigure {
		return runConfigure(a)
	}

	ov, err := gatherOverrides(cmd, a)
	if err != nil {
		return err
	}

	record, err := a.RunBrowse(ctx, ov, prompts())
	if record != nil {
		summary := a.Summary(record)
		fmt.Print(summary)
		if nerr := a.NotifyRun(record, summary); nerr != nil {
			logging.L().Warn("sending run notification failed", "error", nerr)
		}
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Interrupted.")
			return nil
		}
		return err
	}
	if record == nil {
		fmt.Println("Nothing to do: cycle count is 0.")
	}
	return nil
}

// gatherOverrides turns the flags that were actually passed into resolver
// overrides, so unset flags never mask config values.
func gatherOverrides(cmd *cobra.Command, a *app.App) (config.Overrides, error) {
	var ov config.Overrides
	flags := cmd.Flags()

	if flagBaseURL != "" {
		key, err := adhocSite(a, flagBaseURL)
		if err != nil {
			return ov, err
		}
		ov.SiteKey = &key
	} else if flags.Changed("site") {
		ov.SiteKey = &flagSite
	}
	if flags.Changed("mode") {
		ov.Mode = &flagMode
	}
	if flags.Changed("url") {
		ov.URL = &flagURL
	}
	if flags.Changed("cycles") {
		ov.Cycles = &flagCycles
	}
	if flagHeadless || flagNoHeadless {
		v := flagHeadless
		ov.Headless = &v
	}
	if flagLike || flagNoLike {
		v := flagLike
		ov.Like = &v
	}
	return ov, nil
}

// adhocSite registers a one-off site for --base-url in the in-memory config
// only; nothing is written to disk.
func adhocSite(a *app.App, baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "", fmt.Errorf("invalid --base-url %q", baseURL)
	}
	key := config.SanitizeSiteKey(u.Hostname())
	cfg := a.Config()
	if _, ok := cfg.Site(key); !ok {
		if cfg.Sites == nil {
			cfg.Sites = map[string]config.SiteConfig{}
		}
		cfg.Sites[key] = config.SiteConfig{
			Name:    u.Hostname(),
			BaseURL: strings.TrimRight(baseURL, "/"),
			Profile: "discourse",
		}
		a.SetConfig(cfg)
	}
	return key, nil
}

// promptSource adapts the terminal prompter to the resolver.
type promptSource struct {
	p *prompt.Prompter
}

func (ps promptSource) DirectURL() (string, error) {
	return ps.p.String("Topic URL", ""), nil
}

func (ps promptSource) ConfirmForeignURL(rawURL, baseURL string) (bool, error) {
	fmt.Printf("The URL %s is outside the site %s.\n", rawURL, baseURL)
	return ps.p.YesNo("Visit it anyway?", false), nil
}

// prompts returns the interactive prompt source, or nil under --no-input.
func prompts() config.PromptSource {
	if flagNoInput {
		return nil
	}
	return promptSource{p: prompt.New(nil, nil)}
}
