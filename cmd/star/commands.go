package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zduu/star-auto/internal/config"
)

// version is stamped by the release build.
var version = "dev"

var flagLoginSite string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Open a visible browser and wait for a manual login",
	Long: `login opens the site's login page in a visible browser and waits for
you to finish logging in. The login state lands in the site's browser
profile, so later runs (including headless ones) stay logged in.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := a.Login(ctx, flagLoginSite); err != nil {
			return err
		}
		fmt.Println("Login saved. Later runs can be headless.")
		return nil
	},
}

var flagHistoryLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent browse sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		out, err := a.History(flagHistoryLimit)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	},
}

var flagCron string

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run browse sessions on a cron schedule until interrupted",
	Long: `schedule keeps the process in the foreground and starts a browse
session with the saved settings whenever the cron spec fires. The spec comes
from --cron or the schedule section of the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, cleanup, err := setup()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return a.Schedule(ctx, flagCron, config.Overrides{})
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("star", version)
	},
}

func init() {
	loginCmd.Flags().StringVar(&flagLoginSite, "site", "", "site to log in to (default: the default site)")
	historyCmd.Flags().IntVar(&flagHistoryLimit, "limit", 20, "sessions to show")
	scheduleCmd.Flags().StringVar(&flagCron, "cron", "", "cron spec, e.g. \"0 9 * * *\" (default: config schedule.spec)")
}
