// Package app wires config, browser, auth, reader, store, and notify into
// the operations the CLI exposes: browse runs, manual login, history, and
// scheduled runs.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/zduu/star-auto/internal/auth"
	"github.com/zduu/star-auto/internal/browser"
	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/logging"
	"github.com/zduu/star-auto/internal/notify"
	"github.com/zduu/star-auto/internal/reader"
	"github.com/zduu/star-auto/internal/report"
	"github.com/zduu/star-auto/internal/scheduler"
	"github.com/zduu/star-auto/internal/site"
	"github.com/zduu/star-auto/internal/store"
	"github.com/zduu/star-auto/internal/types"
)

// SessionError marks failures of the browser process itself: it refused to
// launch, or died under us. The CLI points the user at the starfix tool for
// these, and only these.
type SessionError struct {
	Err error
}

func (e *SessionError) Error() string { return "browser session: " + e.Err.Error() }

func (e *SessionError) Unwrap() error { return e.Err }

// App holds the long-lived application state.
type App struct {
	configPath string
	dataDir    string
	log        *slog.Logger
	store      *store.Store

	// cfg may be replaced by ReloadConfig or the configure flow.
	mu  sync.RWMutex
	cfg *config.Config
}

// New creates the App. The history database lives next to the config file.
func New(configPath string, cfg *config.Config, log *slog.Logger) (*App, error) {
	if log == nil {
		log = slog.Default()
	}
	dataDir := filepath.Dir(configPath)
	st, err := store.New(filepath.Join(dataDir, "history.db"))
	if err != nil {
		return nil, fmt.Errorf("opening history store: %w", err)
	}
	return &App{
		configPath: configPath,
		dataDir:    dataDir,
		log:        log,
		store:      st,
		cfg:        cfg,
	}, nil
}

// Close releases the history store.
func (a *App) Close() error {
	return a.store.Close()
}

// Config returns the current configuration.
func (a *App) Config() *config.Config {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.cfg
}

// SetConfig replaces the in-memory configuration.
func (a *App) SetConfig(cfg *config.Config) {
	a.mu.Lock()
	a.cfg = cfg
	a.mu.Unlock()
}

// ReloadConfig re-reads the config file from disk.
func (a *App) ReloadConfig() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.SetConfig(cfg)
	a.log.Info("configuration reloaded", "path", a.configPath)
	return nil
}

// SaveConfig writes the current configuration back to disk.
func (a *App) SaveConfig() error {
	return a.Config().Save(a.configPath)
}

// DataDir is where profiles, cookies, and the history database live.
func (a *App) DataDir() string {
	return a.dataDir
}

// RunBrowse performs one full browse session: resolve parameters, start the
// browser, ensure the login, read topics, and record the outcome. A nil
// record with nil error means the resolved cycle count was zero and there
// was nothing to do.
func (a *App) RunBrowse(ctx context.Context, ov config.Overrides, prompts config.PromptSource) (*store.Session, error) {
	cfg := a.Config()

	params, err := config.Resolve(cfg, ov, prompts)
	if err != nil {
		return nil, err
	}
	if params.Cycles == 0 {
		return nil, nil
	}

	siteCfg, _ := cfg.Site(params.SiteKey)
	rs, err := site.Resolve(params.SiteKey, siteCfg, a.dataDir)
	if err != nil {
		return nil, err
	}

	// A profile dir that already exists usually carries the login; only a
	// fresh one is worth seeding from saved cookies.
	freshProfile := false
	if _, err := os.Stat(rs.UserDataDir); os.IsNotExist(err) {
		freshProfile = true
	}

	opts := browser.DefaultOptions()
	opts.Headless = params.Headless
	opts.UserDataDir = rs.UserDataDir
	sess := browser.NewSession(opts)
	if err := sess.Start(ctx); err != nil {
		return nil, &SessionError{Err: err}
	}
	defer sess.Stop()

	log := a.log.With("site", params.SiteKey, "session_id", sess.ID())
	ctx = logging.With(ctx, log)
	log.Info("browse session starting",
		"mode", params.Mode, "cycles", params.Cycles, "headless", params.Headless, "like", params.Like)

	record := &store.Session{
		ID:              sess.ID(),
		Site:            params.SiteKey,
		Mode:            string(params.Mode),
		StartedAt:       time.Now(),
		CyclesRequested: params.Cycles,
		Status:          store.StatusRunning,
	}
	if err := a.store.CreateSession(record); err != nil {
		log.Warn("recording session start failed", "error", err)
	}

	cookies := auth.NewCookieStore(auth.CookiePath(a.dataDir, params.SiteKey))
	mgr := auth.NewManager(sess, rs, cookies)
	if freshProfile {
		if err := mgr.RestoreCookies(ctx); err != nil {
			log.Warn("restoring saved cookies failed", "error", err)
		}
	}
	if err := mgr.EnsureLoggedIn(ctx, params.Headless); err != nil {
		a.finish(record, store.StatusFailed, err.Error())
		if errors.Is(err, auth.ErrLoginRequired) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return record, err
		}
		return record, &SessionError{Err: err}
	}

	stats, runErr := reader.New(sess, rs, params, cfg.Delays, a.store, sess.ID(), log).Run(ctx)
	record.CyclesCompleted = stats.CyclesCompleted
	record.LikesGiven = stats.LikesGiven

	if runErr != nil {
		a.finish(record, store.StatusFailed, runErr.Error())
		if errors.Is(runErr, browser.ErrNotRunning) {
			return record, &SessionError{Err: runErr}
		}
		return record, runErr
	}
	a.finish(record, store.StatusCompleted, "")
	log.Info("browse session finished",
		"cycles_completed", stats.CyclesCompleted, "likes_given", stats.LikesGiven)
	return record, nil
}

// finish stamps the record and persists the final state.
func (a *App) finish(record *store.Session, status, errMsg string) {
	record.FinishedAt = time.Now()
	record.Status = status
	record.Error = errMsg
	stats := types.RunStats{
		CyclesRequested: record.CyclesRequested,
		CyclesCompleted: record.CyclesCompleted,
		LikesGiven:      record.LikesGiven,
	}
	if err := a.store.FinishSession(record.ID, stats, status, errMsg); err != nil {
		a.log.Warn("recording session finish failed", "session_id", record.ID, "error", err)
	}
}

// Login opens a visible browser against the site's login page and waits for
// the user to complete the login. An empty siteKey means the default site.
func (a *App) Login(ctx context.Context, siteKey string) error {
	cfg := a.Config()
	if siteKey == "" {
		siteKey = cfg.DefaultSite
	}
	siteCfg, ok := cfg.Site(siteKey)
	if !ok {
		return fmt.Errorf("%w: %q", config.ErrUnknownSite, siteKey)
	}
	rs, err := site.Resolve(siteKey, siteCfg, a.dataDir)
	if err != nil {
		return err
	}

	opts := browser.DefaultOptions()
	opts.Headless = false
	opts.UserDataDir = rs.UserDataDir
	sess := browser.NewSession(opts)
	if err := sess.Start(ctx); err != nil {
		return &SessionError{Err: err}
	}
	defer sess.Stop()

	log := a.log.With("site", siteKey, "session_id", sess.ID())
	ctx = logging.With(ctx, log)

	mgr := auth.NewManager(sess, rs, auth.NewCookieStore(auth.CookiePath(a.dataDir, siteKey)))
	if err := mgr.EnsureLoggedIn(ctx, false); err != nil {
		return err
	}
	log.Info("login complete", "site", siteKey)
	return nil
}

// History renders the most recent sessions. A non-positive limit means 20.
func (a *App) History(limit int) (string, error) {
	if limit <= 0 {
		limit = 20
	}
	sessions, err := a.store.RecentSessions(limit)
	if err != nil {
		return "", err
	}
	total, err := a.store.TotalLikes()
	if err != nil {
		return "", err
	}
	return report.BuildHistory(sessions, total), nil
}

// Summary renders the per-cycle report of one finished session.
func (a *App) Summary(record *store.Session) string {
	cycles, err := a.store.SessionCycles(record.ID)
	if err != nil {
		a.log.Warn("loading session cycles failed", "session_id", record.ID, "error", err)
	}
	return report.BuildRunSummary(*record, cycles)
}

// NotifyRun delivers the run summary through the configured notification
// provider. No provider configured is a no-op.
func (a *App) NotifyRun(record *store.Session, summary string) error {
	n, err := notify.NewFromConfig(a.Config().Notify)
	if err != nil {
		return err
	}
	if n == nil {
		return nil
	}
	subject := fmt.Sprintf("star-auto run %s: %d/%d cycles, %d likes",
		record.Status, record.CyclesCompleted, record.CyclesRequested, record.LikesGiven)
	return n.Send(subject, summary)
}

// Schedule runs browse sessions on a cron schedule until ctx is cancelled.
// An empty spec falls back to the configured one.
func (a *App) Schedule(ctx context.Context, spec string, ov config.Overrides) error {
	cfg := a.Config()
	if spec == "" {
		spec = cfg.Schedule.Spec
	}
	if spec == "" {
		return errors.New("no cron spec: pass --cron or set schedule.spec in the config")
	}

	sched, err := scheduler.New(cfg.Schedule.Timezone, a.log)
	if err != nil {
		return err
	}
	err = sched.AddJob("browse", spec, func(jobCtx context.Context) error {
		record, err := a.RunBrowse(jobCtx, ov, nil)
		if record != nil {
			summary := a.Summary(record)
			if nerr := a.NotifyRun(record, summary); nerr != nil {
				a.log.Warn("sending run notification failed", "error", nerr)
			}
		}
		return err
	})
	if err != nil {
		return err
	}

	sched.Start()
	a.log.Info("scheduler running", "spec", spec, "timezone", cfg.Schedule.Timezone)
	<-ctx.Done()
	a.log.Info("scheduler stopping")
	<-sched.Stop().Done()
	return nil
}
