package app

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zduu/star-auto/internal/browser"
	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/prompt"
	"github.com/zduu/star-auto/internal/store"
)

func testApp(t *testing.T) *App {
	t.Helper()
	dir := t.TempDir()
	a, err := New(filepath.Join(dir, "config.toml"), config.Default(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { a.Close() })
	return a
}

func TestSessionErrorUnwraps(t *testing.T) {
	err := &SessionError{Err: browser.ErrNotRunning}
	if !errors.Is(err, browser.ErrNotRunning) {
		t.Error("SessionError does not unwrap to its cause")
	}
	if !strings.Contains(err.Error(), "browser session") {
		t.Errorf("Error() = %q, want the browser session prefix", err.Error())
	}

	var se *SessionError
	wrapped := errors.Join(errors.New("outer"), err)
	if !errors.As(wrapped, &se) {
		t.Error("errors.As failed to find SessionError in a wrapped chain")
	}
}

func TestNewOpensStoreNextToConfig(t *testing.T) {
	a := testApp(t)
	if a.DataDir() == "" {
		t.Fatal("DataDir is empty")
	}
	out, err := a.History(5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded") {
		t.Errorf("History on empty store = %q", out)
	}
}

func TestSetAndReloadConfig(t *testing.T) {
	a := testApp(t)

	cfg := config.Default()
	cfg.Run.Cycles = 9
	a.SetConfig(cfg)
	if got := a.Config().Run.Cycles; got != 9 {
		t.Errorf("Config().Run.Cycles = %d, want 9", got)
	}

	if err := a.SaveConfig(); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}
	a.SetConfig(config.Default())
	if err := a.ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if got := a.Config().Run.Cycles; got != 9 {
		t.Errorf("after reload Run.Cycles = %d, want the saved 9", got)
	}
}

func TestNotifyRunNoProviderIsNoop(t *testing.T) {
	a := testApp(t)
	record := &store.Session{ID: "s1", Status: store.StatusCompleted}
	if err := a.NotifyRun(record, "summary"); err != nil {
		t.Errorf("NotifyRun with no provider = %v, want nil", err)
	}
}

func TestSummaryRendersStoredCycles(t *testing.T) {
	a := testApp(t)
	record := &store.Session{
		ID:              "11111111-2222-3333-4444-555555555555",
		Site:            "shuiyuan",
		Mode:            "random",
		StartedAt:       time.Now(),
		CyclesRequested: 2,
		Status:          store.StatusRunning,
	}
	if err := a.store.CreateSession(record); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	out := a.Summary(record)
	if !strings.Contains(out, "shuiyuan") {
		t.Errorf("Summary = %q, want the site name", out)
	}
}

func TestRunBrowseZeroCyclesShortCircuits(t *testing.T) {
	a := testApp(t)
	cycles := 0

	record, err := a.RunBrowse(t.Context(), config.Overrides{Cycles: &cycles}, nil)
	if err != nil {
		t.Fatalf("RunBrowse: %v", err)
	}
	if record != nil {
		t.Errorf("record = %+v, want nil: zero cycles must not open a session", record)
	}

	out, err := a.History(5)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if !strings.Contains(out, "No sessions recorded") {
		t.Errorf("history after zero-cycle run = %q, want no recorded sessions", out)
	}
}

func TestConfigurePersistsChoices(t *testing.T) {
	a := testApp(t)

	// site 1, direct mode, URL, 3 cycles, headless yes, like no
	input := strings.Join([]string{
		"1",
		"2",
		"https://shuiyuan.sjtu.edu.cn/t/topic/123",
		"3",
		"y",
		"n",
	}, "\n") + "\n"
	p := prompt.New(strings.NewReader(input), io.Discard)

	cfg, err := a.Configure(p)
	if err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if cfg.Run.Mode != "direct" {
		t.Errorf("Run.Mode = %q, want direct", cfg.Run.Mode)
	}
	if cfg.Run.URL != "https://shuiyuan.sjtu.edu.cn/t/topic/123" {
		t.Errorf("Run.URL = %q", cfg.Run.URL)
	}
	if cfg.Run.Cycles != 3 {
		t.Errorf("Run.Cycles = %d, want 3", cfg.Run.Cycles)
	}
	if !cfg.Run.Headless || cfg.Run.Like {
		t.Errorf("Headless=%t Like=%t, want true/false", cfg.Run.Headless, cfg.Run.Like)
	}

	a.SetConfig(config.Default())
	if err := a.ReloadConfig(); err != nil {
		t.Fatalf("ReloadConfig: %v", err)
	}
	if got := a.Config().Run.Cycles; got != 3 {
		t.Errorf("reloaded Run.Cycles = %d, want the saved 3", got)
	}
}

func TestScheduleRejectsEmptySpec(t *testing.T) {
	a := testApp(t)
	cfg := a.Config()
	cfg.Schedule.Spec = ""
	a.SetConfig(cfg)

	err := a.Schedule(t.Context(), "", config.Overrides{})
	if err == nil || !strings.Contains(err.Error(), "cron spec") {
		t.Errorf("Schedule with no spec = %v, want a cron spec error", err)
	}
}
