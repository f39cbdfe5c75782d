package doctor

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zduu/star-auto/internal/platform"
)

func passingHooks() Hooks {
	return Hooks{
		Family:        func() string { return "linux" },
		FindBrowser:   func(string) (string, error) { return "/usr/bin/google-chrome", nil },
		KillProcesses: func(string) []string { return []string{"chrome", "chromium"} },
		StaleTempDirs: func() []string { return nil },
		Clean:         func(dirs []string) ([]string, error) { return dirs, nil },
		LaunchTest: func(context.Context, string) (string, error) {
			return "user agent: HeadlessChrome/120.0", nil
		},
	}
}

func stepByName(t *testing.T, steps []StepResult, name string) StepResult {
	t.Helper()
	for _, s := range steps {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no step named %q in %v", name, steps)
	return StepResult{}
}

func TestRunAllPass(t *testing.T) {
	steps, pass := Run(context.Background(), Options{}, passingHooks())
	if !pass {
		t.Errorf("Run pass = false, want true; steps %v", steps)
	}
	for _, s := range steps {
		if !s.OK {
			t.Errorf("step %q failed: %s", s.Name, s.Detail)
		}
	}
	if got := stepByName(t, steps, "browser executable"); got.Detail != "/usr/bin/google-chrome" {
		t.Errorf("browser step detail = %q, want the executable path", got.Detail)
	}
}

func TestRunNoBrowserSkipsLaunch(t *testing.T) {
	hooks := passingHooks()
	hooks.FindBrowser = func(string) (string, error) { return "", errors.New("no chrome or chromium executable found") }
	launched := false
	hooks.LaunchTest = func(context.Context, string) (string, error) {
		launched = true
		return "", nil
	}

	steps, pass := Run(context.Background(), Options{}, hooks)
	if pass {
		t.Error("Run pass = true, want false without a browser")
	}
	if launched {
		t.Error("launch test ran without a browser executable")
	}
	launch := stepByName(t, steps, "launch test")
	if launch.OK || !strings.Contains(launch.Detail, "skipped") {
		t.Errorf("launch step = %+v, want skipped failure", launch)
	}
}

func TestRunLaunchFailure(t *testing.T) {
	hooks := passingHooks()
	hooks.LaunchTest = func(context.Context, string) (string, error) {
		return "", errors.New("starting browser: context deadline exceeded")
	}

	steps, pass := Run(context.Background(), Options{}, hooks)
	if pass {
		t.Error("Run pass = true, want false when the launch test fails")
	}
	launch := stepByName(t, steps, "launch test")
	if launch.OK {
		t.Error("launch step OK = true, want false")
	}
	if !strings.Contains(launch.Detail, "deadline") {
		t.Errorf("launch detail = %q, want the underlying error", launch.Detail)
	}
}

func TestRunWipesProfilesOnlyWhenAsked(t *testing.T) {
	var removed []string
	hooks := passingHooks()
	hooks.Clean = func(dirs []string) ([]string, error) {
		removed = append(removed, dirs...)
		return dirs, nil
	}
	profiles := []string{"/data/profiles/chrome_user_data_shuiyuan"}

	steps, _ := Run(context.Background(), Options{ProfileDirs: profiles}, hooks)
	for _, s := range steps {
		if s.Name == "site profiles" {
			t.Error("profile step ran without WipeProfiles")
		}
	}
	if len(removed) != 0 {
		t.Errorf("removed %v without WipeProfiles", removed)
	}

	steps, pass := Run(context.Background(), Options{WipeProfiles: true, ProfileDirs: profiles}, hooks)
	if !pass {
		t.Errorf("Run pass = false, want true; steps %v", steps)
	}
	profileStep := stepByName(t, steps, "site profiles")
	if !profileStep.OK || !strings.Contains(profileStep.Detail, "removed 1") {
		t.Errorf("profile step = %+v, want one removal", profileStep)
	}
	if len(removed) != 1 || removed[0] != profiles[0] {
		t.Errorf("removed = %v, want %v", removed, profiles)
	}
}

func TestRunStaleTempFailureFailsStep(t *testing.T) {
	hooks := passingHooks()
	hooks.StaleTempDirs = func() []string {
		return []string{"/tmp/chromedp-runner1", "/tmp/chrome_locked"}
	}
	cleaner := &platform.Cleaner{RemoveAll: func(path string) error {
		if strings.Contains(path, "locked") {
			return errors.New("permission denied")
		}
		return nil
	}}
	hooks.Clean = cleaner.Clean

	steps, pass := Run(context.Background(), Options{}, hooks)
	if pass {
		t.Error("Run pass = true, want false when a temp dir cannot be removed")
	}
	temp := stepByName(t, steps, "stale temp dirs")
	if temp.OK {
		t.Error("temp step OK = true, want false")
	}
	if !strings.Contains(temp.Detail, "removed 1 of 2") {
		t.Errorf("temp detail = %q, want partial removal summary", temp.Detail)
	}
}

func TestCleanDirsEmpty(t *testing.T) {
	got := cleanDirs("stale temp dirs", nil, func([]string) ([]string, error) {
		t.Error("clean called with no dirs")
		return nil, nil
	})
	if !got.OK || got.Detail != "nothing to clean" {
		t.Errorf("cleanDirs = %+v, want clean pass", got)
	}
}
