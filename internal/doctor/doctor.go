// Package doctor runs the browser-environment diagnostics behind the
// starfix tool: locate the executable, kill strays, sweep stale scratch
// dirs, optionally wipe saved site profiles, then prove a live launch.
package doctor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zduu/star-auto/internal/platform"
)

const defaultLaunchTimeout = 30 * time.Second

// StepResult is one diagnostic step's outcome.
type StepResult struct {
	Name   string
	OK     bool
	Detail string
}

// Options controls which optional steps run.
type Options struct {
	// WipeProfiles removes the saved site profile directories, forcing a
	// fresh login on the next run.
	WipeProfiles bool
	// ProfileDirs are the site profile directories to wipe.
	ProfileDirs []string
	// LaunchTimeout bounds the live launch test. Zero means 30s.
	LaunchTimeout time.Duration
}

// Hooks are the side-effecting operations the diagnostics run. Tests
// replace them; DefaultHooks wires the real system.
type Hooks struct {
	Family        func() string
	FindBrowser   func(family string) (string, error)
	KillProcesses func(family string) []string
	StaleTempDirs func() []string
	Clean         func(dirs []string) (removed []string, err error)
	LaunchTest    func(ctx context.Context, execPath string) (string, error)
}

// DefaultHooks returns Hooks backed by the real OS and a real browser
// launch.
func DefaultHooks() Hooks {
	finder := platform.NewFinder()
	killer := platform.NewKiller()
	cleaner := platform.NewCleaner()
	return Hooks{
		Family:        platform.Family,
		FindBrowser:   finder.Find,
		KillProcesses: killer.Kill,
		StaleTempDirs: cleaner.StaleTempDirs,
		Clean:         cleaner.Clean,
		LaunchTest:    launchTest,
	}
}

// Run executes the diagnostic steps in order and reports each outcome.
// The second return is the overall verdict: true only when every step
// passed.
func Run(ctx context.Context, opts Options, hooks Hooks) ([]StepResult, bool) {
	var steps []StepResult

	family := hooks.Family()
	steps = append(steps, StepResult{
		Name:   "operating system",
		OK:     true,
		Detail: family,
	})

	execPath, findErr := hooks.FindBrowser(family)
	if findErr != nil {
		steps = append(steps, StepResult{
			Name:   "browser executable",
			Detail: findErr.Error(),
		})
	} else {
		steps = append(steps, StepResult{
			Name:   "browser executable",
			OK:     true,
			Detail: execPath,
		})
	}

	killed := hooks.KillProcesses(family)
	steps = append(steps, StepResult{
		Name:   "stray processes",
		OK:     true,
		Detail: "signalled " + strings.Join(killed, ", "),
	})

	steps = append(steps, cleanDirs("stale temp dirs", hooks.StaleTempDirs(), hooks.Clean))

	if opts.WipeProfiles {
		steps = append(steps, cleanDirs("site profiles", opts.ProfileDirs, hooks.Clean))
	}

	if findErr != nil {
		steps = append(steps, StepResult{
			Name:   "launch test",
			Detail: "skipped: no browser executable",
		})
	} else {
		timeout := opts.LaunchTimeout
		if timeout <= 0 {
			timeout = defaultLaunchTimeout
		}
		launchCtx, cancel := context.WithTimeout(ctx, timeout)
		detail, err := hooks.LaunchTest(launchCtx, execPath)
		cancel()
		if err != nil {
			steps = append(steps, StepResult{
				Name:   "launch test",
				Detail: err.Error(),
			})
		} else {
			steps = append(steps, StepResult{
				Name:   "launch test",
				OK:     true,
				Detail: detail,
			})
		}
	}

	pass := true
	for _, s := range steps {
		if !s.OK {
			pass = false
		}
	}
	return steps, pass
}

// cleanDirs removes the directories and summarizes. No dirs is a pass,
// a removal failure is not.
func cleanDirs(name string, dirs []string, clean func([]string) ([]string, error)) StepResult {
	if len(dirs) == 0 {
		return StepResult{Name: name, OK: true, Detail: "nothing to clean"}
	}
	removed, err := clean(dirs)
	if err != nil {
		return StepResult{
			Name:   name,
			Detail: fmt.Sprintf("removed %d of %d, first failure: %v", len(removed), len(dirs), err),
		}
	}
	return StepResult{Name: name, OK: true, Detail: fmt.Sprintf("removed %d", len(removed))}
}
