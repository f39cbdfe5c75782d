// Package reader drives the browse cycles: topic selection, scroll-paced
// reading, and the like pass over whatever is in view.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/zduu/star-auto/internal/browser"
	"github.com/zduu/star-auto/internal/config"
	"github.com/zduu/star-auto/internal/site"
	"github.com/zduu/star-auto/internal/types"
)

const (
	// scrollStep is the absolute scroll advance per reading step.
	scrollStep = 400

	// bottomMargin is how close to the page bottom counts as arrived.
	bottomMargin = 100

	// maxScrollSteps caps runaway topics that keep growing while read.
	maxScrollSteps = 100

	// cycleAttempts is how often one cycle is tried before it is skipped.
	cycleAttempts = 2
)

// History receives outcomes as they happen. The store implements it; tests
// substitute a recorder.
type History interface {
	SaveCycle(sessionID string, c types.CycleResult) error
	SaveLike(sessionID string, l types.LikeEvent) error
}

// Reader runs the browse cycles of one session.
type Reader struct {
	session   *browser.Session
	site      *site.Resolved
	params    config.RunParams
	delays    config.DelayConfig
	history   History
	sessionID string
	log       *slog.Logger
	rng       *rand.Rand

	// clicked is the like ledger for the current page, keyed by the
	// page-absolute position of the control. Reset per topic.
	clicked map[string]bool
}

// New creates a Reader bound to a started session.
func New(sess *browser.Session, st *site.Resolved, params config.RunParams, delays config.DelayConfig, hist History, sessionID string, log *slog.Logger) *Reader {
	if log == nil {
		log = slog.Default()
	}
	return &Reader{
		session:   sess,
		site:      st,
		params:    params,
		delays:    delays,
		history:   hist,
		sessionID: sessionID,
		log:       log,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		clicked:   make(map[string]bool),
	}
}

// Run executes the configured number of cycles. Per-cycle failures are
// recorded and skipped; only session-tier failures (dead browser, canceled
// context) end the run early.
func (r *Reader) Run(ctx context.Context) (types.RunStats, error) {
	stats := types.RunStats{CyclesRequested: r.params.Cycles}

	for cycle := 1; cycle <= r.params.Cycles; cycle++ {
		r.log.Info("cycle started", "cycle", cycle, "of", r.params.Cycles)

		res, err := r.runCycle(ctx, cycle)
		stats.LikesGiven += res.Likes
		if res.OK() {
			stats.CyclesCompleted++
			r.log.Info("cycle finished", "cycle", cycle,
				"topic", res.TopicURL, "likes", res.Likes, "took", res.Duration.Round(time.Second))
		} else {
			r.log.Warn("cycle failed", "cycle", cycle, "error", res.Err)
		}

		if r.history != nil {
			if herr := r.history.SaveCycle(r.sessionID, res); herr != nil {
				r.log.Warn("cycle not recorded", "cycle", cycle, "error", herr)
			}
		}
		if err != nil {
			return stats, err
		}

		if cycle < r.params.Cycles {
			if err := r.sleepRange(ctx, r.delays.CycleMin, r.delays.CycleMax); err != nil {
				return stats, err
			}
		}
	}

	return stats, nil
}

// runCycle picks a topic (or reuses the configured one) and reads it,
// retrying recoverable failures a bounded number of times. The returned
// error is non-nil only for session-tier failures.
func (r *Reader) runCycle(ctx context.Context, cycle int) (types.CycleResult, error) {
	res := types.CycleResult{Cycle: cycle, VisitedAt: time.Now()}
	start := time.Now()
	finish := func() { res.Duration = time.Since(start) }

	var lastErr error
	for attempt := 1; attempt <= cycleAttempts; attempt++ {
		likes, err := r.visitOnce(ctx, &res)
		res.Likes += likes
		if err == nil {
			finish()
			return res, nil
		}
		if isFatal(ctx, err) {
			res.Err = err.Error()
			finish()
			return res, err
		}

		lastErr = err
		if attempt < cycleAttempts {
			r.log.Warn("cycle attempt failed, retrying",
				"cycle", cycle, "attempt", attempt, "error", err)
			if serr := r.sleep(ctx, 2*time.Second); serr != nil {
				res.Err = serr.Error()
				finish()
				return res, serr
			}
		}
	}

	res.Err = lastErr.Error()
	finish()
	return res, nil
}

// visitOnce performs one pick-and-read attempt.
func (r *Reader) visitOnce(ctx context.Context, res *types.CycleResult) (int, error) {
	if r.params.Mode == types.ModeDirect {
		res.TopicURL = r.params.URL
	} else {
		topic, err := r.pickTopic(ctx)
		if err != nil {
			return 0, err
		}
		res.TopicURL = topic.Href
		res.TopicTitle = topic.Title
	}
	return r.readTopic(ctx, res.TopicURL)
}

// readTopic scrolls through a topic the way a person reads it: top to
// bottom in fixed steps with randomized pauses, liking whatever is in view.
// Returns the number of likes issued.
func (r *Reader) readTopic(ctx context.Context, url string) (int, error) {
	if err := r.session.Navigate(ctx, url); err != nil {
		return 0, fmt.Errorf("open topic: %w", err)
	}
	if err := r.sleep(ctx, 3*time.Second); err != nil {
		return 0, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	err := r.session.WaitVisible(waitCtx, "body")
	cancel()
	if err != nil {
		return 0, fmt.Errorf("topic did not render: %w", err)
	}

	// Fresh page, fresh like ledger.
	r.clicked = make(map[string]bool)

	if err := r.session.Evaluate(ctx, "window.scrollTo(0, 0)", nil); err != nil {
		return 0, err
	}
	if err := r.sleep(ctx, 2*time.Second); err != nil {
		return 0, err
	}

	total := 0
	liked, err := r.likeVisiblePosts(ctx, url)
	total += liked
	if err != nil {
		return total, err
	}

	position := 0
	for step := 1; ; step++ {
		position += scrollStep
		if err := r.session.Evaluate(ctx, fmt.Sprintf("window.scrollTo(0, %d)", position), nil); err != nil {
			return total, err
		}
		if err := r.sleepRange(ctx, r.delays.ScrollMin, r.delays.ScrollMax); err != nil {
			return total, err
		}

		liked, err := r.likeVisiblePosts(ctx, url)
		total += liked
		if err != nil {
			return total, err
		}
		if liked > 0 {
			if err := r.sleepRange(ctx, 1, 2); err != nil {
				return total, err
			}
		}

		if err := r.sleepRange(ctx, r.delays.ReadMin, r.delays.ReadMax); err != nil {
			return total, err
		}

		// Height is re-read every step: topics grow while being read
		// (lazy-loaded posts), and the loop should follow.
		var height, viewBottom float64
		if err := r.session.Evaluate(ctx, "document.body.scrollHeight", &height); err != nil {
			return total, err
		}
		if err := r.session.Evaluate(ctx, "window.pageYOffset + window.innerHeight", &viewBottom); err != nil {
			return total, err
		}
		if scrollDone(viewBottom, height, step, maxScrollSteps) {
			if step >= maxScrollSteps {
				r.log.Warn("scroll step cap reached, stopping early", "steps", step)
			}
			break
		}
	}

	liked, err = r.likeVisiblePosts(ctx, url)
	total += liked
	if err != nil {
		return total, err
	}

	// Dwell at the bottom like a reader finishing the last post.
	if err := r.sleepRange(ctx, r.delays.BottomMin, r.delays.BottomMax); err != nil {
		return total, err
	}
	return total, nil
}

// scrollDone reports whether the reading loop should stop: the viewport
// bottom entered the bottom margin, or the step cap was hit.
func scrollDone(viewBottom, pageHeight float64, step, maxSteps int) bool {
	if step >= maxSteps {
		return true
	}
	return viewBottom >= pageHeight-bottomMargin
}

// isFatal reports whether err means the session itself is unusable.
func isFatal(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return true
	}
	return errors.Is(err, browser.ErrNotRunning) || errors.Is(err, context.Canceled)
}

// sleep waits d unless the context ends first.
func (r *Reader) sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// sleepRange waits a uniform random duration between minSec and maxSec
// seconds. The jitter is what makes the browsing look human.
func (r *Reader) sleepRange(ctx context.Context, minSec, maxSec float64) error {
	return r.sleep(ctx, randDuration(r.rng, minSec, maxSec))
}

func randDuration(rng *rand.Rand, minSec, maxSec float64) time.Duration {
	if maxSec < minSec {
		minSec, maxSec = maxSec, minSec
	}
	sec := minSec + rng.Float64()*(maxSec-minSec)
	return time.Duration(sec * float64(time.Second))
}
