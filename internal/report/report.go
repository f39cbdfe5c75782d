// Package report renders run history into the plain-text summaries shown
// on the terminal and sent through notifications.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/zduu/star-auto/internal/store"
)

// BuildRunSummary renders one session with its per-cycle outcomes.
func BuildRunSummary(sess store.Session, cycles []store.Cycle) string {
	var b strings.Builder

	b.WriteString("Run summary\n")
	fmt.Fprintf(&b, "  Site:     %s\n", sess.Site)
	fmt.Fprintf(&b, "  Mode:     %s\n", sess.Mode)
	fmt.Fprintf(&b, "  Cycles:   %d/%d completed\n", sess.CyclesCompleted, sess.CyclesRequested)
	fmt.Fprintf(&b, "  Likes:    %d\n", sess.LikesGiven)
	fmt.Fprintf(&b, "  Status:   %s\n", sess.Status)
	if sess.Error != "" {
		fmt.Fprintf(&b, "  Error:    %s\n", sess.Error)
	}
	if !sess.FinishedAt.IsZero() {
		fmt.Fprintf(&b, "  Duration: %s\n", sess.FinishedAt.Sub(sess.StartedAt).Round(time.Second))
	}

	if len(cycles) > 0 {
		b.WriteString("\n")
		for _, c := range cycles {
			mark := "ok  "
			if !c.OK {
				mark = "fail"
			}
			took := (time.Duration(c.DurationMS) * time.Millisecond).Round(time.Second)
			fmt.Fprintf(&b, "  %2d. %s %6s  %s\n", c.Cycle, mark, took, describeCycle(c))
		}
	}

	return b.String()
}

func describeCycle(c store.Cycle) string {
	if !c.OK {
		return "error: " + c.Error
	}
	if c.TopicTitle == "" {
		return c.TopicURL
	}
	return fmt.Sprintf("%s (%s)", truncate(c.TopicTitle, 48), c.TopicURL)
}

// BuildHistory renders sessions as a fixed-width table, newest first.
// totalLikes is the all-time count across every recorded session, not just
// the ones shown.
func BuildHistory(sessions []store.Session, totalLikes int) string {
	if len(sessions) == 0 {
		return "No sessions recorded yet.\n"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%-10s %-14s %-8s %-17s %-7s %-6s %s\n",
		"SESSION", "SITE", "MODE", "STARTED", "CYCLES", "LIKES", "STATUS")
	for _, s := range sessions {
		fmt.Fprintf(&b, "%-10s %-14s %-8s %-17s %-7s %-6d %s\n",
			shortID(s.ID),
			truncate(s.Site, 14),
			s.Mode,
			s.StartedAt.Format("2006-01-02 15:04"),
			fmt.Sprintf("%d/%d", s.CyclesCompleted, s.CyclesRequested),
			s.LikesGiven,
			s.Status)
	}
	fmt.Fprintf(&b, "\n%d likes given in total.\n", totalLikes)
	return b.String()
}

// shortID keeps the leading UUID segment, enough to tell sessions apart in
// a table.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return truncate(id, 10)
}

// truncate limits s to max runes, rune-aware since site names and titles
// are often CJK.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
