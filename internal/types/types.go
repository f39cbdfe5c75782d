// Package types holds the result records shared by the reader, store,
// and report packages.
package types

import "time"

// Mode selects how topics are chosen for a browse session.
type Mode string

const (
	// ModeRandom picks topics pseudo-randomly from the listing page.
	ModeRandom Mode = "random"
	// ModeDirect visits a single caller-supplied topic URL.
	ModeDirect Mode = "direct"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeRandom || m == ModeDirect
}

// CycleResult records the outcome of a single browse cycle.
type CycleResult struct {
	Cycle      int
	TopicURL   string
	TopicTitle string
	Likes      int
	Duration   time.Duration
	VisitedAt  time.Time
	Err        string // empty when the cycle succeeded
}

// OK reports whether the cycle completed without error.
func (c CycleResult) OK() bool {
	return c.Err == ""
}

// LikeEvent records one issued like action.
type LikeEvent struct {
	TopicURL    string
	PositionKey string
	At          time.Time
}

// RunStats aggregates the cycle outcomes of one session.
type RunStats struct {
	CyclesRequested int
	CyclesCompleted int
	LikesGiven      int
}
