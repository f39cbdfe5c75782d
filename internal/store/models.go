package store

import "time"

// Session is one recorded browse run.
type Session struct {
	ID              string
	Site            string
	Mode            string
	StartedAt       time.Time
	FinishedAt      time.Time // zero while the run is still going
	CyclesRequested int
	CyclesCompleted int
	LikesGiven      int
	Status          string
	Error           string
}

// Cycle is one recorded browse cycle.
type Cycle struct {
	ID         int64
	SessionID  string
	Cycle      int
	TopicURL   string
	TopicTitle string
	DurationMS int64
	Likes      int
	OK         bool
	Error      string
	VisitedAt  time.Time
}

// Like is one recorded like action.
type Like struct {
	ID          int64
	SessionID   string
	TopicURL    string
	PositionKey string
	LikedAt     time.Time
}
