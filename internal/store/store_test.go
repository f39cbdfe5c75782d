package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/zduu/star-auto/internal/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func startSession(t *testing.T, s *Store, id string, started time.Time) *Session {
	t.Helper()
	sess := &Session{
		ID:              id,
		Site:            "shuiyuan",
		Mode:            "random",
		StartedAt:       started,
		CyclesRequested: 5,
		Status:          StatusRunning,
	}
	if err := s.CreateSession(sess); err != nil {
		t.Fatalf("CreateSession() error = %v", err)
	}
	return sess
}

func TestSessionLifecycle(t *testing.T) {
	s := testStore(t)
	startSession(t, s, "sess-1", time.Now())

	got, err := s.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("RecentSessions() returned %d sessions, want 1", len(got))
	}
	if got[0].Status != StatusRunning {
		t.Errorf("Status = %q, want %q", got[0].Status, StatusRunning)
	}
	if !got[0].FinishedAt.IsZero() {
		t.Errorf("FinishedAt = %v, want zero for a running session", got[0].FinishedAt)
	}

	stats := types.RunStats{CyclesRequested: 5, CyclesCompleted: 4, LikesGiven: 11}
	if err := s.FinishSession("sess-1", stats, StatusCompleted, ""); err != nil {
		t.Fatalf("FinishSession() error = %v", err)
	}

	got, err = s.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	sess := got[0]
	if sess.Status != StatusCompleted {
		t.Errorf("Status = %q, want %q", sess.Status, StatusCompleted)
	}
	if sess.CyclesCompleted != 4 || sess.LikesGiven != 11 {
		t.Errorf("counters = %d/%d likes %d, want 4/5 likes 11",
			sess.CyclesCompleted, sess.CyclesRequested, sess.LikesGiven)
	}
	if sess.FinishedAt.IsZero() {
		t.Error("FinishedAt still zero after FinishSession")
	}
}

func TestRecentSessionsOrderAndLimit(t *testing.T) {
	s := testStore(t)
	base := time.Now().Add(-time.Hour)
	startSession(t, s, "old", base)
	startSession(t, s, "mid", base.Add(10*time.Minute))
	startSession(t, s, "new", base.Add(20*time.Minute))

	got, err := s.RecentSessions(2)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("RecentSessions(2) returned %d, want 2", len(got))
	}
	if got[0].ID != "new" || got[1].ID != "mid" {
		t.Errorf("order = [%s, %s], want [new, mid]", got[0].ID, got[1].ID)
	}
}

func TestSaveAndReadCycles(t *testing.T) {
	s := testStore(t)
	startSession(t, s, "sess-1", time.Now())

	ok := types.CycleResult{
		Cycle:      1,
		TopicURL:   "https://shuiyuan.sjtu.edu.cn/t/topic/1",
		TopicTitle: "一个话题",
		Likes:      3,
		Duration:   90 * time.Second,
		VisitedAt:  time.Now(),
	}
	failed := types.CycleResult{
		Cycle:     2,
		VisitedAt: time.Now(),
		Err:       "no topic links found",
	}
	if err := s.SaveCycle("sess-1", ok); err != nil {
		t.Fatalf("SaveCycle() error = %v", err)
	}
	if err := s.SaveCycle("sess-1", failed); err != nil {
		t.Fatalf("SaveCycle() error = %v", err)
	}

	cycles, err := s.SessionCycles("sess-1")
	if err != nil {
		t.Fatalf("SessionCycles() error = %v", err)
	}
	if len(cycles) != 2 {
		t.Fatalf("SessionCycles() returned %d, want 2", len(cycles))
	}

	first := cycles[0]
	if !first.OK || first.TopicTitle != "一个话题" || first.Likes != 3 {
		t.Errorf("first cycle = %+v, fields not preserved", first)
	}
	if first.DurationMS != 90_000 {
		t.Errorf("DurationMS = %d, want 90000", first.DurationMS)
	}

	second := cycles[1]
	if second.OK {
		t.Error("failed cycle scanned as OK")
	}
	if second.Error != "no topic links found" {
		t.Errorf("Error = %q, not preserved", second.Error)
	}
}

func TestSaveLikeAndTotal(t *testing.T) {
	s := testStore(t)
	startSession(t, s, "sess-1", time.Now())

	for i := 0; i < 3; i++ {
		ev := types.LikeEvent{
			TopicURL:    "https://shuiyuan.sjtu.edu.cn/t/topic/1",
			PositionKey: "40_1200",
			At:          time.Now(),
		}
		if err := s.SaveLike("sess-1", ev); err != nil {
			t.Fatalf("SaveLike() error = %v", err)
		}
	}

	n, err := s.TotalLikes()
	if err != nil {
		t.Fatalf("TotalLikes() error = %v", err)
	}
	if n != 3 {
		t.Errorf("TotalLikes() = %d, want 3", n)
	}
}

func TestReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "history.db")

	s, err := New(path)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	startSession(t, s, "sess-1", time.Now())
	if err := s.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatalf("reopen New() error = %v", err)
	}
	defer s2.Close()

	got, err := s2.RecentSessions(10)
	if err != nil {
		t.Fatalf("RecentSessions() error = %v", err)
	}
	if len(got) != 1 || got[0].ID != "sess-1" {
		t.Errorf("data lost across reopen: %v", got)
	}
}
