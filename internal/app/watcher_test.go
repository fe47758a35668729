package app_test

import (
	"context"
	"testing"
	"time"

	"quizlive/internal/app"
	"quizlive/internal/domain"
)

func recvView(t *testing.T, views <-chan domain.ViewState) domain.ViewState {
	t.Helper()
	select {
	case view, ok := <-views:
		if !ok {
			t.Fatalf("view stream closed unexpectedly")
		}
		return view
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for a view state")
		return domain.ViewState{}
	}
}

func TestWatcherFollowsSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	alice := f.join(t, session.JoinCode, "Alice")

	// A long fallback interval keeps this test signal-driven.
	watcher := app.NewWatcher(f.store, f.quizzes, f.notifier, time.Hour)
	views, cancel, err := watcher.Watch(ctx, session.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	if view := recvView(t, views); view.Phase != domain.PhaseWaiting {
		t.Fatalf("expected initial waiting view, got %+v", view)
	}

	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	view := recvView(t, views)
	if view.Phase != domain.PhaseQuestion || view.Question == nil || view.Question.ID != "q1" {
		t.Fatalf("expected q1 live, got %+v", view)
	}
	if view.Remaining != 20 {
		t.Fatalf("fresh question should show its full limit, got %d", view.Remaining)
	}

	if _, err := f.players.SubmitAnswer(ctx, alice.ID, "B", 15); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := f.host.RevealLeaderboard(ctx, session.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	// The answer signal re-projects the same question view, so skip until
	// the leaderboard shows.
	for view = recvView(t, views); view.Phase == domain.PhaseQuestion; view = recvView(t, views) {
	}
	if view.Phase != domain.PhaseLeaderboard {
		t.Fatalf("expected leaderboard, got %+v", view)
	}
	if len(view.Standings) != 1 || view.Standings[0].Score != 950 {
		t.Fatalf("expected alice at 950, got %+v", view.Standings)
	}

	_, _ = f.host.Advance(ctx, session.ID)
	view = recvView(t, views)
	if view.Phase != domain.PhaseQuestion || view.Question.ID != "q2" {
		t.Fatalf("expected q2 live, got %+v", view)
	}

	// Advancing past the last question finishes the session.
	_, _ = f.host.Advance(ctx, session.ID)
	if view = recvView(t, views); view.Phase != domain.PhaseFinished {
		t.Fatalf("expected finished, got %+v", view)
	}
}

func TestWatcherIgnoresDuplicateSignals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	f.join(t, session.JoinCode, "Alice")

	watcher := app.NewWatcher(f.store, f.quizzes, f.notifier, time.Hour)
	views, cancel, err := watcher.Watch(ctx, session.ID)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	defer cancel()

	recvView(t, views) // initial waiting state

	// Duplicate signals with no underlying change must not emit new views.
	for i := 0; i < 5; i++ {
		_ = f.notifier.Publish(ctx, session.ID)
	}
	select {
	case view := <-views:
		t.Fatalf("duplicate signal produced a view: %+v", view)
	case <-time.After(200 * time.Millisecond):
	}

	// The next real change still comes through.
	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if view := recvView(t, views); view.Phase != domain.PhaseQuestion {
		t.Fatalf("expected question view after start, got %+v", view)
	}
}
