package app

import (
	"testing"
	"time"

	"quizlive/internal/domain"
)

var testQuestions = []domain.Question{
	{ID: "q1", OrderNumber: 1, Text: "first", CorrectOption: "A", TimeLimit: 20},
	{ID: "q2", OrderNumber: 2, Text: "second", CorrectOption: "B", TimeLimit: 15},
}

func TestReconcileWaiting(t *testing.T) {
	session := domain.Session{ID: "s1", Status: domain.StatusWaiting}
	state := Reconcile(session, testQuestions, nil, QuestionEvidence{}, time.Now())
	if state.Phase != domain.PhaseWaiting {
		t.Fatalf("expected waiting phase, got %s", state.Phase)
	}
	if state.Question != nil {
		t.Fatalf("waiting session must expose no question")
	}
}

func TestReconcileActiveQuestion(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 1}
	ev := QuestionEvidence{}.Observe(session, now)

	state := Reconcile(session, testQuestions, nil, ev, now)
	if state.Phase != domain.PhaseQuestion {
		t.Fatalf("expected question phase, got %s", state.Phase)
	}
	if state.Question == nil || state.Question.ID != "q2" {
		t.Fatalf("expected q2, got %+v", state.Question)
	}
	if state.QuestionNumber != 2 || state.QuestionCount != 2 {
		t.Fatalf("expected question 2 of 2, got %d of %d", state.QuestionNumber, state.QuestionCount)
	}
	if state.Remaining != 15 {
		t.Fatalf("fresh question should start at its full limit, got %d", state.Remaining)
	}
}

func TestReconcileCountdownFromEvidence(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 0}
	ev := QuestionEvidence{}.Observe(session, start)

	state := Reconcile(session, testQuestions, nil, ev, start.Add(7*time.Second))
	if state.Remaining != 13 {
		t.Fatalf("expected 13s left after 7s, got %d", state.Remaining)
	}

	state = Reconcile(session, testQuestions, nil, ev, start.Add(time.Hour))
	if state.Remaining != 0 {
		t.Fatalf("countdown must clamp at zero, got %d", state.Remaining)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(4 * time.Second)
	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 0}
	ev := QuestionEvidence{}.Observe(session, start)

	first := Reconcile(session, testQuestions, nil, ev, now)
	// Re-observing the same snapshot must not restart the clock, and
	// re-projecting must yield the identical view no matter how many
	// duplicate signals triggered it.
	for i := 0; i < 3; i++ {
		ev = ev.Observe(session, now)
		again := Reconcile(session, testQuestions, nil, ev, now)
		if !again.Equal(first) {
			t.Fatalf("reconcile not idempotent: %+v vs %+v", again, first)
		}
	}
}

func TestReconcileLeaderboardAndFinished(t *testing.T) {
	standings := []domain.LeaderboardEntry{{ParticipantID: "p1", Name: "Alice", Score: 950}}

	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 0, ShowLeaderboard: true}
	state := Reconcile(session, testQuestions, standings, QuestionEvidence{}, time.Now())
	if state.Phase != domain.PhaseLeaderboard {
		t.Fatalf("expected leaderboard phase, got %s", state.Phase)
	}
	if state.Question != nil {
		t.Fatalf("leaderboard mode must hide the question")
	}
	if len(state.Standings) != 1 || state.Standings[0].Score != 950 {
		t.Fatalf("expected standings, got %+v", state.Standings)
	}

	session.Status = domain.StatusFinished
	state = Reconcile(session, testQuestions, standings, QuestionEvidence{}, time.Now())
	if state.Phase != domain.PhaseFinished {
		t.Fatalf("expected finished phase, got %s", state.Phase)
	}
}

func TestReconcileIndexOutOfBounds(t *testing.T) {
	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 99}
	state := Reconcile(session, testQuestions, nil, QuestionEvidence{}, time.Now())
	if state.Phase != domain.PhaseWaiting || state.Question != nil {
		t.Fatalf("out-of-range index must project no question, got %+v", state)
	}
}

func TestEvidenceRestartsOnNewQuestion(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "s1", Status: domain.StatusActive, CurrentQuestionIndex: 0}
	ev := QuestionEvidence{}.Observe(session, start)

	later := start.Add(30 * time.Second)
	session.CurrentQuestionIndex = 1
	ev = ev.Observe(session, later)
	if ev.Index != 1 || !ev.SeenAt.Equal(later) {
		t.Fatalf("evidence should restart for a new question, got %+v", ev)
	}

	// Leaderboard mode freezes the evidence.
	session.ShowLeaderboard = true
	frozen := ev.Observe(session, later.Add(time.Minute))
	if frozen != ev {
		t.Fatalf("evidence changed during leaderboard: %+v", frozen)
	}
}
