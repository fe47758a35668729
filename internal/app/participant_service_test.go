package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quizlive/internal/domain"
)

func TestJoinUnknownCode(t *testing.T) {
	f := newFixture(t)
	f.launch(t)

	if _, err := f.players.Join(context.Background(), "ZZZZZZ", "Alice"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestJoinRequiresName(t *testing.T) {
	f := newFixture(t)
	session := f.launch(t)

	if _, err := f.players.Join(context.Background(), session.JoinCode, "   "); !errors.Is(err, domain.ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}
}

func TestJoinIsCaseInsensitive(t *testing.T) {
	f := newFixture(t)
	session := f.launch(t)

	participant, err := f.players.Join(context.Background(), "  "+strings.ToLower(session.JoinCode)+" ", "Alice")
	if err != nil {
		t.Fatalf("lowercase code should join: %v", err)
	}
	if participant.SessionID != session.ID {
		t.Fatalf("joined wrong session: %+v", participant)
	}
}

func TestJoinFinishedSessionFailsClosed(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	f.join(t, session.JoinCode, "Alice")
	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	_, _ = f.host.Advance(ctx, session.ID)
	if _, err := f.host.Advance(ctx, session.ID); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if _, err := f.players.Join(ctx, session.JoinCode, "Late"); !errors.Is(err, domain.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
	participants, _ := f.store.ListParticipants(ctx, session.ID)
	if len(participants) != 1 {
		t.Fatalf("rejected join must create no participant, have %d", len(participants))
	}
}

func TestDuplicateNamesStayDistinct(t *testing.T) {
	f := newFixture(t)
	session := f.launch(t)

	a := f.join(t, session.JoinCode, "Alex")
	b := f.join(t, session.JoinCode, "Alex")
	if a.ID == b.ID {
		t.Fatalf("two joins produced the same participant id")
	}
}

func TestSubmitAnswerScoringScenario(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	alice := f.join(t, session.JoinCode, "Alice")
	bob := f.join(t, session.JoinCode, "Bob")
	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// Question 1 has time_limit=20 and correct option B. Alice answers
	// correctly with 15s left, so time_taken=5 and she earns 950.
	result, err := f.players.SubmitAnswer(ctx, alice.ID, "B", 15)
	if err != nil {
		t.Fatalf("alice submit: %v", err)
	}
	if !result.Accepted || !result.Correct || result.Awarded != 950 || result.TotalScore != 950 {
		t.Fatalf("unexpected result for alice: %+v", result)
	}

	result, err = f.players.SubmitAnswer(ctx, bob.ID, "A", 15)
	if err != nil {
		t.Fatalf("bob submit: %v", err)
	}
	if !result.Accepted || result.Correct || result.Awarded != 0 || result.TotalScore != 0 {
		t.Fatalf("wrong answer must not score: %+v", result)
	}

	// Second submission from Alice for the same question is a silent no-op.
	result, err = f.players.SubmitAnswer(ctx, alice.ID, "A", 10)
	if err != nil {
		t.Fatalf("alice resubmit: %v", err)
	}
	if result.Accepted {
		t.Fatalf("duplicate answer must not be accepted: %+v", result)
	}
	if result.TotalScore != 950 {
		t.Fatalf("duplicate answer must not re-score, total %d", result.TotalScore)
	}

	participants, _ := f.store.ListParticipants(ctx, session.ID)
	if participants[0].ID != alice.ID || participants[0].Score != 950 {
		t.Fatalf("expected alice leading with 950, got %+v", participants[0])
	}
}

func TestSubmitAnswerClosedWindows(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	alice := f.join(t, session.JoinCode, "Alice")

	// Before the quiz starts there is no live question.
	result, err := f.players.SubmitAnswer(ctx, alice.ID, "B", 20)
	if err != nil || result.Accepted {
		t.Fatalf("submit before start must be a no-op: %+v, %v", result, err)
	}

	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A countdown that already hit zero closes the window locally.
	result, err = f.players.SubmitAnswer(ctx, alice.ID, "B", 0)
	if err != nil || result.Accepted {
		t.Fatalf("submit at zero must be a no-op: %+v, %v", result, err)
	}

	// Once the host reveals the leaderboard, late answers are rejected even
	// if this client's own countdown still shows time.
	if _, err := f.host.RevealLeaderboard(ctx, session.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	result, err = f.players.SubmitAnswer(ctx, alice.ID, "B", 12)
	if err != nil || result.Accepted {
		t.Fatalf("submit after reveal must be a no-op: %+v, %v", result, err)
	}

	if _, ok, _ := f.store.GetAnswer(ctx, session.ID, alice.ID, "q1"); ok {
		t.Fatalf("no answer record should exist for rejected submissions")
	}
}

func TestResumeReportsAnsweredLatch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	alice := f.join(t, session.JoinCode, "Alice")

	// While the session is waiting there is nothing to have answered.
	got, answered, err := f.players.Resume(ctx, alice.ID)
	if err != nil || answered {
		t.Fatalf("resume while waiting: answered=%v err=%v", answered, err)
	}
	if got.ID != alice.ID {
		t.Fatalf("resume returned wrong participant: %+v", got)
	}

	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := f.players.SubmitAnswer(ctx, alice.ID, "B", 15); err != nil {
		t.Fatalf("submit: %v", err)
	}

	if _, answered, err = f.players.Resume(ctx, alice.ID); err != nil || !answered {
		t.Fatalf("resume after answering: answered=%v err=%v", answered, err)
	}

	// Advancing to the next question clears the latch.
	if _, err := f.host.RevealLeaderboard(ctx, session.ID); err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if _, err := f.host.Advance(ctx, session.ID); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if _, answered, err = f.players.Resume(ctx, alice.ID); err != nil || answered {
		t.Fatalf("resume on next question: answered=%v err=%v", answered, err)
	}
}

func TestSubmitAnswerClampsTimeTaken(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	session := f.launch(t)
	alice := f.join(t, session.JoinCode, "Alice")
	if _, err := f.host.Start(ctx, session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A remaining value above the limit clamps time_taken to zero.
	result, err := f.players.SubmitAnswer(ctx, alice.ID, "B", 999)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Awarded != 1000 {
		t.Fatalf("expected clamped full score, got %d", result.Awarded)
	}
	answer, ok, _ := f.store.GetAnswer(ctx, session.ID, alice.ID, "q1")
	if !ok || answer.TimeTaken != 0 {
		t.Fatalf("expected time_taken clamped to 0, got %+v", answer)
	}
}
