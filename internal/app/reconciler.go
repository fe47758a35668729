package app

import (
	"time"

	"quizlive/internal/domain"
)

// QuestionEvidence is a client's local record of when it first saw a question
// go live. The countdown is a pure function of this instant and the current
// wall clock, not per-tick mutable state, so reconciling twice with the same
// inputs yields the same remaining time.
type QuestionEvidence struct {
	Index  int
	SeenAt time.Time
}

// Observe folds a fresh session snapshot into the evidence: the first time a
// given question index is seen live, the clock starts for it. Any other
// snapshot leaves the evidence unchanged.
func (e QuestionEvidence) Observe(session domain.Session, now time.Time) QuestionEvidence {
	if session.Status != domain.StatusActive || session.ShowLeaderboard {
		return e
	}
	if e.SeenAt.IsZero() || e.Index != session.CurrentQuestionIndex {
		return QuestionEvidence{Index: session.CurrentQuestionIndex, SeenAt: now}
	}
	return e
}

// Reconcile projects the authoritative session record into a local view.
// It is pure and idempotent: it depends only on its arguments, never on how
// many change signals arrived or in what order.
func Reconcile(session domain.Session, questions []domain.Question, standings []domain.LeaderboardEntry, ev QuestionEvidence, now time.Time) domain.ViewState {
	switch session.Status {
	case domain.StatusFinished:
		return domain.ViewState{Phase: domain.PhaseFinished, Standings: standings}
	case domain.StatusActive:
	default:
		return domain.ViewState{Phase: domain.PhaseWaiting}
	}

	if session.ShowLeaderboard {
		return domain.ViewState{Phase: domain.PhaseLeaderboard, Standings: standings}
	}

	idx := session.CurrentQuestionIndex
	// An index past the known sequence means the content and the session
	// record raced; show nothing rather than fail.
	if idx < 0 || idx >= len(questions) {
		return domain.ViewState{Phase: domain.PhaseWaiting}
	}

	q := questions[idx]
	remaining := q.TimeLimit
	if !ev.SeenAt.IsZero() && ev.Index == idx {
		elapsed := int(now.Sub(ev.SeenAt) / time.Second)
		remaining = q.TimeLimit - elapsed
	}
	if remaining < 0 {
		remaining = 0
	}
	if remaining > q.TimeLimit {
		remaining = q.TimeLimit
	}

	return domain.ViewState{
		Phase:          domain.PhaseQuestion,
		Question:       &q,
		QuestionNumber: idx + 1,
		QuestionCount:  len(questions),
		Remaining:      remaining,
	}
}

// Standings converts a score-ordered participant list into leaderboard entries.
func Standings(participants []domain.Participant) []domain.LeaderboardEntry {
	entries := make([]domain.LeaderboardEntry, 0, len(participants))
	for _, p := range participants {
		entries = append(entries, domain.LeaderboardEntry{
			ParticipantID: p.ID,
			Name:          p.Name,
			Score:         p.Score,
		})
	}
	return entries
}
