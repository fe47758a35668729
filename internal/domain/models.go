package domain

import "time"

// SessionStatus is the run state of a quiz session. Transitions only move
// forward: waiting -> active -> finished.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusActive   SessionStatus = "active"
	StatusFinished SessionStatus = "finished"
)

// Session is the authoritative record of one live quiz run. It is mutated
// only by the host; everyone else re-reads it after a change signal.
type Session struct {
	ID                   string        `json:"id"`
	QuizID               string        `json:"quizId"`
	JoinCode             string        `json:"joinCode"`
	Status               SessionStatus `json:"status"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	ShowLeaderboard      bool          `json:"showLeaderboard"`
	CreatedAt            time.Time     `json:"createdAt"`
}

// Option is one labeled answer choice. Labels are A through D; a question
// may carry fewer than four.
type Option struct {
	Label string `json:"label"`
	Text  string `json:"text"`
}

// Question is immutable quiz content, ordered within its quiz by OrderNumber.
type Question struct {
	ID            string   `json:"id"`
	OrderNumber   int      `json:"orderNumber"`
	Text          string   `json:"text"`
	ImageURL      string   `json:"imageUrl,omitempty"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correctOption"`
	TimeLimit     int      `json:"timeLimit"` // whole seconds, > 0
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Participant is one player in one session. Score only ever grows.
type Participant struct {
	ID        string    `json:"id"`
	SessionID string    `json:"sessionId"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	JoinedAt  time.Time `json:"joinedAt"`
}

// Answer records a single submission. At most one exists per
// (participant, question) pair; it is never mutated afterward.
type Answer struct {
	SessionID     string `json:"sessionId"`
	ParticipantID string `json:"participantId"`
	QuestionID    string `json:"questionId"`
	Option        string `json:"option"`
	TimeTaken     int    `json:"timeTaken"` // seconds between presentation and submit
}

// LeaderboardEntry is a ranked view of one participant.
type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
}

// Phase is what a client should be showing right now.
type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhaseQuestion    Phase = "question"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseFinished    Phase = "finished"
)

// ViewState is the local projection of the shared session record. It is
// derived, never stored; recomputing it from the same inputs always yields
// the same value.
type ViewState struct {
	Phase          Phase              `json:"phase"`
	Question       *Question          `json:"question,omitempty"`
	QuestionNumber int                `json:"questionNumber,omitempty"` // 1-based
	QuestionCount  int                `json:"questionCount,omitempty"`
	Remaining      int                `json:"remaining,omitempty"` // seconds left on the countdown
	Standings      []LeaderboardEntry `json:"standings,omitempty"`
}

// Equal reports whether two view states would render identically.
func (v ViewState) Equal(o ViewState) bool {
	if v.Phase != o.Phase || v.QuestionNumber != o.QuestionNumber ||
		v.QuestionCount != o.QuestionCount || v.Remaining != o.Remaining {
		return false
	}
	if (v.Question == nil) != (o.Question == nil) {
		return false
	}
	if v.Question != nil && v.Question.ID != o.Question.ID {
		return false
	}
	if len(v.Standings) != len(o.Standings) {
		return false
	}
	for i := range v.Standings {
		if v.Standings[i] != o.Standings[i] {
			return false
		}
	}
	return true
}
