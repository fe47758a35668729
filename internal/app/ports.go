package app

import (
	"context"

	"quizlive/internal/domain"
)

// SessionStore is the durable shared-state record behind a live session.
// Implementations must make PutAnswerOnce and AddScore atomic: PutAnswerOnce
// is the single gate that decides which of two racing submissions exists.
type SessionStore interface {
	CreateSession(ctx context.Context, session domain.Session) error
	GetSession(ctx context.Context, id string) (domain.Session, error)
	GetSessionByCode(ctx context.Context, code string) (domain.Session, error)
	// UpdateSession replaces the whole session record.
	UpdateSession(ctx context.Context, session domain.Session) error

	CreateParticipant(ctx context.Context, participant domain.Participant) error
	GetParticipant(ctx context.Context, id string) (domain.Participant, error)
	// ListParticipants returns the session's participants ordered by score
	// descending with a stable tie-break.
	ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error)

	// PutAnswerOnce stores the answer unless one already exists for the same
	// (participant, question) pair. It reports whether this call created it.
	PutAnswerOnce(ctx context.Context, answer domain.Answer) (bool, error)
	GetAnswer(ctx context.Context, sessionID, participantID, questionID string) (domain.Answer, bool, error)
	// AddScore atomically increments a participant's score and returns the new total.
	AddScore(ctx context.Context, sessionID, participantID string, delta int) (int, error)
}

// Notifier carries content-free "something changed" signals per session.
// Delivery is at-least-once at best: signals may duplicate, reorder, or drop,
// so receivers always re-read the store instead of trusting the signal.
type Notifier interface {
	Publish(ctx context.Context, sessionID string) error
	// Subscribe returns a signal channel and a cancel function that must be
	// called to release the subscription.
	Subscribe(ctx context.Context, sessionID string) (<-chan struct{}, func(), error)
}

// QuizRepository loads immutable quiz content. Questions come back sorted by
// OrderNumber and keep that order for the lifetime of a session.
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}
