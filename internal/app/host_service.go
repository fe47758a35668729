package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quizlive/internal/domain"
)

// joinCodeAlphabet omits 0/O and 1/I so codes survive being read aloud.
const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeLength   = 6
	joinCodeAttempts = 5
)

// HostService drives the session lifecycle. It is the sole writer of
// Session.Status, CurrentQuestionIndex, and ShowLeaderboard; every transition
// is one whole-record write followed by a change signal.
type HostService struct {
	store    SessionStore
	quizzes  QuizRepository
	notifier Notifier
	rnd      *rand.Rand
	now      func() time.Time
}

func NewHostService(store SessionStore, quizzes QuizRepository, notifier Notifier) *HostService {
	return &HostService{
		store:    store,
		quizzes:  quizzes,
		notifier: notifier,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

// Launch creates a session for the quiz in the waiting state with a fresh
// join code. The quiz must exist and carry at least one question.
func (h *HostService) Launch(ctx context.Context, quizID string) (domain.Session, error) {
	quiz, err := h.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Session{}, err
	}
	if len(quiz.Questions) == 0 {
		return domain.Session{}, fmt.Errorf("quiz %q has no questions", quizID)
	}

	code, err := h.freshJoinCode(ctx)
	if err != nil {
		return domain.Session{}, err
	}

	session := domain.Session{
		ID:        uuid.NewString(),
		QuizID:    quizID,
		JoinCode:  code,
		Status:    domain.StatusWaiting,
		CreatedAt: h.now(),
	}
	if err := h.store.CreateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Start moves a waiting session to active on its first question. It is
// rejected while nobody has joined.
func (h *HostService) Start(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	switch session.Status {
	case domain.StatusActive:
		return domain.Session{}, domain.ErrAlreadyStarted
	case domain.StatusFinished:
		return domain.Session{}, domain.ErrSessionFinished
	}

	participants, err := h.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	if len(participants) == 0 {
		return domain.Session{}, domain.ErrNoParticipants
	}

	session.Status = domain.StatusActive
	session.CurrentQuestionIndex = 0
	session.ShowLeaderboard = false
	return h.write(ctx, session)
}

// RevealLeaderboard closes the current question and shows standings. It is
// idempotent: revealing an already revealed leaderboard changes nothing.
func (h *HostService) RevealLeaderboard(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	switch session.Status {
	case domain.StatusWaiting:
		return domain.Session{}, domain.ErrNotStarted
	case domain.StatusFinished:
		return domain.Session{}, domain.ErrSessionFinished
	}
	if session.ShowLeaderboard {
		return session, nil
	}

	session.ShowLeaderboard = true
	return h.write(ctx, session)
}

// Advance moves to the next question, or finishes the session when the
// current question was the last one. A finished session accepts nothing.
func (h *HostService) Advance(ctx context.Context, sessionID string) (domain.Session, error) {
	session, err := h.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.Session{}, err
	}
	switch session.Status {
	case domain.StatusWaiting:
		return domain.Session{}, domain.ErrNotStarted
	case domain.StatusFinished:
		return domain.Session{}, domain.ErrSessionFinished
	}

	quiz, err := h.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.Session{}, err
	}

	next := session.CurrentQuestionIndex + 1
	if next >= len(quiz.Questions) {
		session.Status = domain.StatusFinished
	} else {
		session.CurrentQuestionIndex = next
		session.ShowLeaderboard = false
	}
	return h.write(ctx, session)
}

func (h *HostService) write(ctx context.Context, session domain.Session) (domain.Session, error) {
	if err := h.store.UpdateSession(ctx, session); err != nil {
		return domain.Session{}, fmt.Errorf("update session: %w", err)
	}
	if err := h.notifier.Publish(ctx, session.ID); err != nil {
		// Signals are best-effort; the periodic reconcile covers the gap.
		log.Printf("publish change signal for session %s: %v", session.ID, err)
	}
	return session, nil
}

func (h *HostService) freshJoinCode(ctx context.Context) (string, error) {
	for i := 0; i < joinCodeAttempts; i++ {
		code := make([]byte, joinCodeLength)
		for j := range code {
			code[j] = joinCodeAlphabet[h.rnd.Intn(len(joinCodeAlphabet))]
		}
		_, err := h.store.GetSessionByCode(ctx, string(code))
		if errors.Is(err, domain.ErrSessionNotFound) {
			return string(code), nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("could not allocate a unique join code")
}
