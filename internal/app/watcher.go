package app

import (
	"context"
	"log"
	"time"

	"quizlive/internal/domain"
)

// Watcher runs the reconcile loop for one connected client: every change
// signal and every tick of a fallback timer triggers a full re-read of the
// authoritative state followed by a pure re-projection. Missed or duplicated
// signals therefore cannot corrupt the view, only delay it by one interval.
type Watcher struct {
	store    SessionStore
	quizzes  QuizRepository
	notifier Notifier
	interval time.Duration
	now      func() time.Time
}

// DefaultReconcileInterval doubles as the countdown tick and the safety net
// for dropped change signals.
const DefaultReconcileInterval = time.Second

func NewWatcher(store SessionStore, quizzes QuizRepository, notifier Notifier, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &Watcher{
		store:    store,
		quizzes:  quizzes,
		notifier: notifier,
		interval: interval,
		now:      time.Now,
	}
}

// Watch subscribes to the session and streams distinct view states until the
// context ends or cancel is called. The first state is sent immediately.
// The caller must invoke cancel to release the subscription.
func (w *Watcher) Watch(ctx context.Context, sessionID string) (<-chan domain.ViewState, func(), error) {
	signals, unsubscribe, err := w.notifier.Subscribe(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	out := make(chan domain.ViewState, 8)
	go func() {
		defer close(out)
		defer unsubscribe()
		w.run(ctx, sessionID, signals, out)
	}()
	return out, cancel, nil
}

func (w *Watcher) run(ctx context.Context, sessionID string, signals <-chan struct{}, out chan domain.ViewState) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var ev QuestionEvidence
	var last domain.ViewState
	sent := false

	sync := func() {
		state, next, err := w.project(ctx, sessionID, ev)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			// Transient store failure; the next wake re-reads and self-heals.
			log.Printf("reconcile session %s: %v", sessionID, err)
			return
		}
		ev = next
		if sent && state.Equal(last) {
			return
		}
		last, sent = state, true
		select {
		case out <- state:
		default:
			// Slow consumer: shed the oldest state, the newest one wins.
			select {
			case <-out:
			default:
			}
			out <- state
		}
	}

	sync()
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			sync()
		case <-ticker.C:
			sync()
		}
	}
}

// project re-reads the store and runs the reconciler once.
func (w *Watcher) project(ctx context.Context, sessionID string, ev QuestionEvidence) (domain.ViewState, QuestionEvidence, error) {
	session, err := w.store.GetSession(ctx, sessionID)
	if err != nil {
		return domain.ViewState{}, ev, err
	}

	participants, err := w.store.ListParticipants(ctx, sessionID)
	if err != nil {
		return domain.ViewState{}, ev, err
	}

	var questions []domain.Question
	if session.Status == domain.StatusActive {
		quiz, err := w.quizzes.GetQuiz(ctx, session.QuizID)
		if err != nil {
			return domain.ViewState{}, ev, err
		}
		questions = quiz.Questions
	}

	now := w.now()
	ev = ev.Observe(session, now)
	return Reconcile(session, questions, Standings(participants), ev, now), ev, nil
}
