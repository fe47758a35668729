package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"quizlive/internal/domain"
)

// SubmitResult reports what a submission did. Accepted is false for every
// no-op case (duplicate, closed question, no live question); the caller gets
// its existing total back and nothing is re-scored.
type SubmitResult struct {
	Accepted   bool
	Correct    bool
	Awarded    int
	TotalScore int
	QuestionID string
}

// ParticipantService joins players into sessions and records their answers.
type ParticipantService struct {
	store    SessionStore
	quizzes  QuizRepository
	notifier Notifier
	now      func() time.Time
}

func NewParticipantService(store SessionStore, quizzes QuizRepository, notifier Notifier) *ParticipantService {
	return &ParticipantService{
		store:    store,
		quizzes:  quizzes,
		notifier: notifier,
		now:      time.Now,
	}
}

// Resume reloads a participant after a reconnect and reports whether it has
// already answered the session's current question, so the client can restore
// its answered latch instead of offering the question again.
func (p *ParticipantService) Resume(ctx context.Context, id string) (domain.Participant, bool, error) {
	participant, err := p.store.GetParticipant(ctx, id)
	if err != nil {
		return domain.Participant{}, false, err
	}
	session, err := p.store.GetSession(ctx, participant.SessionID)
	if err != nil {
		return domain.Participant{}, false, err
	}
	if session.Status != domain.StatusActive {
		return participant, false, nil
	}
	quiz, err := p.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return domain.Participant{}, false, err
	}
	idx := session.CurrentQuestionIndex
	if idx < 0 || idx >= len(quiz.Questions) {
		return participant, false, nil
	}
	answered, err := p.HasAnswered(ctx, session.ID, participant.ID, quiz.Questions[idx].ID)
	if err != nil {
		return domain.Participant{}, false, err
	}
	return participant, answered, nil
}

// Join resolves a join code to a session and creates one participant in it.
// Codes are matched case-insensitively. Names are not deduplicated: two
// players may share a name and stay distinct by id.
func (p *ParticipantService) Join(ctx context.Context, code, name string) (domain.Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Participant{}, domain.ErrNameRequired
	}

	code = strings.ToUpper(strings.TrimSpace(code))
	session, err := p.store.GetSessionByCode(ctx, code)
	if err != nil {
		return domain.Participant{}, err
	}
	if session.Status == domain.StatusFinished {
		return domain.Participant{}, domain.ErrSessionClosed
	}

	participant := domain.Participant{
		ID:        uuid.NewString(),
		SessionID: session.ID,
		Name:      name,
		JoinedAt:  p.now(),
	}
	if err := p.store.CreateParticipant(ctx, participant); err != nil {
		return domain.Participant{}, fmt.Errorf("create participant: %w", err)
	}
	if err := p.notifier.Publish(ctx, session.ID); err != nil {
		log.Printf("publish change signal for session %s: %v", session.ID, err)
	}
	return participant, nil
}

// SubmitAnswer records one answer for the participant's current question.
// remaining is the submitting client's own countdown value in seconds; the
// answer window closes locally when it reaches zero or the leaderboard shows.
//
// The store's create-if-absent answer write is the only gate: of two racing
// submissions exactly one creates the record, and only that one may touch the
// score. The score write never happens without having just won that gate.
func (p *ParticipantService) SubmitAnswer(ctx context.Context, participantID, option string, remaining int) (SubmitResult, error) {
	participant, err := p.store.GetParticipant(ctx, participantID)
	if err != nil {
		return SubmitResult{}, err
	}
	existing := SubmitResult{TotalScore: participant.Score}

	session, err := p.store.GetSession(ctx, participant.SessionID)
	if err != nil {
		return SubmitResult{}, err
	}
	if session.Status != domain.StatusActive || session.ShowLeaderboard {
		return existing, nil
	}
	if remaining <= 0 {
		return existing, nil
	}

	quiz, err := p.quizzes.GetQuiz(ctx, session.QuizID)
	if err != nil {
		return SubmitResult{}, err
	}
	idx := session.CurrentQuestionIndex
	if idx < 0 || idx >= len(quiz.Questions) {
		return existing, nil
	}
	question := quiz.Questions[idx]

	timeTaken := question.TimeLimit - remaining
	if timeTaken < 0 {
		timeTaken = 0
	}
	if timeTaken > question.TimeLimit {
		timeTaken = question.TimeLimit
	}

	created, err := p.store.PutAnswerOnce(ctx, domain.Answer{
		SessionID:     session.ID,
		ParticipantID: participant.ID,
		QuestionID:    question.ID,
		Option:        option,
		TimeTaken:     timeTaken,
	})
	if err != nil {
		return SubmitResult{}, fmt.Errorf("record answer: %w", err)
	}
	if !created {
		// Already answered this question; first submission stands.
		existing.QuestionID = question.ID
		return existing, nil
	}

	result := SubmitResult{
		Accepted:   true,
		TotalScore: participant.Score,
		QuestionID: question.ID,
	}
	if option == question.CorrectOption {
		result.Correct = true
		result.Awarded = Points(question.TimeLimit, timeTaken)
		total, err := p.store.AddScore(ctx, session.ID, participant.ID, result.Awarded)
		if err != nil {
			return SubmitResult{}, fmt.Errorf("apply score: %w", err)
		}
		result.TotalScore = total
	}

	if err := p.notifier.Publish(ctx, session.ID); err != nil {
		log.Printf("publish change signal for session %s: %v", session.ID, err)
	}
	return result, nil
}

// HasAnswered reports whether the participant already answered the question.
func (p *ParticipantService) HasAnswered(ctx context.Context, sessionID, participantID, questionID string) (bool, error) {
	_, ok, err := p.store.GetAnswer(ctx, sessionID, participantID, questionID)
	return ok, err
}
