package memory

import (
	"context"
	"sort"
	"sync"

	"quizlive/internal/domain"
)

// SessionStore is the in-memory implementation of app.SessionStore. One
// mutex covers sessions, participants, and answers, which makes the
// create-if-absent answer write and the score increment trivially atomic.
type SessionStore struct {
	mu           sync.RWMutex
	sessions     map[string]domain.Session
	byCode       map[string]string
	participants map[string]domain.Participant
	bySession    map[string][]string
	answers      map[answerKey]domain.Answer
}

type answerKey struct {
	sessionID     string
	participantID string
	questionID    string
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions:     make(map[string]domain.Session),
		byCode:       make(map[string]string),
		participants: make(map[string]domain.Participant),
		bySession:    make(map[string][]string),
		answers:      make(map[answerKey]domain.Answer),
	}
}

func (s *SessionStore) CreateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
	s.byCode[session.JoinCode] = session.ID
	return nil
}

func (s *SessionStore) GetSession(_ context.Context, id string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *SessionStore) GetSessionByCode(_ context.Context, code string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byCode[code]
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return s.sessions[id], nil
}

func (s *SessionStore) UpdateSession(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[session.ID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *SessionStore) CreateParticipant(_ context.Context, participant domain.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[participant.SessionID]; !ok {
		return domain.ErrSessionNotFound
	}
	s.participants[participant.ID] = participant
	s.bySession[participant.SessionID] = append(s.bySession[participant.SessionID], participant.ID)
	return nil
}

func (s *SessionStore) GetParticipant(_ context.Context, id string) (domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	participant, ok := s.participants[id]
	if !ok {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	return participant, nil
}

func (s *SessionStore) ListParticipants(_ context.Context, sessionID string) ([]domain.Participant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bySession[sessionID]
	list := make([]domain.Participant, 0, len(ids))
	for _, id := range ids {
		list = append(list, s.participants[id])
	}
	// Score descending; ties break by id so the order is stable across reads.
	sort.Slice(list, func(i, j int) bool {
		if list[i].Score != list[j].Score {
			return list[i].Score > list[j].Score
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (s *SessionStore) PutAnswerOnce(_ context.Context, answer domain.Answer) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := answerKey{answer.SessionID, answer.ParticipantID, answer.QuestionID}
	if _, ok := s.answers[key]; ok {
		return false, nil
	}
	s.answers[key] = answer
	return true, nil
}

func (s *SessionStore) GetAnswer(_ context.Context, sessionID, participantID, questionID string) (domain.Answer, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	answer, ok := s.answers[answerKey{sessionID, participantID, questionID}]
	return answer, ok, nil
}

func (s *SessionStore) AddScore(_ context.Context, _ string, participantID string, delta int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	participant, ok := s.participants[participantID]
	if !ok {
		return 0, domain.ErrParticipantNotFound
	}
	participant.Score += delta
	s.participants[participantID] = participant
	return participant.Score, nil
}
