package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"quizlive/internal/domain"
)

// SessionStore keeps the shared session state in Redis so every client
// instance reads the same authoritative record.
//
// Layout:
//
//	quizlive:sess:{id}                     session record (JSON)
//	quizlive:code:{joinCode}               join code -> session id
//	quizlive:part:{id}                     participant record (JSON, score lives in the board)
//	quizlive:board:{sessionID}             sorted set participantID -> score
//	quizlive:ans:{sessionID}:{pid}:{qid}   answer record (JSON), written with SETNX
//
// SETNX makes the one-answer-per-question guard atomic, and ZINCRBY makes the
// score increment atomic, so no client-side locking is needed across
// processes.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) CreateSession(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, sessionKey(session.ID), raw, s.ttl)
	pipe.Set(ctx, codeKey(session.JoinCode), session.ID, s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (domain.Session, error) {
	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("get session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session: %w", err)
	}
	return session, nil
}

func (s *SessionStore) GetSessionByCode(ctx context.Context, code string) (domain.Session, error) {
	id, err := s.client.Get(ctx, codeKey(code)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	if err != nil {
		return domain.Session{}, fmt.Errorf("resolve join code: %w", err)
	}
	return s.GetSession(ctx, id)
}

func (s *SessionStore) UpdateSession(ctx context.Context, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, sessionKey(session.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	return nil
}

func (s *SessionStore) CreateParticipant(ctx context.Context, participant domain.Participant) error {
	raw, err := json.Marshal(participant)
	if err != nil {
		return err
	}
	pipe := s.client.Pipeline()
	pipe.Set(ctx, participantKey(participant.ID), raw, s.ttl)
	pipe.ZAddNX(ctx, boardKey(participant.SessionID), redis.Z{Score: 0, Member: participant.ID})
	if s.ttl > 0 {
		pipe.Expire(ctx, boardKey(participant.SessionID), s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

func (s *SessionStore) GetParticipant(ctx context.Context, id string) (domain.Participant, error) {
	raw, err := s.client.Get(ctx, participantKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Participant{}, domain.ErrParticipantNotFound
	}
	if err != nil {
		return domain.Participant{}, fmt.Errorf("get participant: %w", err)
	}
	var participant domain.Participant
	if err := json.Unmarshal(raw, &participant); err != nil {
		return domain.Participant{}, fmt.Errorf("decode participant: %w", err)
	}
	score, err := s.client.ZScore(ctx, boardKey(participant.SessionID), id).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return domain.Participant{}, fmt.Errorf("get score: %w", err)
	}
	participant.Score = int(score)
	return participant, nil
}

func (s *SessionStore) ListParticipants(ctx context.Context, sessionID string) ([]domain.Participant, error) {
	// ZREVRANGE orders by score descending; equal scores fall back to member
	// order, which is stable across reads.
	members, err := s.client.ZRevRangeWithScores(ctx, boardKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	list := make([]domain.Participant, 0, len(members))
	for _, member := range members {
		id, _ := member.Member.(string)
		raw, err := s.client.Get(ctx, participantKey(id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("list participants: %w", err)
		}
		var participant domain.Participant
		if err := json.Unmarshal(raw, &participant); err != nil {
			return nil, fmt.Errorf("decode participant: %w", err)
		}
		participant.Score = int(member.Score)
		list = append(list, participant)
	}
	return list, nil
}

func (s *SessionStore) PutAnswerOnce(ctx context.Context, answer domain.Answer) (bool, error) {
	raw, err := json.Marshal(answer)
	if err != nil {
		return false, err
	}
	key := answerKey(answer.SessionID, answer.ParticipantID, answer.QuestionID)
	created, err := s.client.SetNX(ctx, key, raw, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("put answer: %w", err)
	}
	return created, nil
}

func (s *SessionStore) GetAnswer(ctx context.Context, sessionID, participantID, questionID string) (domain.Answer, bool, error) {
	raw, err := s.client.Get(ctx, answerKey(sessionID, participantID, questionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Answer{}, false, nil
	}
	if err != nil {
		return domain.Answer{}, false, fmt.Errorf("get answer: %w", err)
	}
	var answer domain.Answer
	if err := json.Unmarshal(raw, &answer); err != nil {
		return domain.Answer{}, false, fmt.Errorf("decode answer: %w", err)
	}
	return answer, true, nil
}

func (s *SessionStore) AddScore(ctx context.Context, sessionID, participantID string, delta int) (int, error) {
	total, err := s.client.ZIncrBy(ctx, boardKey(sessionID), float64(delta), participantID).Result()
	if err != nil {
		return 0, fmt.Errorf("add score: %w", err)
	}
	return int(total), nil
}

func sessionKey(id string) string     { return "quizlive:sess:" + id }
func codeKey(code string) string      { return "quizlive:code:" + code }
func participantKey(id string) string { return "quizlive:part:" + id }
func boardKey(sessionID string) string {
	return "quizlive:board:" + sessionID
}
func answerKey(sessionID, participantID, questionID string) string {
	return "quizlive:ans:" + sessionID + ":" + participantID + ":" + questionID
}
