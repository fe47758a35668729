package domain

import "errors"

var (
	// ErrSessionNotFound is returned when a session id or join code resolves to nothing.
	ErrSessionNotFound = errors.New("session not found")
	// ErrSessionClosed is returned when joining a session that has already finished.
	ErrSessionClosed = errors.New("session has finished")
	// ErrParticipantNotFound is returned when a participant id is unknown.
	ErrParticipantNotFound = errors.New("participant not found")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrNoParticipants rejects starting a session nobody has joined.
	ErrNoParticipants = errors.New("session has no participants")
	// ErrAlreadyStarted rejects starting a session that left the waiting state.
	ErrAlreadyStarted = errors.New("session already started")
	// ErrSessionFinished rejects host transitions on a finished session.
	ErrSessionFinished = errors.New("session is finished")
	// ErrNotStarted rejects host transitions that need an active session.
	ErrNotStarted = errors.New("session not started")
	// ErrNameRequired rejects a join with an empty display name.
	ErrNameRequired = errors.New("display name required")
)
