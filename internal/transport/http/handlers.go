package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"quizlive/internal/app"
	"quizlive/internal/domain"
)

// Handler exposes the session core over HTTP: one launch endpoint and two
// websocket endpoints, one for the host and one for players. Each websocket
// connection runs its own reconcile loop; the server pushes every distinct
// view state and the client renders whatever arrives.
type Handler struct {
	host     *app.HostService
	players  *app.ParticipantService
	watcher  *app.Watcher
	upgrader websocket.Upgrader
}

func NewHandler(host *app.HostService, players *app.ParticipantService, watcher *app.Watcher) *Handler {
	return &Handler{
		host:     host,
		players:  players,
		watcher:  watcher,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Register mounts all routes on the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/sessions", h.LaunchSession)
	mux.HandleFunc("/ws/host", h.ServeHost)
	mux.HandleFunc("/ws/play", h.ServePlay)
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerPayload struct {
	Option string `json:"option"`
}

type answerResult struct {
	QuestionID string `json:"questionId"`
	Accepted   bool   `json:"accepted"`
	Correct    bool   `json:"correct"`
	Awarded    int    `json:"awarded"`
	TotalScore int    `json:"totalScore"`
}

type joinedPayload struct {
	Participant domain.Participant `json:"participant"`
	Answered    bool               `json:"answered"`
}

// LaunchSession creates a waiting session with a fresh join code.
// POST {"quizId": "..."} -> 201 {session}.
func (h *Handler) LaunchSession(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		QuizID string `json:"quizId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.QuizID == "" {
		http.Error(w, "quizId required", http.StatusBadRequest)
		return
	}

	session, err := h.host.Launch(r.Context(), req.QuizID)
	if errors.Is(err, domain.ErrQuizNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(session)
}

// ServeHost is the host's connection: it streams view states and accepts
// start/reveal/next commands. The host's own countdown reaching zero is what
// closes a question, so when the streamed view hits zero seconds this side
// reveals the leaderboard itself.
func (h *Handler) ServeHost(w http.ResponseWriter, r *http.Request) {
	sessionID := r.URL.Query().Get("sessionId")
	if sessionID == "" {
		http.Error(w, "missing sessionId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	views, stopWatch, err := h.watcher.Watch(ctx, sessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer stopWatch()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go writeLoop(conn, send, writerDone)

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for {
			select {
			case view, ok := <-views:
				if !ok {
					return
				}
				if view.Phase == domain.PhaseQuestion && view.Remaining == 0 {
					// Question time is up by the host's clock; close it for everyone.
					if _, err := h.host.RevealLeaderboard(ctx, sessionID); err != nil && ctx.Err() == nil {
						log.Printf("auto reveal for session %s: %v", sessionID, err)
					}
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: view}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var session domain.Session
		var cmdErr error
		switch inbound.Type {
		case "start":
			session, cmdErr = h.host.Start(ctx, sessionID)
		case "reveal":
			session, cmdErr = h.host.RevealLeaderboard(ctx, sessionID)
		case "next":
			session, cmdErr = h.host.Advance(ctx, sessionID)
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}
		if cmdErr != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: cmdErr.Error()}}
			continue
		}
		send <- outboundMessage[any]{Type: "session", Payload: session}
	}

	cancel()
	<-forwardDone
	close(send)
	<-writerDone
}

// ServePlay is a participant's connection. A new player joins with
// ?code=&name=; a reloading player resumes with ?participant=.
func (h *Handler) ServePlay(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	name := r.URL.Query().Get("name")
	participantID := r.URL.Query().Get("participant")
	if participantID == "" && (code == "" || name == "") {
		http.Error(w, "missing code and name, or participant", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	var participant domain.Participant
	var answered bool
	if participantID != "" {
		participant, answered, err = h.players.Resume(ctx, participantID)
	} else {
		participant, err = h.players.Join(ctx, code, name)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	views, stopWatch, err := h.watcher.Watch(ctx, participant.SessionID)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer stopWatch()

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go writeLoop(conn, send, writerDone)

	send <- outboundMessage[any]{Type: "joined", Payload: joinedPayload{Participant: participant, Answered: answered}}

	// The submit path needs the client's own countdown value, so the latest
	// streamed view is kept on the side.
	var mu sync.Mutex
	var lastView domain.ViewState

	forwardDone := make(chan struct{})
	go func() {
		defer close(forwardDone)
		for {
			select {
			case view, ok := <-views:
				if !ok {
					return
				}
				mu.Lock()
				lastView = view
				mu.Unlock()
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: view}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			mu.Lock()
			remaining := lastView.Remaining
			mu.Unlock()

			result, err := h.players.SubmitAnswer(ctx, participant.ID, payload.Option, remaining)
			if err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: err.Error()}}
				continue
			}
			send <- outboundMessage[any]{Type: "answerResult", Payload: answerResult{
				QuestionID: result.QuestionID,
				Accepted:   result.Accepted,
				Correct:    result.Correct,
				Awarded:    result.Awarded,
				TotalScore: result.TotalScore,
			}}
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
		}
	}

	cancel()
	<-forwardDone
	close(send)
	<-writerDone
}

// writeLoop serializes all websocket writes onto one goroutine.
func writeLoop(conn *websocket.Conn, send <-chan outboundMessage[any], done chan<- struct{}) {
	defer close(done)
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			log.Printf("ws write error: %v", err)
			return
		}
	}
}
