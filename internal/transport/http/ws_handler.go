package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"qcm-runner/internal/app"
	"qcm-runner/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	profile  string
	upgrader websocket.Upgrader
}

// NewWSHandler serves one quiz session per connection. Connections without a
// profile query parameter use defaultProfile.
func NewWSHandler(service *app.QuizService, defaultProfile string) *WSHandler {
	return &WSHandler{
		service: service,
		profile: defaultProfile,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Value string `json:"value"`
}

type answerIndexPayload struct {
	Index int `json:"index"`
}

type selectPayload struct {
	IDs []string `json:"ids"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// ServeWS upgrades HTTP requests to websockets and drives a session from the
// inbound commands. Every state change is pushed back as a view message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	profile := r.URL.Query().Get("profile")
	if profile == "" {
		profile = h.profile
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := h.service.NewSession(profile)
	defer session.Close()

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "view", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ctx := r.Context()
	if err := session.Open(ctx); err != nil {
		send <- errorMessage(err.Error())
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.dispatch(ctx, session, inbound); ok {
			send <- msg
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// dispatch applies one command. It returns a message only when the command
// failed in a way the client must hear about.
func (h *WSHandler) dispatch(ctx context.Context, session *app.Session, in inboundMessage) (outboundMessage[any], bool) {
	switch in.Type {
	case "start":
		if err := session.Start(); err != nil && !errors.Is(err, domain.ErrNoBank) {
			return errorMessage(err.Error()), true
		}
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload"), true
		}
		session.Submit(payload.Value)
	case "answerIndex":
		var payload answerIndexPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid answerIndex payload"), true
		}
		session.SubmitIndex(payload.Index)
	case "next":
		session.Next()
	case "previous":
		session.Previous()
	case "end":
		session.End()
	case "restart":
		session.Restart()
	case "select":
		var payload selectPayload
		if err := json.Unmarshal(in.Payload, &payload); err != nil {
			return errorMessage("invalid select payload"), true
		}
		if err := session.ChangeSourceSelection(ctx, payload.IDs); err != nil {
			return errorMessage(err.Error()), true
		}
	case "reload":
		if err := session.Reload(ctx); err != nil {
			return errorMessage(err.Error()), true
		}
	case "settings":
		// Fields missing from the payload keep their current value.
		next := session.Settings()
		if err := json.Unmarshal(in.Payload, &next); err != nil {
			return errorMessage("invalid settings payload"), true
		}
		session.UpdateSettings(ctx, next)
	default:
		return errorMessage("unsupported message type"), true
	}
	return outboundMessage[any]{}, false
}
