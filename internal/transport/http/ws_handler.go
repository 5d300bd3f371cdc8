package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"academy-quiz-service/internal/app"
	"academy-quiz-service/internal/domain"
	"academy-quiz-service/internal/metrics"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// ControllerFactory builds the controller for one connection. The notifier
// delivers the controller's notifications to that connection.
type ControllerFactory func(user domain.User, notifier app.Notifier) *app.Controller

type WSHandler struct {
	newController ControllerFactory
	log           logrus.FieldLogger
	metrics       *metrics.Metrics
	upgrader      websocket.Upgrader
}

func NewWSHandler(factory ControllerFactory, log logrus.FieldLogger, m *metrics.Metrics) *WSHandler {
	return &WSHandler{
		newController: factory,
		log:           log,
		metrics:       m,
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
	Option string `json:"option"`
}

type questionPayload struct {
	Index    int                   `json:"index"`
	Total    int                   `json:"total"`
	Question domain.PublicQuestion `json:"question"`
}

type loadedPayload struct {
	Total     int         `json:"total"`
	Mode      domain.Mode `json:"mode"`
	SessionID string      `json:"sessionId,omitempty"`
}

type answerResult struct {
	QuestionID    string `json:"questionId"`
	Selected      string `json:"selected"`
	CorrectOption string `json:"correctOption"`
	Correct       bool   `json:"correct"`
	Score         int    `json:"score"`
	Finished      bool   `json:"finished"`
	SavedOnline   bool   `json:"savedOnline"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz controller for the life of
// the connection. The user comes from the userId query parameter.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	user := domain.User{
		ID:          r.URL.Query().Get("userId"),
		DisplayName: r.URL.Query().Get("name"),
	}
	if user.ID == "" {
		http.Error(w, "missing userId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()
	defer h.metrics.ConnectionOpened()()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	log := h.log.WithField("user_id", user.ID)

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				cancel()
				return
			}
		}
	}()

	emit := func(typ string, payload any) {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
		case <-writerDone:
		}
	}
	ctrl := h.newController(user, app.NotifierFunc(func(n app.Notification) {
		emit("notification", n)
	}))

	emit("state", ctrl.Snapshot())
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		h.dispatch(ctx, ctrl, inbound, emit)
	}

	cancel()
	close(send)
	<-writerDone
}

func (h *WSHandler) dispatch(ctx context.Context, ctrl *app.Controller, inbound inboundMessage, emit func(string, any)) {
	fail := func(message string) {
		emit("error", errorPayload{Message: message})
	}

	switch inbound.Type {
	case "load":
		var req app.LoadRequest
		if err := json.Unmarshal(inbound.Payload, &req); err != nil {
			fail("invalid load payload")
			return
		}
		if err := ctrl.LoadQuestions(ctx, req); err != nil {
			fail(loadErrorMessage(err))
			return
		}
		snap := ctrl.Snapshot()
		emit("loaded", loadedPayload{Total: snap.Total, Mode: snap.Mode, SessionID: snap.SessionID})
		emitQuestion(ctrl, emit)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			fail("invalid answer payload")
			return
		}
		outcome, err := ctrl.SubmitAnswer(ctx, payload.Option)
		if errors.Is(err, domain.ErrSubmitRefused) {
			return
		}
		if err != nil {
			fail("answer not accepted")
			return
		}
		emit("answerResult", answerResult{
			QuestionID:    outcome.Record.QuestionID,
			Selected:      outcome.Record.SelectedOption,
			CorrectOption: outcome.Record.CorrectOption,
			Correct:       outcome.Correct,
			Score:         outcome.Score,
			Finished:      ctrl.IsFinished(),
			SavedOnline:   len(outcome.RemoteErrors) == 0,
		})
	case "next":
		ctrl.NextQuestion()
		if !emitQuestion(ctrl, emit) {
			emit("state", ctrl.Snapshot())
		}
	case "complete":
		stats, err := ctrl.CompleteQuiz(ctx)
		if err != nil {
			fail("quiz could not be completed")
			return
		}
		emit("stats", stats)
	case "reset":
		ctrl.ResetQuiz()
		emit("state", ctrl.Snapshot())
	case "state":
		emit("state", ctrl.Snapshot())
	default:
		fail("unsupported message type")
	}
}

func emitQuestion(ctrl *app.Controller, emit func(string, any)) bool {
	q, ok := ctrl.CurrentQuestion()
	if !ok {
		return false
	}
	snap := ctrl.Snapshot()
	emit("question", questionPayload{Index: snap.CurrentIndex, Total: snap.Total, Question: q.Public()})
	return true
}

func loadErrorMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoQuestionsAvailable):
		return "no questions available"
	case errors.Is(err, domain.ErrMissingFilters):
		return "academyId and topicId are required in test mode"
	case errors.Is(err, domain.ErrInvalidMode):
		return "unknown mode"
	default:
		return "questions could not be loaded"
	}
}
