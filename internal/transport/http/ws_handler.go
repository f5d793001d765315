package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"quiz-reviewer/internal/app"
	"quiz-reviewer/internal/domain"
)

const defaultTitle = "Custom Quiz"

var errNoSession = errors.New("no quiz loaded")

type WSHandler struct {
	service  *app.QuizService
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *zap.Logger) *WSHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WSHandler{
		service: service,
		logger:  logger,
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

type loadPayload struct {
	Text      string `json:"text"`
	AnswerKey string `json:"answerKey"`
	Title     string `json:"title"`
}

type catalogPayload struct {
	QuizID string `json:"quizId"`
}

type answerKeyPayload struct {
	Text string `json:"text"`
}

type answerPayload struct {
	Value string `json:"value"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type loadedPayload struct {
	SessionID    string `json:"sessionId"`
	Title        string `json:"title"`
	Total        int    `json:"total"`
	Graded       bool   `json:"graded"`
	AnswersBound int    `json:"answersBound,omitempty"`
}

// questionView is what a client sees while taking a quiz. It never carries
// the answer key.
type questionView struct {
	State      string          `json:"state"`
	Index      int             `json:"index"`
	Total      int             `json:"total"`
	Progress   float64         `json:"progress"`
	CanAdvance bool            `json:"canAdvance"`
	CanRetreat bool            `json:"canRetreat"`
	IsLast     bool            `json:"isLast"`
	Unanswered int             `json:"unanswered"`
	Question   domain.Question `json:"question"`
}

type resultPayload struct {
	Summary  domain.ResultSummary  `json:"summary"`
	Export   domain.ExportedResult `json:"export"`
	Location string                `json:"location,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and runs one quiz session for the lifetime of
// the connection. Only the read loop touches the session.
func (h *WSHandler) ServeWS(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage, 16)
	writerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug("ws write error", zap.Error(err))
				return
			}
		}
	}()

	state := &connSession{handler: h}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		reply, err := state.handle(c.Request.Context(), inbound)
		if err != nil {
			reply = outboundMessage{Type: "error", Payload: errorPayload{Message: err.Error()}}
		}
		select {
		case send <- reply:
		case <-writerDone:
		}
	}

	close(send)
	<-writerDone
	if state.session != nil {
		h.logger.Debug("ws session closed", zap.String("session", state.session.ID()), zap.String("state", state.session.State().String()))
	}
}

// connSession is the per-connection state machine driver.
type connSession struct {
	handler *WSHandler
	session *app.Session
}

func (s *connSession) handle(ctx context.Context, msg inboundMessage) (outboundMessage, error) {
	service := s.handler.service

	switch msg.Type {
	case "load":
		var payload loadPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{}, err
		}
		questions, err := service.ParseDocument(payload.Text)
		if err != nil {
			return outboundMessage{}, err
		}
		bound := 0
		if payload.AnswerKey != "" {
			if bound, err = service.ApplyAnswerKey(payload.AnswerKey, questions); err != nil {
				return outboundMessage{}, err
			}
		}
		title := payload.Title
		if title == "" {
			title = defaultTitle
		}
		session, err := service.NewSession(title, questions)
		if err != nil {
			return outboundMessage{}, err
		}
		s.session = session
		return s.loaded(bound), nil

	case "catalog":
		var payload catalogPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{}, err
		}
		session, err := service.StartCatalogQuiz(ctx, payload.QuizID)
		if err != nil {
			return outboundMessage{}, err
		}
		s.session = session
		return s.loaded(0), nil
	}

	if s.session == nil {
		return outboundMessage{}, errNoSession
	}

	switch msg.Type {
	case "answerKey":
		var payload answerKeyPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{}, err
		}
		bound, err := service.ApplyAnswerKey(payload.Text, s.session.Questions())
		if err != nil {
			return outboundMessage{}, err
		}
		return s.loaded(bound), nil
	case "start":
		s.session.Start()
	case "answer":
		var payload answerPayload
		if err := decodePayload(msg.Payload, &payload); err != nil {
			return outboundMessage{}, err
		}
		if err := s.session.Answer(payload.Value); err != nil {
			return outboundMessage{}, err
		}
	case "next":
		s.session.Advance()
	case "prev":
		s.session.Retreat()
	case "reset":
		s.session.Reset()
	case "current":
	case "finish":
		outcome, err := service.FinishAndExport(ctx, s.session)
		if err != nil && outcome.Summary.SessionID == "" {
			return outboundMessage{}, err
		}
		return outboundMessage{Type: "result", Payload: resultPayload{
			Summary:  outcome.Summary,
			Export:   outcome.Export,
			Location: outcome.Location,
		}}, nil
	default:
		return outboundMessage{}, errors.New("unsupported message type")
	}
	return s.question()
}

func (s *connSession) loaded(bound int) outboundMessage {
	return outboundMessage{Type: "loaded", Payload: loadedPayload{
		SessionID:    s.session.ID(),
		Title:        s.session.Title(),
		Total:        s.session.Len(),
		Graded:       domain.HasAnswerKey(s.session.Questions()),
		AnswersBound: bound,
	}}
}

func (s *connSession) question() (outboundMessage, error) {
	q, err := s.session.CurrentQuestion()
	if err != nil {
		return outboundMessage{}, err
	}
	return outboundMessage{Type: "question", Payload: questionView{
		State:      s.session.State().String(),
		Index:      s.session.Index(),
		Total:      s.session.Len(),
		Progress:   s.session.Progress(),
		CanAdvance: s.session.CanAdvance(),
		CanRetreat: s.session.CanRetreat(),
		IsLast:     s.session.IsLast(),
		Unanswered: s.session.Unanswered(),
		Question:   q.Clone().WithoutKey(),
	}}, nil
}

func decodePayload(raw json.RawMessage, dst any) error {
	if len(raw) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.New("invalid payload")
	}
	return nil
}
