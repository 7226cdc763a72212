package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"studymate/internal/domain"
)

// Asker is the backend contract: one question in, one response or error out.
type Asker interface {
	Ask(ctx context.Context, question string) (domain.ChatResponse, error)
}

// Recorder persists messages as they are appended.
type Recorder interface {
	Record(msg domain.Message) error
}

// Session drives a single conversation with at most one outstanding question.
type Session struct {
	conv     *Conversation
	input    *Input
	asker    Asker
	recorder Recorder
	logger   *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithRecorder persists every appended message.
func WithRecorder(r Recorder) SessionOption {
	return func(s *Session) { s.recorder = r }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithConversation continues an existing conversation.
func WithConversation(c *Conversation) SessionOption {
	return func(s *Session) { s.conv = c }
}

func NewSession(asker Asker, opts ...SessionOption) *Session {
	s := &Session{input: &Input{}, asker: asker, logger: zap.NewNop()}
	for _, o := range opts {
		o(s)
	}
	if s.conv == nil {
		s.conv = NewConversation()
	}
	return s
}

func (s *Session) Conversation() *Conversation { return s.conv }

func (s *Session) Input() *Input { return s.input }

// Begin submits the pending input and appends it as a user message. The
// returned question is what must be sent to the backend.
func (s *Session) Begin() (string, error) {
	question, err := s.input.Submit()
	if err != nil {
		return "", err
	}
	s.record(s.conv.Append(domain.RoleUser, question, false))
	return question, nil
}

// Complete appends the assistant reply for the outstanding question and
// re-enables input. A backend error becomes a failed assistant message.
func (s *Session) Complete(resp domain.ChatResponse, err error) domain.Message {
	defer s.input.Resolve()
	var msg domain.Message
	if err != nil {
		s.logger.Warn("backend call failed", zap.Error(err))
		msg = s.conv.Append(domain.RoleAssistant, FailureText(err), true)
	} else {
		msg = s.conv.Append(domain.RoleAssistant, FormatReply(resp), false)
	}
	s.record(msg)
	return msg
}

// Ask runs one full round trip synchronously.
func (s *Session) Ask(ctx context.Context, text string) (domain.Message, error) {
	s.input.SetValue(text)
	question, err := s.Begin()
	if err != nil {
		return domain.Message{}, err
	}
	resp, err := s.asker.Ask(ctx, question)
	return s.Complete(resp, err), err
}

// Send is Ask without the input step, for callers that already hold a
// question from Begin.
func (s *Session) Send(ctx context.Context, question string) (domain.ChatResponse, error) {
	return s.asker.Ask(ctx, question)
}

func (s *Session) record(msg domain.Message) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(msg); err != nil {
		s.logger.Error("failed to record message", zap.String("id", msg.ID), zap.Error(err))
	}
}

// FormatReply renders a response as assistant message content. Sources, when
// present, are listed under the answer.
func FormatReply(resp domain.ChatResponse) string {
	if len(resp.Sources) == 0 {
		return resp.Answer
	}
	return resp.Answer + "\n\n**Sources:** " + strings.Join(resp.Sources, ", ")
}

// FailureText is the assistant content shown when the backend call fails.
func FailureText(err error) string {
	return fmt.Sprintf("Sorry, I couldn't get an answer right now (%v). Please try again.", err)
}
