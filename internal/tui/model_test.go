package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/chat"
	"studymate/internal/domain"
)

type stubAsker struct {
	resp domain.ChatResponse
	err  error
}

func (a stubAsker) Ask(context.Context, string) (domain.ChatResponse, error) {
	return a.resp, a.err
}

type panicRenderer struct{}

func (panicRenderer) Render(string) (string, error) { panic("boom") }

func newModel(t *testing.T, asker chat.Asker) Model {
	t.Helper()
	m := New(chat.NewSession(asker), Options{})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return next.(Model)
}

func typeText(m Model, text string) Model {
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func press(m Model, k tea.KeyMsg) (Model, tea.Cmd) {
	next, cmd := m.Update(k)
	return next.(Model), cmd
}

// findAnswer runs cmd, expanding batches, and returns the first answerMsg.
func findAnswer(t *testing.T, cmd tea.Cmd) answerMsg {
	t.Helper()
	require.NotNil(t, cmd)
	switch msg := cmd().(type) {
	case answerMsg:
		return msg
	case tea.BatchMsg:
		for _, c := range msg {
			if c == nil {
				continue
			}
			if a, ok := c().(answerMsg); ok {
				return a
			}
		}
	}
	t.Fatal("no answer command returned")
	return answerMsg{}
}

func TestEnterSubmitsAndDisablesInput(t *testing.T) {
	m := newModel(t, stubAsker{resp: domain.ChatResponse{Answer: "Photosynthesis is...", Status: "success"}})
	m = typeText(m, "What is photosynthesis?")

	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, m.session.Input().Busy())
	assert.Empty(t, m.input.Value())
	assert.False(t, m.input.Focused())
	require.Equal(t, 1, m.session.Conversation().Len())

	// typing and a second Enter are ignored while busy
	m = typeText(m, "again")
	m, second := press(m, tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, second)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, 1, m.session.Conversation().Len())

	next, _ := m.Update(findAnswer(t, cmd))
	m = next.(Model)
	assert.False(t, m.session.Input().Busy())
	assert.True(t, m.input.Focused())

	msgs := m.session.Conversation().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Photosynthesis is...", msgs[1].Content)
	assert.Contains(t, m.View(), "Photosynthesis is...")
}

func TestBlankEnterDoesNothing(t *testing.T) {
	m := newModel(t, stubAsker{})
	m = typeText(m, "   ")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.Zero(t, m.session.Conversation().Len())
	assert.False(t, m.session.Input().Busy())
	assert.Equal(t, "Type a question first.", m.status)
}

func TestAltEnterInsertsNewline(t *testing.T) {
	m := newModel(t, stubAsker{})
	m = typeText(m, "line one")
	m, _ = press(m, tea.KeyMsg{Type: tea.KeyEnter, Alt: true})
	m = typeText(m, "line two")

	assert.Equal(t, "line one\nline two", m.input.Value())
	assert.Zero(t, m.session.Conversation().Len())
}

func TestFailedAnswerShowsErrorAndReenables(t *testing.T) {
	m := newModel(t, stubAsker{err: errors.New("connection refused")})
	m = typeText(m, "What is gravity?")
	m, cmd := press(m, tea.KeyMsg{Type: tea.KeyEnter})

	next, _ := m.Update(findAnswer(t, cmd))
	m = next.(Model)
	assert.False(t, m.session.Input().Busy())
	assert.Equal(t, "Request failed. You can try again.", m.status)

	msgs := m.session.Conversation().Messages()
	require.Len(t, msgs, 2)
	assert.True(t, msgs[1].Failed)
}

func TestHealthStatus(t *testing.T) {
	m := New(chat.NewSession(stubAsker{}), Options{Health: func(context.Context) error { return nil }})
	next, _ := m.Update(healthMsg{err: errors.New("dial tcp: refused")})
	assert.Equal(t, "backend unreachable", next.(Model).backend)

	next, _ = m.Update(healthMsg{})
	assert.Equal(t, "backend online", next.(Model).backend)
}

func TestQuitKeys(t *testing.T) {
	m := newModel(t, stubAsker{})
	for _, k := range []tea.KeyType{tea.KeyCtrlC, tea.KeyEsc} {
		_, cmd := press(m, tea.KeyMsg{Type: k})
		require.NotNil(t, cmd)
		assert.IsType(t, tea.QuitMsg{}, cmd())
	}
}

func TestRenderConversation(t *testing.T) {
	at := time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)
	msgs := []domain.Message{
		{ID: "1", Role: domain.RoleUser, Content: "What is a magnet?", CreatedAt: at},
		{ID: "2", Role: domain.RoleAssistant, Content: "A magnet attracts iron.", CreatedAt: at},
		{ID: "3", Role: domain.RoleAssistant, Content: "Sorry, something went wrong.", CreatedAt: at, Failed: true},
	}
	out := RenderConversation(msgs, nil)

	assert.Equal(t, 1, strings.Count(out, userLabel))
	assert.Equal(t, 2, strings.Count(out, assistantLabel))
	assert.Less(t, strings.Index(out, "What is a magnet?"), strings.Index(out, "A magnet attracts iron."))
	assert.Contains(t, out, "09:30")

	assert.Equal(t, out, RenderConversation(msgs, nil), "rendering is a pure projection")
	assert.Contains(t, RenderConversation(nil, nil), emptyHint)
}

func TestRenderRecoversFromMarkdownPanic(t *testing.T) {
	msgs := []domain.Message{{Role: domain.RoleAssistant, Content: "**bold** answer"}}
	assert.Contains(t, RenderConversation(msgs, panicRenderer{}), "**bold** answer")
}
