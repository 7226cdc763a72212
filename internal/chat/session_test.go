package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studymate/internal/domain"
)

type stubAsker struct {
	resp  domain.ChatResponse
	err   error
	calls []string
}

func (a *stubAsker) Ask(_ context.Context, q string) (domain.ChatResponse, error) {
	a.calls = append(a.calls, q)
	return a.resp, a.err
}

type memRecorder struct {
	mu   sync.Mutex
	msgs []domain.Message
	err  error
}

func (r *memRecorder) Record(m domain.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, m)
	return r.err
}

func TestPhotosynthesisRoundTrip(t *testing.T) {
	asker := &stubAsker{resp: domain.ChatResponse{Answer: "Photosynthesis is...", Status: "success"}}
	s := NewSession(asker)

	_, err := s.Ask(context.Background(), "What is photosynthesis?")
	require.NoError(t, err)

	msgs := s.Conversation().Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, domain.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is photosynthesis?", msgs[0].Content)
	assert.Equal(t, domain.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Photosynthesis is...", msgs[1].Content)
	assert.NotEqual(t, msgs[0].ID, msgs[1].ID)
	assert.False(t, s.Input().Busy())
}

func TestBlankInputNeverAppends(t *testing.T) {
	asker := &stubAsker{}
	s := NewSession(asker)

	for _, text := range []string{"", "   ", "\n\t "} {
		_, err := s.Ask(context.Background(), text)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}
	assert.Zero(t, s.Conversation().Len())
	assert.Empty(t, asker.calls)
	assert.False(t, s.Input().Busy())
}

func TestSubmitWhileInFlightIsRejected(t *testing.T) {
	s := NewSession(&stubAsker{})
	s.Input().SetValue("first")
	q, err := s.Begin()
	require.NoError(t, err)
	assert.Equal(t, "first", q)
	assert.True(t, s.Input().Busy())

	s.Input().SetValue("second")
	_, err = s.Begin()
	assert.ErrorIs(t, err, ErrBusy)
	assert.Equal(t, "second", s.Input().Value())
	assert.Equal(t, 1, s.Conversation().Len())

	s.Complete(domain.ChatResponse{Answer: "a"}, nil)
	q, err = s.Begin()
	require.NoError(t, err)
	assert.Equal(t, "second", q)
}

func TestFailedCallReEnablesInput(t *testing.T) {
	s := NewSession(&stubAsker{err: errors.New("connection refused")})

	msg, err := s.Ask(context.Background(), "What is gravity?")
	require.Error(t, err)

	assert.Equal(t, 1, s.Conversation().Count(domain.RoleUser))
	assert.False(t, s.Input().Busy())
	assert.True(t, msg.Failed)
	assert.Equal(t, domain.RoleAssistant, msg.Role)
	assert.Contains(t, msg.Content, "connection refused")
}

func TestEveryQuestionGetsOneReply(t *testing.T) {
	s := NewSession(&stubAsker{resp: domain.ChatResponse{Answer: "ok"}})
	for _, q := range []string{"one", "two", "three"} {
		_, err := s.Ask(context.Background(), q)
		require.NoError(t, err)
	}
	msgs := s.Conversation().Messages()
	require.Len(t, msgs, 6)
	for i, m := range msgs {
		want := domain.RoleUser
		if i%2 == 1 {
			want = domain.RoleAssistant
		}
		assert.Equal(t, want, m.Role, "message %d", i)
	}
}

func TestSourcesAreListedUnderAnswer(t *testing.T) {
	s := NewSession(&stubAsker{resp: domain.ChatResponse{Answer: "Magnets attract iron.", Sources: []string{"physics", "science_6"}}})
	msg, err := s.Ask(context.Background(), "magnets?")
	require.NoError(t, err)
	assert.Equal(t, "Magnets attract iron.\n\n**Sources:** physics, science_6", msg.Content)
}

func TestRecorderSeesEveryMessage(t *testing.T) {
	rec := &memRecorder{err: errors.New("disk full")}
	s := NewSession(&stubAsker{resp: domain.ChatResponse{Answer: "ok"}}, WithRecorder(rec))

	_, err := s.Ask(context.Background(), "hi")
	require.NoError(t, err, "recording failures must not fail the question")
	require.Len(t, rec.msgs, 2)
	assert.Equal(t, s.Conversation().Messages(), rec.msgs)
}

func TestConversationTimestampsAndRestore(t *testing.T) {
	c := NewConversation()
	fixed := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return fixed }
	c.newID = func() string { return "id-1" }

	c.Restore([]domain.Message{{ID: "old", Role: domain.RoleUser, Content: "earlier"}})
	m := c.Append(domain.RoleAssistant, "reply", false)

	assert.Equal(t, fixed, m.CreatedAt)
	assert.Equal(t, "id-1", m.ID)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "old", c.Messages()[0].ID)

	// Messages returns a copy
	msgs := c.Messages()
	msgs[0].Content = "changed"
	assert.Equal(t, "earlier", c.Messages()[0].Content)
}
