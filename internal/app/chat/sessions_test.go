package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrelay/internal/pkg/errs"
)

func queuedClient(id string, size int) *Client {
	return &Client{id: id, send: make(chan []byte, size)}
}

func TestSessionsDeliver(t *testing.T) {
	s := NewSessions()
	c := queuedClient("c1", 2)
	s.Add(c)

	require.NoError(t, s.Deliver("c1", []byte("one")))
	require.NoError(t, s.Deliver("c1", []byte("two")))

	err := s.Deliver("c1", []byte("three"))
	assert.True(t, errs.HasCode(err, errs.ErrDeliveryFailure), "full queue drops: %v", err)

	assert.Equal(t, []byte("one"), <-c.send)
	assert.Equal(t, []byte("two"), <-c.send)
}

func TestSessionsDeliverUnknown(t *testing.T) {
	s := NewSessions()

	err := s.Deliver("ghost", []byte("x"))
	assert.True(t, errs.HasCode(err, errs.ErrDeliveryFailure))
}

func TestSessionsRemoveClosesQueue(t *testing.T) {
	s := NewSessions()
	c := queuedClient("c1", 1)
	s.Add(c)

	assert.True(t, s.Remove("c1"))
	assert.False(t, s.Remove("c1"))
	assert.Zero(t, s.Count())

	_, open := <-c.send
	assert.False(t, open)

	assert.Error(t, s.Deliver("c1", []byte("late")))
}

func TestSessionsCloseAll(t *testing.T) {
	s := NewSessions()
	clients := []*Client{queuedClient("a", 1), queuedClient("b", 1)}
	for _, c := range clients {
		s.Add(c)
	}
	require.Equal(t, 2, s.Count())

	s.CloseAll()

	assert.Zero(t, s.Count())
	for _, c := range clients {
		_, open := <-c.send
		assert.False(t, open, c.id)
	}
}

func TestClientConfigReadLimit(t *testing.T) {
	assert.Equal(t, int64(0), ClientConfig{}.ReadLimit())
	assert.Equal(t, int64(5000*6+frameOverhead), ClientConfig{MaxContentBytes: 5000}.ReadLimit())
}
