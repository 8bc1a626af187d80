package relay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"roomrelay/internal/pkg/errs"
)

func joinedRegistry(t *testing.T, room string, ids ...string) *Registry {
	t.Helper()

	r := NewRegistry()
	for _, id := range ids {
		r.Register(id)
		if _, err := r.Join(id, room, "name-"+id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
	}
	return r
}

func TestBroadcastExcludesSender(t *testing.T) {
	transport := newRecordingTransport()
	b := NewBroadcaster(joinedRegistry(t, "group", "a", "b", "c"), transport)

	d := b.Broadcast("a", "group", KindChat, "hello")

	assert.Equal(t, Delivery{Attempted: 2, Delivered: 2}, d)
	assert.Empty(t, transport.received(t, "a"))
	for _, id := range []string{"b", "c"} {
		assert.Equal(t, []received{{Event: KindChat, Data: "hello", Sender: "a"}}, transport.received(t, id))
	}
}

func TestBroadcastSoleMemberDeliversNothing(t *testing.T) {
	transport := newRecordingTransport()
	b := NewBroadcaster(joinedRegistry(t, "group", "a"), transport)

	assert.Equal(t, Delivery{}, b.Broadcast("a", "group", KindChat, "anyone?"))
}

func TestBroadcastUnknownRoom(t *testing.T) {
	transport := newRecordingTransport()
	b := NewBroadcaster(joinedRegistry(t, "group", "a", "b"), transport)

	assert.Equal(t, Delivery{}, b.Broadcast("a", "nowhere", KindChat, "x"))
	assert.Empty(t, transport.received(t, "b"))
}

func TestBroadcastIsolatesFailingRecipients(t *testing.T) {
	transport := newRecordingTransport()
	transport.fail["b"] = true
	transport.panics["c"] = true
	b := NewBroadcaster(joinedRegistry(t, "group", "a", "b", "c", "d"), transport)

	d := b.Broadcast("a", "group", KindTyping, "name-a")

	assert.Equal(t, 3, d.Attempted)
	assert.Equal(t, 1, d.Delivered)
	assert.ElementsMatch(t, []string{"b", "c"}, d.Failed)
	assert.Equal(t, []received{{Event: KindTyping, Data: "name-a", Sender: "a"}}, transport.received(t, "d"))
}

func TestDeliverWrapsTransportErrors(t *testing.T) {
	transport := newRecordingTransport()
	transport.fail["b"] = true
	transport.panics["c"] = true
	b := NewBroadcaster(NewRegistry(), transport)

	err := b.deliver("b", []byte("{}"))
	assert.True(t, errs.HasCode(err, errs.ErrDeliveryFailure))
	assert.ErrorContains(t, err, "queue full")

	err = b.deliver("c", []byte("{}"))
	assert.True(t, errs.HasCode(err, errs.ErrDeliveryFailure))
	assert.ErrorContains(t, err, "socket gone")
}
