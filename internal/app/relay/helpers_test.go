package relay

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// received is a decoded outbound frame as a client would see it.
type received struct {
	Event  Kind
	Data   string
	Sender string
}

// recordingTransport captures deliveries per recipient. Recipients listed in fail
// return an error and those in panics panic.
type recordingTransport struct {
	mu     sync.Mutex
	frames map[string][][]byte
	fail   map[string]bool
	panics map[string]bool
}

func newRecordingTransport() *recordingTransport {
	return &recordingTransport{
		frames: make(map[string][][]byte),
		fail:   make(map[string]bool),
		panics: make(map[string]bool),
	}
}

func (t *recordingTransport) Deliver(connectionID string, frame []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.panics[connectionID] {
		panic("socket gone")
	}
	if t.fail[connectionID] {
		return errors.New("queue full")
	}

	t.frames[connectionID] = append(t.frames[connectionID], frame)
	return nil
}

func (t *recordingTransport) received(tb testing.TB, connectionID string) []received {
	tb.Helper()

	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]received, 0, len(t.frames[connectionID]))
	for _, raw := range t.frames[connectionID] {
		var wf wireFrame
		require.NoError(tb, json.Unmarshal(raw, &wf))

		var data string
		require.NoError(tb, json.Unmarshal(wf.Data, &data))

		out = append(out, received{Event: wf.Event, Data: data, Sender: wf.Sender})
	}
	return out
}

func (t *recordingTransport) count(connectionID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.frames[connectionID])
}

func (t *recordingTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.frames = make(map[string][][]byte)
}

func frame(tb testing.TB, event Kind, data any) []byte {
	tb.Helper()

	raw, err := json.Marshal(map[string]any{"event": event, "data": data})
	require.NoError(tb, err)
	return raw
}
