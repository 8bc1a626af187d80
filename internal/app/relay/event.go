/*
Package relay contains the transport-agnostic core of the room relay: the connection
registry, the room broadcaster, the presence and typing notifier, and the hub that
serializes every connection lifecycle event through a single loop.

This file defines the event kinds, the in-flight envelope and the JSON frame codec.
*/
package relay

import (
	"bytes"
	"encoding/json"
	"fmt"

	"roomrelay/internal/pkg/errs"
)

// Kind names an event on the wire.
type Kind string

const (
	// KindJoinRoom is sent by a client to join a room under a display name.
	KindJoinRoom Kind = "joinRoom"

	// KindLeaveRoom is sent by a client to leave its current room without disconnecting.
	KindLeaveRoom Kind = "leaveRoom"

	// KindChat carries chat text; relayed to the sender's room.
	KindChat Kind = "chatMessage"

	// KindTyping and KindStopTyping carry the sender's display name; relayed verbatim.
	KindTyping     Kind = "typing"
	KindStopTyping Kind = "stopTyping"

	// KindRoomNotice is emitted to existing members when someone joins.
	KindRoomNotice Kind = "roomNotice"

	// KindRoomLeave is emitted to remaining members when someone leaves, if enabled.
	KindRoomLeave Kind = "roomLeave"
)

// Event is the transient envelope routed from a sender to the members of a room.
// It is never stored.
type Event struct {
	Kind     Kind
	SenderID string
	Payload  string
}

// wireFrame is the JSON shape of every WebSocket text frame.
type wireFrame struct {
	Event  Kind            `json:"event"`
	Data   json.RawMessage `json:"data,omitempty"`
	Sender string          `json:"sender,omitempty"`
}

// Encode renders the event as an outbound frame.
func (e Event) Encode() ([]byte, error) {
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, err
	}

	return json.Marshal(wireFrame{
		Event:  e.Kind,
		Data:   data,
		Sender: e.SenderID,
	})
}

// ClientFrame is a decoded client-to-server frame.
type ClientFrame struct {
	Kind Kind

	// Text is the display name for joinRoom/typing/stopTyping and the content for chatMessage.
	Text string

	// Room is set when a joinRoom frame names its room explicitly.
	Room string
}

// joinObject is the explicit form of a joinRoom payload.
type joinObject struct {
	DisplayName *string `json:"displayName"`
	Room        string  `json:"room"`
}

// DecodeFrame parses a raw client frame. Unsupported events and payloads of the
// wrong type yield an ErrMalformedPayload error.
func DecodeFrame(raw []byte) (ClientFrame, error) {
	var wf wireFrame
	if err := json.Unmarshal(raw, &wf); err != nil {
		return ClientFrame{}, errs.NewError(errs.ErrMalformedPayload, fmt.Sprintf("invalid JSON: %v", err))
	}

	frame := ClientFrame{Kind: wf.Event}

	switch wf.Event {
	case KindLeaveRoom:
		return frame, nil

	case KindJoinRoom:
		data := bytes.TrimSpace(wf.Data)
		if len(data) > 0 && data[0] == '{' {
			var obj joinObject
			if err := json.Unmarshal(data, &obj); err != nil || obj.DisplayName == nil {
				return ClientFrame{}, errs.NewError(errs.ErrMalformedPayload, "joinRoom requires a string displayName")
			}
			frame.Text = *obj.DisplayName
			frame.Room = obj.Room
			return frame, nil
		}

		text, err := stringData(wf)
		if err != nil {
			return ClientFrame{}, err
		}
		frame.Text = text
		return frame, nil

	case KindChat, KindTyping, KindStopTyping:
		text, err := stringData(wf)
		if err != nil {
			return ClientFrame{}, err
		}
		frame.Text = text
		return frame, nil

	case "":
		return ClientFrame{}, errs.NewError(errs.ErrMalformedPayload, "missing event name")

	default:
		return ClientFrame{}, errs.NewError(errs.ErrMalformedPayload, fmt.Sprintf("unsupported event %q", wf.Event))
	}
}

func stringData(wf wireFrame) (string, error) {
	var text string
	data := bytes.TrimSpace(wf.Data)
	if len(data) == 0 || data[0] != '"' || json.Unmarshal(data, &text) != nil {
		return "", errs.NewError(errs.ErrMalformedPayload, fmt.Sprintf("%s requires a string payload", wf.Event))
	}
	return text, nil
}
