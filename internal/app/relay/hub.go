package relay

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

const inboundBuffer = 1024

// Options tunes hub behaviour.
type Options struct {
	// DefaultRoom receives joins that name no room and arrive on a connection without an entry room.
	DefaultRoom string

	// LeaveNotices enables roomLeave events on leaveRoom and disconnect.
	LeaveNotices bool

	// MaxContentBytes bounds chat content; longer messages are dropped. Zero disables the check.
	MaxContentBytes int
}

type inboundKind int

const (
	inboundConnect inboundKind = iota
	inboundFrame
	inboundDisconnect
)

func (k inboundKind) String() string {
	switch k {
	case inboundConnect:
		return "connect"
	case inboundFrame:
		return "frame"
	default:
		return "disconnect"
	}
}

// inbound is one transport event queued for the Run loop.
type inbound struct {
	kind         inboundKind
	connectionID string
	entryRoom    string
	raw          []byte
}

// Hub owns the registry, broadcaster and notifier of one relay process.
type Hub struct {
	registry    *Registry
	broadcaster *Broadcaster
	notifier    *Notifier
	opts        Options

	inbound chan inbound

	// done is closed when Run returns; enqueuing afterwards is a no-op.
	done chan struct{}

	logger zerolog.Logger
}

// NewHub builds a Hub around registry that delivers through transport.
func NewHub(registry *Registry, transport Transport, opts Options) *Hub {
	if opts.DefaultRoom == "" {
		opts.DefaultRoom = "group"
	}

	broadcaster := NewBroadcaster(registry, transport)

	return &Hub{
		registry:    registry,
		broadcaster: broadcaster,
		notifier:    NewNotifier(broadcaster, opts.LeaveNotices),
		opts:        opts,
		inbound:     make(chan inbound, inboundBuffer),
		done:        make(chan struct{}),
		logger:      logx.Component("hub"),
	}
}

// Registry exposes the hub's registry for read-only introspection.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes queued events until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	h.logger.Info().Str("default_room", h.opts.DefaultRoom).Bool("leave_notices", h.opts.LeaveNotices).Msg("Hub loop started.")

	for {
		select {
		case <-ctx.Done():
			h.logger.Info().
				Int("connections", h.registry.ConnectionCount()).
				Int("rooms", len(h.registry.Rooms())).
				Msg("Hub loop stopped.")
			return

		case ev := <-h.inbound:
			h.report(ev, h.handle(ev))
		}
	}
}

// Connect queues the registration of a newly accepted connection.
func (h *Hub) Connect(connectionID string) bool {
	return h.enqueue(inbound{kind: inboundConnect, connectionID: connectionID})
}

// Receive queues a raw client frame. entryRoom is the room a plain joinRoom from this
// connection targets; empty means the hub's default room.
func (h *Hub) Receive(connectionID, entryRoom string, raw []byte) bool {
	return h.enqueue(inbound{kind: inboundFrame, connectionID: connectionID, entryRoom: entryRoom, raw: raw})
}

// Disconnect queues the eviction of a closed connection.
func (h *Hub) Disconnect(connectionID string) bool {
	return h.enqueue(inbound{kind: inboundDisconnect, connectionID: connectionID})
}

func (h *Hub) enqueue(ev inbound) bool {
	select {
	case <-h.done:
		return false
	default:
	}

	select {
	case h.inbound <- ev:
		return true
	case <-h.done:
		return false
	}
}

// handle applies one event. Returned errors are contained by the caller; they never
// reach a client.
func (h *Hub) handle(ev inbound) error {
	switch ev.kind {
	case inboundConnect:
		h.registry.Register(ev.connectionID)
		h.logger.Debug().Str("connection_id", ev.connectionID).Msg("Connection registered.")
		return nil

	case inboundDisconnect:
		h.disconnect(ev.connectionID)
		return nil

	default:
		return h.handleFrame(ev)
	}
}

func (h *Hub) handleFrame(ev inbound) error {
	frame, err := DecodeFrame(ev.raw)
	if err != nil {
		return err
	}

	if !h.registry.IsRegistered(ev.connectionID) {
		return errs.NewError(errs.ErrUnknownConnection)
	}

	switch frame.Kind {
	case KindJoinRoom:
		return h.join(ev.connectionID, ev.entryRoom, frame)

	case KindLeaveRoom:
		return h.leaveAll(ev.connectionID)

	case KindChat:
		if h.opts.MaxContentBytes > 0 && len(frame.Text) > h.opts.MaxContentBytes {
			return errs.NewError(errs.ErrMalformedPayload, fmt.Sprintf("content exceeds %d bytes", h.opts.MaxContentBytes))
		}
		return h.relay(ev.connectionID, func(roomID string) {
			h.broadcaster.Broadcast(ev.connectionID, roomID, KindChat, frame.Text)
		})

	default:
		return h.relay(ev.connectionID, func(roomID string) {
			h.notifier.Typing(ev.connectionID, roomID, frame.Kind, frame.Text)
		})
	}
}

// join moves the connection into its target room. A connection holds one room at a
// time, so any other room is left first.
func (h *Hub) join(connectionID, entryRoom string, frame ClientFrame) error {
	roomID := frame.Room
	if roomID == "" {
		roomID = entryRoom
	}
	if roomID == "" {
		roomID = h.opts.DefaultRoom
	}

	if !ValidRoomID(roomID) {
		return errs.NewError(errs.ErrMalformedPayload, fmt.Sprintf("invalid room id %q", roomID))
	}

	previousName, _ := h.registry.DisplayName(connectionID)
	for _, current := range h.registry.RoomsOf(connectionID) {
		if current == roomID {
			continue
		}
		if err := h.leave(connectionID, current, previousName); err != nil {
			return err
		}
	}

	joined, err := h.registry.Join(connectionID, roomID, frame.Text)
	if err != nil {
		return err
	}

	logger := h.logger.With().Str("connection_id", connectionID).Str("room_id", roomID).Logger()

	if !joined {
		logger.Debug().Str("display_name", frame.Text).Msg("Repeated join, display name updated.")
		return nil
	}

	delivery := h.notifier.Joined(connectionID, roomID, frame.Text)
	logger.Info().
		Str("display_name", frame.Text).
		Int("notified", delivery.Delivered).
		Msg("Connection joined room.")

	return nil
}

func (h *Hub) leaveAll(connectionID string) error {
	name, _ := h.registry.DisplayName(connectionID)
	for _, roomID := range h.registry.RoomsOf(connectionID) {
		if err := h.leave(connectionID, roomID, name); err != nil {
			return err
		}
	}
	return nil
}

func (h *Hub) leave(connectionID, roomID, displayName string) error {
	left, err := h.registry.Leave(connectionID, roomID)
	if err != nil || !left {
		return err
	}

	h.notifier.Left(connectionID, roomID, displayName)
	h.logger.Info().Str("connection_id", connectionID).Str("room_id", roomID).Msg("Connection left room.")
	return nil
}

// relay runs send for every room the sender belongs to.
func (h *Hub) relay(connectionID string, send func(roomID string)) error {
	rooms := h.registry.RoomsOf(connectionID)
	if len(rooms) == 0 {
		return errs.NewError(errs.ErrNotInRoom)
	}

	for _, roomID := range rooms {
		send(roomID)
	}
	return nil
}

func (h *Hub) disconnect(connectionID string) {
	rooms, name, ok := h.registry.Unregister(connectionID)
	if !ok {
		h.logger.Debug().Str("connection_id", connectionID).Msg("Disconnect for unknown connection ignored.")
		return
	}

	for _, roomID := range rooms {
		h.notifier.Left(connectionID, roomID, name)
	}

	h.logger.Info().
		Str("connection_id", connectionID).
		Str("display_name", name).
		Strs("rooms", rooms).
		Msg("Connection disconnected.")
}

// report logs a contained handler failure at a level matching its cause.
func (h *Hub) report(ev inbound, err error) {
	if err == nil {
		return
	}

	var event *zerolog.Event
	switch {
	case errs.HasCode(err, errs.ErrUnknownConnection), errs.HasCode(err, errs.ErrNotInRoom):
		event = h.logger.Debug()
	case errs.HasCode(err, errs.ErrMalformedPayload):
		event = h.logger.Warn()
	default:
		event = h.logger.Error()
	}

	event.Err(err).
		Str("connection_id", ev.connectionID).
		Str("inbound", ev.kind.String()).
		Msg("Event dropped.")
}
