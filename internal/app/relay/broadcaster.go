package relay

import (
	"fmt"

	"github.com/rs/zerolog"

	"roomrelay/internal/pkg/errs"
	"roomrelay/internal/pkg/logx"
)

// Transport hands an encoded frame to one live connection. Implementations must not
// block on slow recipients; a non-nil error means the frame was dropped for that recipient.
type Transport interface {
	Deliver(connectionID string, frame []byte) error
}

// Delivery is the outcome of one fan-out.
type Delivery struct {
	Attempted int
	Delivered int
	Failed    []string
}

// Broadcaster fans events out to every member of a room except the sender.
type Broadcaster struct {
	registry  *Registry
	transport Transport
	logger    zerolog.Logger
}

// NewBroadcaster wires a Broadcaster to the registry it reads membership from.
func NewBroadcaster(registry *Registry, transport Transport) *Broadcaster {
	return &Broadcaster{
		registry:  registry,
		transport: transport,
		logger:    logx.Component("broadcaster"),
	}
}

// Broadcast delivers (kind, payload) from senderID to every other current member of roomID.
// Delivery is best effort: a failing recipient is logged and skipped, and nothing is
// reported back to the sender.
func (b *Broadcaster) Broadcast(senderID, roomID string, kind Kind, payload string) Delivery {
	var result Delivery

	event := Event{Kind: kind, SenderID: senderID, Payload: payload}
	frame, err := event.Encode()
	if err != nil {
		b.logger.Error().Err(err).Str("room_id", roomID).Str("event", string(kind)).Msg("Failed to encode event for broadcast.")
		return result
	}

	for _, memberID := range b.registry.MembersOf(roomID, senderID) {
		result.Attempted++

		if err := b.deliver(memberID, frame); err != nil {
			result.Failed = append(result.Failed, memberID)
			b.logger.Warn().
				Err(err).
				Str("room_id", roomID).
				Str("recipient_id", memberID).
				Str("event", string(kind)).
				Msg("Delivery failed, event dropped for recipient.")
			continue
		}

		result.Delivered++
	}

	b.logger.Debug().
		Str("room_id", roomID).
		Str("sender_id", senderID).
		Str("event", string(kind)).
		Int("attempted", result.Attempted).
		Int("delivered", result.Delivered).
		Msg("Broadcast finished.")

	return result
}

// deliver isolates a single recipient: transport errors and panics both become an
// ErrDeliveryFailure for that recipient only.
func (b *Broadcaster) deliver(memberID string, frame []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errs.NewError(errs.ErrDeliveryFailure, fmt.Sprintf("transport panic: %v", r))
		}
	}()

	if err := b.transport.Deliver(memberID, frame); err != nil {
		if errs.HasCode(err, errs.ErrDeliveryFailure) {
			return err
		}
		return fmt.Errorf("%w: %w", errs.NewError(errs.ErrDeliveryFailure, memberID), err)
	}

	return nil
}
