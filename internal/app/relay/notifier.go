package relay

// Notifier turns lifecycle changes and client typing hints into room-wide events.
// Every notice goes through the Broadcaster, so the subject never receives its own notice.
type Notifier struct {
	broadcaster  *Broadcaster
	leaveNotices bool
}

// NewNotifier returns a Notifier. With leaveNotices false no event is emitted when a
// member leaves or disconnects; only joins are announced.
func NewNotifier(broadcaster *Broadcaster, leaveNotices bool) *Notifier {
	return &Notifier{
		broadcaster:  broadcaster,
		leaveNotices: leaveNotices,
	}
}

// Joined announces displayName to the members already in roomID.
func (n *Notifier) Joined(connectionID, roomID, displayName string) Delivery {
	return n.broadcaster.Broadcast(connectionID, roomID, KindRoomNotice, displayName)
}

// Typing relays a typing or stop-typing hint. The payload is passed through as sent.
func (n *Notifier) Typing(connectionID, roomID string, kind Kind, displayName string) Delivery {
	return n.broadcaster.Broadcast(connectionID, roomID, kind, displayName)
}

// Left announces a departure when leave notices are enabled. The second result
// reports whether a notice was sent.
func (n *Notifier) Left(connectionID, roomID, displayName string) (Delivery, bool) {
	if !n.leaveNotices {
		return Delivery{}, false
	}
	return n.broadcaster.Broadcast(connectionID, roomID, KindRoomLeave, displayName), true
}
