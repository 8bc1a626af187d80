/*
Package errs provides custom error types and application-level error code constants.

These error codes are used to clearly identify specific relay or system errors
both internally within the server and in HTTP responses to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrRateLimitExceeded indicates that the request rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007
)

// 2xxx: Room Errors
const (
	// ErrRoomIDInvalid indicates that a room identifier is empty, too long or contains unsupported characters.
	ErrRoomIDInvalid = 2101

	// ErrRoomNotFound indicates that the requested room currently has no members.
	ErrRoomNotFound = 2103
)

// 4xxx: Relay Errors
const (
	// ErrUnknownConnection indicates that an operation referenced a connection that is not registered,
	// usually because a frame raced ahead of disconnect cleanup.
	ErrUnknownConnection = 4001

	// ErrDeliveryFailure indicates that a single recipient could not accept a relayed event.
	ErrDeliveryFailure = 4002

	// ErrMalformedPayload indicates that a client frame could not be decoded or had the wrong payload type.
	ErrMalformedPayload = 4003

	// ErrNotInRoom indicates that the sender of a room event has not joined any room.
	ErrNotInRoom = 4004
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000
)
