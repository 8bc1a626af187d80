/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the detailed CustomError struct corresponding to every application error code.
// The key is the error code (int), and the value contains the message and HTTP status code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},

	// 2xxx: Room Errors
	ErrRoomIDInvalid: {Code: ErrRoomIDInvalid, Message: "Invalid room id.", Status: http.StatusBadRequest},
	ErrRoomNotFound:  {Code: ErrRoomNotFound, Message: "Room has no members.", Status: http.StatusNotFound},

	// 4xxx: Relay Errors
	ErrUnknownConnection: {Code: ErrUnknownConnection, Message: "Connection is not registered.", Status: http.StatusNotFound},
	ErrDeliveryFailure:   {Code: ErrDeliveryFailure, Message: "Recipient could not accept the event: %s", Status: http.StatusInternalServerError},
	ErrMalformedPayload:  {Code: ErrMalformedPayload, Message: "Malformed payload: %s", Status: http.StatusBadRequest},
	ErrNotInRoom:         {Code: ErrNotInRoom, Message: "Connection has not joined a room.", Status: http.StatusBadRequest},

	// 5xxx: Internal System Errors
	ErrUnknown: {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}
