/*
Package randx provides identifier generation for the relay.

Connection ids are random UUID v4 strings: opaque to clients, unique for the life of
the process and never reused.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnectionID returns a fresh identifier for a newly accepted connection.
func ConnectionID() string {
	return uuid.NewString()
}
