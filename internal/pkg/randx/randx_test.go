package randx

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestConnectionIDUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := ConnectionID()

		parsed, err := uuid.Parse(id)
		require.NoError(t, err)
		require.Equal(t, uuid.Version(4), parsed.Version(), id)
		require.Equal(t, parsed.String(), id, "canonical form")

		_, dup := seen[id]
		require.False(t, dup, "connection id reused: %s", id)
		seen[id] = struct{}{}
	}
}
