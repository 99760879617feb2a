package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	for _, debug := range []bool{false, true} {
		l, err := New(debug)
		require.NoError(t, err)
		require.NotNil(t, l)
		require.Equal(t, debug, l.Core().Enabled(-1))
	}
}

func TestOrNop(t *testing.T) {
	require.NotNil(t, OrNop(nil))
	l := NewTest()
	require.Same(t, l, OrNop(l))
}
