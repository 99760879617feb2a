package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGuard_Empty(t *testing.T) {
	g, err := NewGuard("")
	require.NoError(t, err)
	assert.Nil(t, g)

	ok, err := g.Allow("anything", "", &Booking{})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNewGuard_CompileError(t *testing.T) {
	_, err := NewGuard(`event ==`)
	require.Error(t, err)
}

func TestGuard_Allow(t *testing.T) {
	b, err := ParsePayload(`{"$id":"abc","$permissions":["read(\"any\")"],"$collectionId":"bookings","status":"pending"}`)
	require.NoError(t, err)

	cases := []struct {
		expr    string
		event   string
		trigger string
		want    bool
	}{
		{`trigger == "event"`, "", "event", true},
		{`trigger == "event"`, "", "http", false},
		{`collection == "bookings"`, "", "", true},
		{`record.status == "pending"`, "", "", true},
		{`record.status in ["confirmed", "paid"]`, "", "", false},
		{`event matches "^databases\\.[^.]+\\.collections\\.bookings\\.documents\\.[^.]+\\.create$"`, "databases.main.collections.bookings.documents.abc.create", "", true},
	}
	for _, tc := range cases {
		g, err := NewGuard(tc.expr)
		require.NoError(t, err, tc.expr)
		got, err := g.Allow(tc.event, tc.trigger, b)
		require.NoError(t, err, tc.expr)
		assert.Equal(t, tc.want, got, tc.expr)
		assert.Equal(t, tc.expr, g.String())
	}
}
