package models

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeString(t *testing.T) {
	tests := []struct {
		in   Time
		want string
	}{
		{in: 0, want: "[0:00]"},
		{in: 1500, want: "[0:01.500]"},
		{in: FromMinutes(2), want: "[2:00]"},
		{in: FromHours(1) + FromMinutes(1) + FromSeconds(1), want: "[1:01:01]"},
		{in: -2000, want: "[-0:02]"},
		{in: TimeMin, want: "[-9223372036854775808 ticks]"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.String())
	}
}

func TestTimeArithmetic(t *testing.T) {
	assert.Equal(t, Time(250), FromDuration(250*time.Millisecond))
	assert.Equal(t, 1500*time.Millisecond, Time(1500).Duration())

	year := 365 * 24 * time.Hour
	assert.Equal(t, FromHours(200*24*365), FromDuration(200*year))
	assert.Equal(t, 200*year, FromDuration(200*year).Duration())
	assert.Equal(t, -200*year, FromDuration(-200*year).Duration())
	assert.Equal(t, time.Duration(math.MaxInt64), TimeMax.Duration())
	assert.Equal(t, time.Duration(math.MinInt64), TimeMin.Duration())
	assert.InDelta(t, 1.5, Time(1500).Seconds(), 1e-9)
	assert.Equal(t, Time(30), Time(10).Add(20))
	assert.Equal(t, Time(-10), Time(10).Sub(20))
	assert.Equal(t, Time(15), Time(10).Scale(1.5))
	assert.Equal(t, Time(5), Time(10).Div(2))
	assert.True(t, TimeMin.Before(TimeZero))
	assert.True(t, TimeMax.After(TimeZero))
	assert.Equal(t, -1, TimeMin.Compare(TimeMax))
	assert.Equal(t, 0, Time(3).Compare(3))
}

func TestEntity(t *testing.T) {
	a, b := NewEntity(), NewEntity()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsNil())
	assert.True(t, NilEntity.IsNil())

	parsed, err := ParseEntity(a.UUID().String())
	require.NoError(t, err)
	assert.Equal(t, a, parsed)
	assert.Equal(t, a, EntityFrom(a.UUID()))
	assert.Equal(t, "[Entity "+a.UUID().String()+"]", a.String())

	_, err = ParseEntity("not-a-uuid")
	assert.Error(t, err)
	assert.Equal(t, NilEntity, EntityFrom(uuid.Nil))
}

func TestOption(t *testing.T) {
	some := Some(3)
	v, ok := some.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.Equal(t, Present, some.State())

	none := None[int]()
	assert.False(t, none.IsSome())
	assert.Zero(t, none.OrZero())
	assert.Equal(t, Absent, none.State())

	assert.False(t, Unknown.Known())
	assert.True(t, Absent.Known())
	assert.Equal(t, "present", Present.String())
}
