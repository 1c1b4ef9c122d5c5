package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZoned_NowInZoneTruncated(t *testing.T) {
	z, err := NewZoned("")
	require.NoError(t, err)
	z.now = func() time.Time { return time.Date(2024, 3, 1, 6, 30, 15, 999_000_000, time.UTC) }

	now := z.Now()
	assert.Equal(t, DefaultZone, now.Location().String())
	assert.Equal(t, "2024-03-01 12:00:15", now.Format(CivilLayout))
	assert.Zero(t, now.Nanosecond())
}

func TestNewZoned_UnknownZone(t *testing.T) {
	_, err := NewZoned("Mars/Olympus")
	require.Error(t, err)
}

func TestCivilRoundTrip(t *testing.T) {
	loc, err := time.LoadLocation(DefaultZone)
	require.NoError(t, err)

	instant := time.Date(2024, 3, 1, 23, 45, 0, 0, time.UTC)
	civil := ToCivil(instant, loc)
	assert.Equal(t, time.UTC, civil.Location())
	assert.Equal(t, "2024-03-02 05:15:00", civil.Format(CivilLayout))

	back := FromCivil(civil, loc)
	assert.True(t, back.Equal(instant))
	assert.Equal(t, "2024-03-02 05:15:00", Format(instant, loc))
}

func TestFixed_Advance(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	f := &Fixed{T: start}
	f.Advance(5 * time.Minute)
	assert.Equal(t, start.Add(5*time.Minute), f.Now())
}
