package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWindow_NilBoundsAreUnbounded(t *testing.T) {
	w := NewWindow(nil, nil)
	assert.Equal(t, MinDate, w.Start)
	assert.Equal(t, MaxDate, w.End)
	assert.True(t, w.Contains(date(2025, 6, 15)))
}

func TestNewWindow_TruncatesDatetimes(t *testing.T) {
	start := time.Date(2025, 1, 1, 23, 59, 59, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 1, 0, time.UTC)

	w := NewWindow(&start, &end)
	assert.Equal(t, date(2025, 1, 1), w.Start)
	assert.Equal(t, date(2025, 1, 31), w.End)
}

func TestWindow_ContainsIsInclusive(t *testing.T) {
	w := NewWindow(datePtr(2025, 1, 10), datePtr(2025, 1, 20))

	assert.True(t, w.Contains(date(2025, 1, 10)))
	assert.True(t, w.Contains(date(2025, 1, 20)))
	assert.False(t, w.Contains(date(2025, 1, 9)))
	assert.False(t, w.Contains(date(2025, 1, 21)))
}

func TestParseBound(t *testing.T) {
	got, err := ParseBound("2025-11-01")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 11, 1), got)

	got, err = ParseBound("2025-11-01T14:30:00Z")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 11, 1), got)

	got, err = ParseBound("2025-11-01T14:30:00")
	require.NoError(t, err)
	assert.Equal(t, date(2025, 11, 1), got)

	_, err = ParseBound("November 1st")
	assert.Error(t, err)
}
