package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWindowActive(t *testing.T) {
	t.Parallel()

	w := DefaultWindow()

	cases := []struct {
		name   string
		hh, mm int
		want   bool
	}{
		{"before open", 9, 29, false},
		{"at open", 9, 30, true},
		{"midday", 12, 0, true},
		{"at close", 15, 15, true},
		{"after close", 15, 16, false},
		{"overnight", 2, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at := time.Date(2026, 2, 3, tc.hh, tc.mm, 0, 0, w.Loc)
			assert.Equal(t, tc.want, w.Active(at))
		})
	}
}

func TestWindowActiveConvertsZones(t *testing.T) {
	t.Parallel()

	w := DefaultWindow()

	// 06:30 UTC is 12:00 IST.
	assert.True(t, w.Active(time.Date(2026, 2, 3, 6, 30, 0, 0, time.UTC)))
	// 11:00 UTC is 16:30 IST.
	assert.False(t, w.Active(time.Date(2026, 2, 3, 11, 0, 0, 0, time.UTC)))
}

func TestParseWindow(t *testing.T) {
	t.Parallel()

	w, err := ParseWindow("09:30", "15:15", "")
	assert.NoError(t, err)
	assert.Equal(t, "09:30-15:15", w.String())

	_, err = ParseWindow("15:15", "09:30", "")
	assert.Error(t, err)

	_, err = ParseWindow("9h30", "15:15", "")
	assert.Error(t, err)

	_, err = ParseWindow("09:30", "15:15", "Not/AZone")
	assert.Error(t, err)
}

func TestFixedClock(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, at, FixedClock{T: at}.Now())
}
