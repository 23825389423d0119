package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRealClock_Now(t *testing.T) {
	before := time.Now().UTC()
	got := RealClock{}.Now()
	after := time.Now().UTC()

	assert.False(t, got.Before(before))
	assert.False(t, got.After(after))
	assert.Equal(t, time.UTC, got.Location())
}

func TestSetAndReset(t *testing.T) {
	fixed := time.Date(2026, 10, 14, 9, 30, 0, 0, time.UTC)
	Set(FixedClock{Time: fixed})
	t.Cleanup(Reset)

	assert.Equal(t, fixed, Now())
	assert.Equal(t, fixed, Now(), "fixed clock must not advance")

	Reset()
	assert.NotEqual(t, fixed, Now())
}
