package sched

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFakeClockAfterFunc(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))

	fired := 0
	clock.AfterFunc(5*time.Second, func() { fired++ })

	clock.Advance(4 * time.Second)
	assert.Equal(t, 0, fired)

	clock.Advance(1 * time.Second)
	assert.Equal(t, 1, fired)

	// Fires once.
	clock.Advance(time.Minute)
	assert.Equal(t, 1, fired)
}

func TestFakeClockStop(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))

	fired := false
	timer := clock.AfterFunc(time.Second, func() { fired = true })

	assert.True(t, timer.Stop())
	clock.Advance(time.Minute)
	assert.False(t, fired)
	assert.False(t, timer.Stop())
}

func TestFakeClockOrdering(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))

	var order []int
	clock.AfterFunc(3*time.Second, func() { order = append(order, 3) })
	clock.AfterFunc(1*time.Second, func() { order = append(order, 1) })
	clock.AfterFunc(2*time.Second, func() { order = append(order, 2) })

	clock.Advance(5 * time.Second)
	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestFakeClockSleepAdvances(t *testing.T) {
	clock := NewFakeClock(time.Unix(1000, 0))
	before := clock.Now()
	clock.Sleep(7 * time.Second)
	assert.Equal(t, 7*time.Second, clock.Now().Sub(before))
}
