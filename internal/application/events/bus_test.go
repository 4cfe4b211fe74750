package events

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusRingCapacity(t *testing.T) {
	b := NewBus(5)
	for i := 0; i < 12; i++ {
		b.Publish(TypeInfo, fmt.Sprintf("ev-%d", i), nil)
	}

	got := b.Recent(0)
	require.Len(t, got, 5)
	// Newest first, oldest entries evicted.
	assert.Equal(t, "ev-11", got[0].Message)
	assert.Equal(t, "ev-7", got[4].Message)
}

func TestBusRecentLimit(t *testing.T) {
	b := NewBus(10)
	for i := 0; i < 4; i++ {
		b.Publish(TypeScan, fmt.Sprintf("ev-%d", i), nil)
	}

	got := b.Recent(2)
	require.Len(t, got, 2)
	assert.Equal(t, "ev-3", got[0].Message)
	assert.Equal(t, "ev-2", got[1].Message)
}

func TestBusSubscribeReceivesInOrder(t *testing.T) {
	b := NewBus(10)
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(TypeTrade, "first", map[string]any{"size": 500.0})
	b.Publish(TypeSettle, "second", nil)

	ev := <-ch
	assert.Equal(t, "first", ev.Message)
	assert.Equal(t, 500.0, ev.Data["size"])
	assert.NotEmpty(t, ev.ID)

	ev = <-ch
	assert.Equal(t, "second", ev.Message)
}

func TestBusSlowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBus(10)
	_, cancel := b.Subscribe()
	defer cancel()

	// Channel buffer is 64; overflow past it must not deadlock.
	for i := 0; i < 200; i++ {
		b.Publish(TypeInfo, "spam", nil)
	}
	assert.Len(t, b.Recent(0), 10)
}

func TestBusCancelIsIdempotent(t *testing.T) {
	b := NewBus(10)
	_, cancel := b.Subscribe()
	cancel()
	cancel()
	b.Publish(TypeInfo, "after cancel", nil)
}
