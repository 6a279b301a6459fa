package repository

import (
	"context"
	"testing"
	"time"

	"safebrowse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestHubClosesLaggingSubscriber(t *testing.T) {
	h := newHub(zap.NewNop())
	slow, unsubscribeSlow := h.subscribe(CollectionActivities, 1)
	defer unsubscribeSlow()
	fast, unsubscribeFast := h.subscribe(CollectionActivities, 4)
	defer unsubscribeFast()

	first := ActivityRecord(sampleActivity("maths", models.RiskLow, true))
	second := ActivityRecord(sampleActivity("roblox", models.RiskLow, true))
	h.publish(first)
	h.publish(second)

	rec, ok := <-slow
	require.True(t, ok)
	assert.Equal(t, first.ID(), rec.ID())
	_, ok = <-slow
	assert.False(t, ok, "lagging subscriber should be closed, not skipped")

	assert.Equal(t, first.ID(), (<-fast).ID())
	assert.Equal(t, second.ID(), (<-fast).ID())
}

func TestSubscribeLastEndsForLaggingReader(t *testing.T) {
	store := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	records, err := store.SubscribeLast(ctx, CollectionActivities, 0)
	require.NoError(t, err)

	// Nobody reads, so the hub buffer overflows and the stream must end.
	for i := 0; i < subscriberBuffer+4; i++ {
		require.NoError(t, store.Append(ctx, ActivityRecord(sampleActivity("maths", models.RiskLow, true))))
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-records:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("stream stayed open after falling behind")
		}
	}
}
