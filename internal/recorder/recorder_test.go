package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"safebrowse/internal/models"
	"safebrowse/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// memStore is a Store that keeps records in memory and can fail on demand.
type memStore struct {
	repository.Store

	mu       sync.Mutex
	records  []repository.Record
	failures int
	block    chan struct{}
}

func (m *memStore) Append(_ context.Context, rec repository.Record) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return errors.New("database is locked")
	}
	m.records = append(m.records, rec)
	return nil
}

func (m *memStore) all() []repository.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.Record(nil), m.records...)
}

type fixedSettings models.AlertSettings

func (f fixedSettings) Snapshot() models.AlertSettings { return models.AlertSettings(f) }

type fakeNotifier struct {
	mu   sync.Mutex
	sent []models.AlertLog
}

func (f *fakeNotifier) Notify(_ context.Context, log models.AlertLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, log)
	return nil
}

func blockedGun() models.Activity {
	return models.NewActivity(models.KindSearch, "how to buy a gun", models.RiskAssessment{
		IsSafe:         false,
		RiskLevel:      models.RiskHigh,
		Sophistication: models.SophisticationAdolescent,
		Reason:         "guard",
	}, time.Now())
}

func allowedTips() models.Activity {
	return models.NewActivity(models.KindSearch, "fortnite tips", models.RiskAssessment{
		IsSafe:         true,
		RiskLevel:      models.RiskLow,
		Sophistication: models.SophisticationElementary,
	}, time.Now())
}

func TestEmitAppendsActivityAndAlerts(t *testing.T) {
	store := &memStore{}
	notifier := &fakeNotifier{}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), notifier, zap.NewNop())

	activity := blockedGun()
	r.Emit(activity)
	require.NoError(t, r.Close())

	recs := store.all()
	require.Len(t, recs, 3)
	assert.Equal(t, activity.ID, recs[0].ID())
	assert.Equal(t, models.MethodApp, recs[1].Alert.Method)
	assert.Equal(t, models.MethodSMS, recs[2].Alert.Method)
	assert.Contains(t, recs[2].Alert.Message, "+1 555-0199")

	require.Len(t, notifier.sent, 1)
	assert.Equal(t, recs[2].ID(), notifier.sent[0].ID)
	assert.Equal(t, int64(3), r.Stats().Appended)
}

func TestEmitBelowThresholdRaisesNothing(t *testing.T) {
	store := &memStore{}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), nil, zap.NewNop())

	r.Emit(allowedTips())
	require.NoError(t, r.Close())

	recs := store.all()
	require.Len(t, recs, 1)
	assert.Equal(t, repository.CollectionActivities, recs[0].Collection)
}

func TestWriteRetries(t *testing.T) {
	store := &memStore{failures: 2}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), nil, zap.NewNop(), WithRetry(3, 0))

	r.Emit(allowedTips())
	require.NoError(t, r.Close())

	assert.Len(t, store.all(), 1)
	assert.Zero(t, r.Stats().Failed)
}

func TestWriteGivesUp(t *testing.T) {
	store := &memStore{failures: 3}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), nil, zap.NewNop(), WithRetry(3, 0))

	r.Emit(allowedTips())
	require.NoError(t, r.Close())

	assert.Empty(t, store.all())
	assert.Equal(t, int64(1), r.Stats().Failed)
}

func TestFullQueueDrops(t *testing.T) {
	store := &memStore{block: make(chan struct{})}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), nil, zap.NewNop(), WithQueueSize(1))

	// The writer takes the first record and blocks on it; the second fills
	// the queue and the third has nowhere to go.
	r.Emit(allowedTips())
	require.Eventually(t, func() bool { return len(r.queue) == 0 }, time.Second, time.Millisecond)
	r.Emit(allowedTips())
	r.Emit(allowedTips())

	assert.Equal(t, int64(1), r.Stats().Dropped)
	close(store.block)
	require.NoError(t, r.Close())
	assert.Len(t, store.all(), 2)
}

func TestEmitAfterClose(t *testing.T) {
	store := &memStore{}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), nil, zap.NewNop())
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	r.Emit(allowedTips())
	assert.Empty(t, store.all())
	assert.Equal(t, int64(1), r.Stats().Dropped)
}

func TestRaiseTest(t *testing.T) {
	store := &memStore{}
	notifier := &fakeNotifier{}
	r := New(store, fixedSettings(models.DefaultAlertSettings()), notifier, zap.NewNop())

	log := r.RaiseTest()
	require.NoError(t, r.Close())

	assert.Equal(t, models.MethodSMS, log.Method)
	assert.Equal(t, models.RiskHigh, log.RiskLevel)
	require.Len(t, store.all(), 1)
	assert.Len(t, notifier.sent, 1)
}
