package gate

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"safebrowse/internal/classifier"
	"safebrowse/internal/guard"
	"safebrowse/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubClassifier answers immediately unless the input is "slow", which
// blocks until the context ends and then fails open like the adapter does.
type stubClassifier struct {
	calls  atomic.Int32
	result models.RiskAssessment
}

func (s *stubClassifier) Classify(ctx context.Context, input string) models.RiskAssessment {
	s.calls.Add(1)
	if input == "slow" {
		<-ctx.Done()
		return classifier.Fallback()
	}
	return s.result
}

type recordingEmitter struct {
	mu         sync.Mutex
	activities []models.Activity
}

func (r *recordingEmitter) Emit(a models.Activity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities = append(r.activities, a)
}

func (r *recordingEmitter) all() []models.Activity {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Activity(nil), r.activities...)
}

func lowElementary() models.RiskAssessment {
	return models.RiskAssessment{
		IsSafe:         true,
		RiskLevel:      models.RiskLow,
		Sophistication: models.SophisticationElementary,
		Reason:         "Gaming content",
		SearchResults:  []models.SearchResult{{Title: "Tips", URL: "https://example.com/tips"}},
	}
}

func newTestGate(opts ...Option) (*Gate, *stubClassifier, *recordingEmitter) {
	cls := &stubClassifier{result: lowElementary()}
	em := &recordingEmitter{}
	return New(guard.NewDefault(), cls, em, zap.NewNop(), opts...), cls, em
}

func waitForPhase(t *testing.T, g *Gate, phase Phase) {
	t.Helper()
	require.Eventually(t, func() bool { return g.State().Phase == phase }, time.Second, time.Millisecond)
}

func TestNavigateRejectsEmptyInput(t *testing.T) {
	g, cls, em := newTestGate()

	for _, input := range []string{"", "   ", "\t\n"} {
		_, _, err := g.Navigate(context.Background(), input, models.KindSearch)
		assert.ErrorIs(t, err, ErrEmptyInput)
	}

	assert.Empty(t, em.all())
	assert.Zero(t, cls.calls.Load())
	assert.Equal(t, State{Phase: PhaseIdle}, g.State())
}

func TestNavigateRejectsUnknownKind(t *testing.T) {
	g, _, em := newTestGate()
	_, _, err := g.Navigate(context.Background(), "maths", "download")
	assert.ErrorIs(t, err, ErrInvalidKind)
	assert.Empty(t, em.all())
}

func TestNavigateGuardShortCircuits(t *testing.T) {
	g, cls, em := newTestGate()

	activity, assessment, err := g.Navigate(context.Background(), "how to buy a gun", models.KindSearch)
	require.NoError(t, err)

	assert.Zero(t, cls.calls.Load(), "classifier must not be called")
	assert.False(t, assessment.IsSafe)
	assert.Equal(t, models.RiskHigh, assessment.RiskLevel)
	assert.Equal(t, models.StatusBlocked, activity.Status)
	assert.Equal(t, models.RiskHigh, activity.RiskLevel)
	assert.Equal(t, "how to buy a gun", activity.Content)
	assert.Equal(t, models.KindSearch, activity.Kind)

	require.Len(t, em.all(), 1)
	assert.Equal(t, activity, em.all()[0])

	st := g.State()
	assert.Equal(t, PhaseBlocked, st.Phase)
	require.NotNil(t, st.Notice)
	assert.Equal(t, "Content Restricted", st.Notice.Title)
	assert.Contains(t, st.Notice.Message, `"gun"`)
}

func TestNavigateClassifierAllows(t *testing.T) {
	g, cls, em := newTestGate()

	activity, assessment, err := g.Navigate(context.Background(), "fortnite tips", models.KindSearch)
	require.NoError(t, err)

	assert.Equal(t, int32(1), cls.calls.Load())
	assert.True(t, assessment.IsSafe)
	assert.Len(t, assessment.SearchResults, 1)
	assert.Equal(t, models.StatusAllowed, activity.Status)
	assert.Equal(t, models.RiskLow, activity.RiskLevel)
	assert.Equal(t, models.SophisticationElementary, activity.Sophistication)
	assert.True(t, activity.Verified)
	assert.Len(t, em.all(), 1)
	assert.Equal(t, PhaseAllowed, g.State().Phase)
}

func TestNavigateVisitSetsDisplayURL(t *testing.T) {
	g, _, _ := newTestGate()

	_, _, err := g.Navigate(context.Background(), "wikipedia.org", models.KindVisit)
	require.NoError(t, err)
	assert.Equal(t, "https://wikipedia.org", g.State().URL)
}

func TestNavigateUsesClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	g, _, _ := newTestGate(WithClock(func() time.Time { return fixed }))

	activity, _, err := g.Navigate(context.Background(), "fractions", models.KindSearch)
	require.NoError(t, err)
	assert.Equal(t, fixed, activity.Timestamp)
}

func TestRejectModeReturnsBusy(t *testing.T) {
	g, _, em := newTestGate(WithMode(ModeReject))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Navigate(ctx, "slow", models.KindSearch)
		done <- err
	}()
	waitForPhase(t, g, PhaseEvaluating)

	_, _, err := g.Navigate(context.Background(), "fortnite tips", models.KindSearch)
	assert.ErrorIs(t, err, ErrBusy)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, em.all())
	assert.Equal(t, PhaseIdle, g.State().Phase)
}

func TestSupersedeModeAbandonsStaleEvaluation(t *testing.T) {
	g, _, em := newTestGate()

	done := make(chan error, 1)
	go func() {
		_, _, err := g.Navigate(context.Background(), "slow", models.KindSearch)
		done <- err
	}()
	waitForPhase(t, g, PhaseEvaluating)

	activity, _, err := g.Navigate(context.Background(), "fortnite tips", models.KindSearch)
	require.NoError(t, err)

	assert.ErrorIs(t, <-done, ErrSuperseded)

	emitted := em.all()
	require.Len(t, emitted, 1, "only the completed navigation is recorded")
	assert.Equal(t, activity.ID, emitted[0].ID)
	assert.Equal(t, "fortnite tips", g.State().Input)
	assert.Equal(t, PhaseAllowed, g.State().Phase)
}

func TestCallerCancelProducesNoActivity(t *testing.T) {
	g, _, em := newTestGate()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, _, err := g.Navigate(ctx, "slow", models.KindSearch)
		done <- err
	}()
	waitForPhase(t, g, PhaseEvaluating)
	cancel()

	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, em.all())
	assert.Equal(t, PhaseIdle, g.State().Phase)
}

func TestTimeoutFailsOpenAndRecordsUnverified(t *testing.T) {
	g, _, em := newTestGate(WithTimeout(20 * time.Millisecond))

	activity, assessment, err := g.Navigate(context.Background(), "slow", models.KindSearch)
	require.NoError(t, err)

	assert.True(t, assessment.Degraded)
	assert.Equal(t, classifier.FallbackNotice, assessment.GuideSummary)
	assert.Equal(t, models.StatusAllowed, activity.Status)
	assert.False(t, activity.Verified)
	assert.Len(t, em.all(), 1)
}

func TestSubscribeSeesLatestState(t *testing.T) {
	g, _, _ := newTestGate()

	ch, unsubscribe := g.Subscribe()
	initial := <-ch
	assert.Equal(t, PhaseIdle, initial.Phase)

	_, _, err := g.Navigate(context.Background(), "casino", models.KindVisit)
	require.NoError(t, err)

	latest := <-ch
	assert.Equal(t, PhaseBlocked, latest.Phase)
	require.NotNil(t, latest.Activity)
	assert.Equal(t, models.StatusBlocked, latest.Activity.Status)
	assert.Empty(t, latest.URL)

	unsubscribe()
	_, ok := <-ch
	assert.False(t, ok)
}

func TestNextNavigationPassesThroughIdle(t *testing.T) {
	g, _, _ := newTestGate()

	_, _, err := g.Navigate(context.Background(), "fortnite tips", models.KindSearch)
	require.NoError(t, err)
	first := g.State().Seq

	_, _, err = g.Navigate(context.Background(), "roblox", models.KindSearch)
	require.NoError(t, err)
	assert.Equal(t, first+1, g.State().Seq)
}

func TestDisplayURL(t *testing.T) {
	assert.Equal(t, "https://bbc.com", DisplayURL("bbc.com"))
	assert.Equal(t, "http://example.com", DisplayURL("http://example.com"))
}
