package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vesaki/vesaki-server/models"
	"github.com/vesaki/vesaki-server/swipes"
)

// stubSource returns count cards stamped with the query and call number.
type stubSource struct {
	mu    sync.Mutex
	calls []string
	gate  chan struct{} // when set, the next Search blocks until the gate closes
	empty bool
}

func (s *stubSource) Search(ctx context.Context, query string, count int) ([]models.ProductCard, error) {
	s.mu.Lock()
	call := len(s.calls)
	s.calls = append(s.calls, query)
	gate := s.gate
	s.gate = nil
	s.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if s.empty {
		return nil, nil
	}
	cards := make([]models.ProductCard, count)
	for i := range cards {
		cards[i] = models.ProductCard{
			ID:   fmt.Sprintf("%s-%d-%d", query, call, i),
			Name: "Item",
		}
	}
	return cards, nil
}

func (s *stubSource) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

type stubRecorder struct {
	mu       sync.Mutex
	requests []swipes.Request
	err      error
}

func (r *stubRecorder) Record(ctx context.Context, userID string, req swipes.Request) (*models.Swipe, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.requests = append(r.requests, req)
	return &models.Swipe{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProductID: req.ProductID,
		Direction: req.Direction,
		SessionID: req.SessionID,
		SwipedAt:  time.Now(),
	}, nil
}

type stubGenerator struct {
	mu      sync.Mutex
	calls   int
	started chan struct{} // closed once a generation begins
	gate    chan struct{} // when set, Generate blocks until the gate closes
	err     error
}

func (g *stubGenerator) Generate(ctx context.Context, userID string, card models.ProductCard) (string, error) {
	g.mu.Lock()
	g.calls++
	started := g.started
	g.started = nil
	gate := g.gate
	err := g.err
	g.mu.Unlock()

	if started != nil {
		close(started)
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return "", err
	}
	return "https://cdn.example.com/tryon-" + card.ID + ".jpg", nil
}

func (g *stubGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func newTestController(t *testing.T, src *stubSource, rec *stubRecorder, gen *stubGenerator) *Controller {
	t.Helper()
	if src == nil {
		src = &stubSource{}
	}
	if rec == nil {
		rec = &stubRecorder{}
	}
	if gen == nil {
		gen = &stubGenerator{}
	}
	return NewController("user-1", src, rec, gen)
}

func TestStart_DefaultQuery(t *testing.T) {
	src := &stubSource{}
	c := newTestController(t, src, nil, nil)

	require.NoError(t, c.Start(context.Background(), ""))
	require.Equal(t, 1, src.callCount())
	assert.Equal(t, DefaultQuery, src.calls[0])

	st := c.Snapshot()
	assert.Equal(t, batchSize, st.Remaining)
	assert.Equal(t, 0, st.CurrentIndex)
	require.NotNil(t, st.Current)
}

func TestStart_SessionIDStableAcrossReloads(t *testing.T) {
	c := newTestController(t, nil, nil, nil)
	id := c.ID()

	require.NoError(t, c.Start(context.Background(), "coats"))
	require.NoError(t, c.Start(context.Background(), "boots"))
	assert.Equal(t, id, c.ID())
}

func TestStart_StaleLoadDiscarded(t *testing.T) {
	src := &stubSource{}
	c := newTestController(t, src, nil, nil)

	gate := make(chan struct{})
	src.mu.Lock()
	src.gate = gate
	src.mu.Unlock()

	done := make(chan error, 1)
	go func() { done <- c.Start(context.Background(), "old query") }()

	// Wait for the first load to be in flight, then win the race with a
	// second one.
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)
	require.NoError(t, c.Start(context.Background(), "new query"))

	close(gate)
	require.NoError(t, <-done)

	st := c.Snapshot()
	assert.Equal(t, "new query", st.Query)
	require.NotNil(t, st.Current)
	assert.Contains(t, st.Current.ID, "new query")
}

func TestSwipe_AdvancesAndRecords(t *testing.T) {
	rec := &stubRecorder{}
	c := newTestController(t, nil, rec, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	first, ok := c.Current()
	require.True(t, ok)

	out, err := c.Swipe(context.Background(), models.SwipeRight)
	require.NoError(t, err)
	require.NotNil(t, out.Swipe)
	assert.Equal(t, batchSize-1, out.Remaining)
	require.NotNil(t, out.Next)
	assert.NotEqual(t, first.ID, out.Next.ID)

	require.Len(t, rec.requests, 1)
	req := rec.requests[0]
	assert.Equal(t, first.ID, req.ProductID)
	assert.Equal(t, c.ID(), req.SessionID)
	assert.Equal(t, 0, req.CardPosition)
	require.NotNil(t, req.Product)
}

func TestSwipe_RefinePromptAfterFifteenLefts(t *testing.T) {
	c := newTestController(t, nil, nil, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	for i := 0; i < leftSwipeLimit-1; i++ {
		out, err := c.Swipe(context.Background(), models.SwipeLeft)
		require.NoError(t, err)
		assert.False(t, out.RefinePrompt, "no prompt before the limit (swipe %d)", i+1)
	}

	out, err := c.Swipe(context.Background(), models.SwipeLeft)
	require.NoError(t, err)
	assert.True(t, out.RefinePrompt)
	assert.Equal(t, 0, c.Snapshot().ConsecutiveLeftSwipes)
}

func TestSwipe_RightResetsLeftRun(t *testing.T) {
	c := newTestController(t, nil, nil, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	for i := 0; i < 5; i++ {
		_, err := c.Swipe(context.Background(), models.SwipeLeft)
		require.NoError(t, err)
	}
	_, err := c.Swipe(context.Background(), models.SwipeRight)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Snapshot().ConsecutiveLeftSwipes)
}

func TestSwipe_RefillsWhenRunningLow(t *testing.T) {
	src := &stubSource{}
	c := newTestController(t, src, nil, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))
	require.Equal(t, 1, src.callCount())

	// Swiping down to fewer than five unswiped cards triggers a top-up.
	var out Outcome
	var err error
	for i := 0; i < batchSize-refillThreshold+1; i++ {
		out, err = c.Swipe(context.Background(), models.SwipeLeft)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, src.callCount())
	assert.Equal(t, 2*batchSize-(batchSize-refillThreshold+1), out.Remaining)
}

func TestSwipe_NoActiveCard(t *testing.T) {
	src := &stubSource{empty: true}
	c := newTestController(t, src, nil, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	_, err := c.Swipe(context.Background(), models.SwipeLeft)
	assert.ErrorIs(t, err, ErrNoActiveCard)
}

func TestSwipe_RecorderFailureSurfaces(t *testing.T) {
	rec := &stubRecorder{err: errors.New("db down")}
	c := newTestController(t, nil, rec, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	_, err := c.Swipe(context.Background(), models.SwipeLeft)
	assert.Error(t, err)
}

func TestSwipe_RecorderFailureKeepsCard(t *testing.T) {
	rec := &stubRecorder{err: errors.New("db down")}
	c := newTestController(t, nil, rec, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	first, ok := c.Current()
	require.True(t, ok)

	_, err := c.Swipe(context.Background(), models.SwipeLeft)
	require.Error(t, err)

	// The failed swipe must not consume the card; a retry swipes it again.
	current, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, first.ID, current.ID)
	assert.Equal(t, 0, c.Snapshot().ConsecutiveLeftSwipes)

	rec.err = nil
	out, err := c.Swipe(context.Background(), models.SwipeLeft)
	require.NoError(t, err)
	require.Len(t, rec.requests, 1)
	assert.Equal(t, first.ID, rec.requests[0].ProductID)
	assert.Equal(t, 0, rec.requests[0].CardPosition)
	require.NotNil(t, out.Next)
	assert.NotEqual(t, first.ID, out.Next.ID)
}

func TestGenerateTryOn_CachesPerProduct(t *testing.T) {
	gen := &stubGenerator{}
	c := newTestController(t, nil, nil, gen)
	require.NoError(t, c.Start(context.Background(), "coats"))

	url, err := c.GenerateTryOn(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, url)

	again, err := c.GenerateTryOn(context.Background())
	require.NoError(t, err)
	assert.Equal(t, url, again)
	assert.Equal(t, 1, gen.callCount())
}

func TestGenerateTryOn_SingleInFlight(t *testing.T) {
	gen := &stubGenerator{started: make(chan struct{}), gate: make(chan struct{})}
	started := gen.started
	c := newTestController(t, nil, nil, gen)
	require.NoError(t, c.Start(context.Background(), "coats"))

	done := make(chan string, 1)
	go func() {
		url, _ := c.GenerateTryOn(context.Background())
		done <- url
	}()

	<-started
	_, err := c.GenerateTryOn(context.Background())
	assert.ErrorIs(t, err, ErrGenerationInFlight)

	close(gen.gate)
	url := <-done
	assert.NotEmpty(t, url)
	assert.Equal(t, 1, gen.callCount())
}

func TestGenerateTryOn_FailureNotCached(t *testing.T) {
	gen := &stubGenerator{err: errors.New("quota exceeded")}
	c := newTestController(t, nil, nil, gen)
	require.NoError(t, c.Start(context.Background(), "coats"))

	_, err := c.GenerateTryOn(context.Background())
	require.Error(t, err)

	// The failed attempt leaves no cache entry, so a retry generates again.
	gen.mu.Lock()
	gen.err = nil
	gen.mu.Unlock()
	url, err := c.GenerateTryOn(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, url)
	assert.Equal(t, 2, gen.callCount())
}

func TestSwipe_CarriesTryOnURLToRecorder(t *testing.T) {
	rec := &stubRecorder{}
	c := newTestController(t, nil, rec, nil)
	require.NoError(t, c.Start(context.Background(), "coats"))

	url, err := c.GenerateTryOn(context.Background())
	require.NoError(t, err)

	_, err = c.Swipe(context.Background(), models.SwipeRight)
	require.NoError(t, err)

	require.Len(t, rec.requests, 1)
	assert.Equal(t, url, rec.requests[0].TryOnImageURL)
}

func TestManager_CreateGetRemove(t *testing.T) {
	m := NewManager(&stubSource{}, &stubRecorder{}, &stubGenerator{})

	c := m.Create("user-1")
	got, ok := m.Get(c.ID())
	require.True(t, ok)
	assert.Same(t, c, got)
	assert.Equal(t, "user-1", got.UserID())

	m.Remove(c.ID())
	_, ok = m.Get(c.ID())
	assert.False(t, ok)
}
