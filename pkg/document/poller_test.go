package document

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"pdf-chat-client/internal/pkg/logger"
	"pdf-chat-client/pkg/ragclient"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// instantClock fires every timer immediately and records the requested waits.
type instantClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- time.Now()
	return ch
}

// scriptedLister answers status listings per document from a fixed script.
// Once a script runs out its last status repeats.
type scriptedLister struct {
	mu      sync.Mutex
	scripts map[string][]string
	calls   map[string]int
	err     error
}

func newScriptedLister(scripts map[string][]string) *scriptedLister {
	return &scriptedLister{scripts: scripts, calls: make(map[string]int)}
}

func (l *scriptedLister) ListStatus(ctx context.Context) (*ragclient.StatusResponse, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		l.calls["error"]++
		return nil, l.err
	}
	resp := &ragclient.StatusResponse{}
	for id, script := range l.scripts {
		n := l.calls[id]
		l.calls[id] = n + 1
		if n >= len(script) {
			n = len(script) - 1
		}
		resp.Documents = append(resp.Documents, ragclient.DocumentEntry{DocId: id, Filename: id + ".pdf", Status: script[n], Chunks: 4})
	}
	resp.Total = len(resp.Documents)
	return resp, nil
}

func (l *scriptedLister) callCount(id string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.calls[id]
}

type updateRecorder struct {
	mu      sync.Mutex
	updates []StatusUpdate
}

func (r *updateRecorder) sink(u StatusUpdate) {
	r.mu.Lock()
	r.updates = append(r.updates, u)
	r.mu.Unlock()
}

func (r *updateRecorder) all() []StatusUpdate {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]StatusUpdate(nil), r.updates...)
}

func newTestPoller(lister StatusLister, clock Clock, rec *updateRecorder) *Poller {
	return NewPoller(lister, PollerConfig{
		InitialDelay: 5 * time.Second,
		Interval:     10 * time.Second,
		MaxAttempts:  30,
		Clock:        clock,
	}, rec.sink, logger.NewNopLogger())
}

func TestPoller_ReadyOnThirdCheckEmitsOnce(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"processing", "processing", "ready"}})
	clock := &instantClock{}
	rec := &updateRecorder{}
	p := newTestPoller(lister, clock, rec)

	require.True(t, p.Watch(context.Background(), "d1"))
	p.Wait()

	updates := rec.all()
	require.Len(t, updates, 1)
	assert.Equal(t, StatusUpdate{DocID: "d1", Status: StatusReady, Chunks: 4, Filename: "d1.pdf"}, updates[0])
	assert.Equal(t, 3, lister.callCount("d1"), "polling stops after the terminal status")
	assert.Equal(t, []time.Duration{5 * time.Second, 10 * time.Second, 10 * time.Second}, clock.waits)
	assert.Empty(t, p.Active())
}

func TestPoller_FailedIsTerminal(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"processing", "failed"}})
	rec := &updateRecorder{}
	p := newTestPoller(lister, &instantClock{}, rec)

	p.Watch(context.Background(), "d1")
	p.Wait()

	updates := rec.all()
	require.Len(t, updates, 1)
	assert.Equal(t, StatusFailed, updates[0].Status)
}

func TestPoller_BudgetExhaustedSynthesizesNothing(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"processing"}})
	rec := &updateRecorder{}
	p := newTestPoller(lister, &instantClock{}, rec)

	p.Watch(context.Background(), "d1")
	p.Wait()

	assert.Empty(t, rec.all())
	assert.Equal(t, 30, lister.callCount("d1"))
}

func TestPoller_ListingErrorsCountAsAttempts(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"ready"}})
	lister.err = errors.New("connection refused")
	rec := &updateRecorder{}
	p := newTestPoller(lister, &instantClock{}, rec)

	p.Watch(context.Background(), "d1")
	p.Wait()

	assert.Empty(t, rec.all())
	assert.Equal(t, 30, lister.callCount("error"))
}

func TestPoller_MissingEntryKeepsPolling(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"other": {"ready"}})
	rec := &updateRecorder{}
	p := newTestPoller(lister, &instantClock{}, rec)

	p.Watch(context.Background(), "d1")
	p.Wait()

	assert.Empty(t, rec.all())
	assert.Equal(t, 30, lister.callCount("other"))
}

func TestPoller_IndependentWatches(t *testing.T) {
	lister := newScriptedLister(map[string][]string{
		"d1": {"processing", "ready"},
		"d2": {"processing", "processing", "processing", "failed"},
	})
	rec := &updateRecorder{}
	p := newTestPoller(lister, &instantClock{}, rec)

	require.True(t, p.Watch(context.Background(), "d1"))
	require.True(t, p.Watch(context.Background(), "d2"))
	p.Wait()

	byID := map[string]Status{}
	for _, u := range rec.all() {
		_, seen := byID[u.DocID]
		assert.False(t, seen, "one update per document")
		byID[u.DocID] = u.Status
	}
	assert.Equal(t, map[string]Status{"d1": StatusReady, "d2": StatusFailed}, byID)
}

func TestPoller_WatchingSameIDTwiceIsNoop(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"ready"}})
	gate := make(chan time.Time)
	rec := &updateRecorder{}
	p := newTestPoller(lister, gateClock(gate), rec)

	require.True(t, p.Watch(context.Background(), "d1"))
	assert.False(t, p.Watch(context.Background(), "d1"))
	assert.Equal(t, []string{"d1"}, p.Active())

	close(gate)
	p.Wait()
	assert.Len(t, rec.all(), 1)
}

func TestPoller_StopsWhenContextDone(t *testing.T) {
	lister := newScriptedLister(map[string][]string{"d1": {"ready"}})
	rec := &updateRecorder{}
	p := newTestPoller(lister, gateClock(make(chan time.Time)), rec)
	ctx, cancel := context.WithCancel(context.Background())

	p.Watch(ctx, "d1")
	cancel()
	p.Wait()

	assert.Empty(t, rec.all())
	assert.Equal(t, 0, lister.callCount("d1"))
}

// gateClock hands out the same channel for every wait, so timers fire only once it is closed.
type gateClock chan time.Time

func (g gateClock) After(time.Duration) <-chan time.Time { return g }
