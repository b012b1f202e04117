package clipservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/clipman/internal/apperr"
	"github.com/starford/clipman/internal/history"
	"github.com/starford/clipman/internal/monitor"
	"github.com/starford/clipman/internal/search"
	"github.com/starford/clipman/internal/testutil"
)

type fakeClipboard struct {
	written []string
	err     error
}

func (f *fakeClipboard) WriteText(s string) error {
	if f.err != nil {
		return f.err
	}
	f.written = append(f.written, s)
	return nil
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) record(kind string, _ int64) {
	l.mu.Lock()
	l.events = append(l.events, kind)
	l.mu.Unlock()
}

// stepClock returns strictly increasing timestamps one second apart.
func stepClock() func() time.Time {
	t := time.UnixMilli(1_700_000_000_000)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testService(t *testing.T, capacity int, opts ...Option) (*Service, *search.Hybrid) {
	t.Helper()
	st := testutil.TestStore(t)
	hs := search.NewHybrid(st, capacity, testutil.QuietLogger())
	opts = append([]Option{WithLogger(testutil.QuietLogger()), WithClock(stepClock())}, opts...)
	return NewService(st, hs, opts...), hs
}

func TestCapture_PersistsAndIndexes(t *testing.T) {
	svc, hs := testService(t, 10)
	ctx := context.Background()

	e, err := svc.Capture(ctx, "Hello World")
	require.NoError(t, err)
	assert.NotZero(t, e.ID)
	assert.Equal(t, "Hello World", e.Preview)
	assert.Equal(t, 1, hs.Len())

	got, err := svc.Get(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hello World", got.Content)
}

func TestCapture_EmptyRejected(t *testing.T) {
	svc, hs := testService(t, 10)
	_, err := svc.Capture(context.Background(), "")
	assert.ErrorIs(t, err, apperr.ErrEmptyContent)
	assert.Equal(t, 0, hs.Len())
}

func TestCapture_LongContentPreview(t *testing.T) {
	svc, _ := testService(t, 10)
	long := strings.Repeat("x", 250)

	e, err := svc.Capture(context.Background(), long)
	require.NoError(t, err)
	assert.Equal(t, history.Preview(long), e.Preview)
	assert.Equal(t, long, e.Content)
}

func TestGet_NotFound(t *testing.T) {
	svc, _ := testService(t, 10)
	_, err := svc.Get(context.Background(), 12345)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestSearch_FindsEvictedEntriesThroughFullText(t *testing.T) {
	svc, hs := testService(t, 2)
	ctx := context.Background()

	old, err := svc.Capture(ctx, "needle in history")
	require.NoError(t, err)
	_, _ = svc.Capture(ctx, "filler one")
	_, _ = svc.Capture(ctx, "filler two")
	require.Equal(t, 2, hs.Len())

	got, err := svc.Search(ctx, "needle")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, old.ID, got[0].ID)
}

func TestSearch_NewestFirst(t *testing.T) {
	svc, _ := testService(t, 10)
	ctx := context.Background()

	a, _ := svc.Capture(ctx, "report draft")
	b, _ := svc.Capture(ctx, "report final")

	got, err := svc.Search(ctx, "report")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, b.ID, got[0].ID)
	assert.Equal(t, a.ID, got[1].ID)
}

func TestSearch_NoMatchesIsEmptySlice(t *testing.T) {
	svc, _ := testService(t, 10)
	got, err := svc.Search(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDelete_OmittedFromSearch(t *testing.T) {
	svc, hs := testService(t, 10)
	ctx := context.Background()

	e, _ := svc.Capture(ctx, "temporary token")
	require.NoError(t, svc.Delete(ctx, e.ID))
	assert.Equal(t, 1, hs.Len(), "delete leaves the prefix index alone")

	got, err := svc.Search(ctx, "temporary")
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, svc.Delete(ctx, e.ID), apperr.ErrNotFound)
}

func TestPinUnpin_OrderAndListing(t *testing.T) {
	svc, _ := testService(t, 10)
	ctx := context.Background()

	a, _ := svc.Capture(ctx, "a")
	b, _ := svc.Capture(ctx, "b")
	c, _ := svc.Capture(ctx, "c")

	for _, e := range []int64{a.ID, b.ID, c.ID} {
		_, err := svc.Pin(ctx, e)
		require.NoError(t, err)
	}
	unpinned, err := svc.Unpin(ctx, b.ID)
	require.NoError(t, err)
	assert.False(t, unpinned.IsPinned)
	assert.Nil(t, unpinned.PinOrder)

	repinned, err := svc.Pin(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, repinned.PinOrder)
	assert.Equal(t, 4, *repinned.PinOrder)

	d, _ := svc.Capture(ctx, "d")
	recent, err := svc.Recent(ctx, 0)
	require.NoError(t, err)
	var order []int64
	for _, e := range recent {
		order = append(order, e.ID)
	}
	assert.Equal(t, []int64{a.ID, c.ID, b.ID, d.ID}, order)

	pinned, err := svc.Pinned(ctx)
	require.NoError(t, err)
	assert.Len(t, pinned, 3)
}

func TestPin_Missing(t *testing.T) {
	svc, _ := testService(t, 10)
	_, err := svc.Pin(context.Background(), 999)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestClear_EmptiesEverything(t *testing.T) {
	events := &eventLog{}
	svc, hs := testService(t, 10, WithEventCallback(events.record))
	ctx := context.Background()

	_, _ = svc.Capture(ctx, "one")
	_, _ = svc.Capture(ctx, "two")
	require.NoError(t, svc.Clear(ctx))

	assert.Equal(t, 0, hs.Len())
	recent, err := svc.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
	assert.Equal(t, []string{EventCreated, EventCreated, EventCleared}, events.events)
}

func TestCopy_WritesAndSuppressesRecapture(t *testing.T) {
	clip := &fakeClipboard{}
	state := monitor.NewState()
	svc, _ := testService(t, 10, WithClipboard(clip), WithMonitorState(state))
	ctx := context.Background()

	e, _ := svc.Capture(ctx, "paste me")
	_, err := svc.Copy(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"paste me"}, clip.written)
	assert.False(t, state.Observe("paste me"), "copied content must read as unchanged")
}

func TestCopy_Unavailable(t *testing.T) {
	svc, _ := testService(t, 10)
	_, err := svc.Copy(context.Background(), 1)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)

	clip := &fakeClipboard{err: errors.New("no X display")}
	svc, _ = testService(t, 10, WithClipboard(clip))
	e, _ := svc.Capture(context.Background(), "x")
	_, err = svc.Copy(context.Background(), e.ID)
	assert.ErrorIs(t, err, apperr.ErrUnavailable)
}

func TestMonitorFeedsService(t *testing.T) {
	svc, hs := testService(t, 10)
	src := &monitor.FileSource{Path: t.TempDir() + "/clip.txt"}
	require.NoError(t, src.WriteText("captured by poller"))

	m := monitor.New(src, svc, nil, testutil.QuietLogger())
	require.True(t, m.Poll(context.Background()))
	require.False(t, m.Poll(context.Background()))
	assert.Equal(t, 1, hs.Len())

	got, err := svc.Search(context.Background(), "poller")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestCopy_FailedWriteForgetsContent(t *testing.T) {
	clip := &fakeClipboard{err: errors.New("clipboard locked")}
	state := monitor.NewState()
	require.True(t, state.Observe("before"))
	svc, _ := testService(t, 10, WithClipboard(clip), WithMonitorState(state))
	ctx := context.Background()

	e, err := svc.Capture(ctx, "never copied")
	require.NoError(t, err)
	_, err = svc.Copy(ctx, e.ID)
	require.ErrorIs(t, err, apperr.ErrUnavailable)

	assert.False(t, state.Observe("before"), "previous observation must be restored")
	assert.True(t, state.Observe("never copied"), "a real copy of the text must still be captured")
}
