package settings

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/shakilemon73/Tni-news-sub001/internal/article"
	"github.com/shakilemon73/Tni-news-sub001/internal/clock"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeSource struct {
	calls   atomic.Int32
	mu      sync.Mutex
	value   article.SiteSettings
	err     error
	release chan struct{}
}

func (f *fakeSource) SiteSettings(context.Context) (article.SiteSettings, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

func (f *fakeSource) set(v article.SiteSettings, err error) {
	f.mu.Lock()
	f.value, f.err = v, err
	f.mu.Unlock()
}

func start() *clock.Manual {
	return clock.NewManual(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestGetCachesWithinTTL(t *testing.T) {
	t.Parallel()

	src := &fakeSource{value: article.SiteSettings{SiteName: "সাইট"}}
	clk := start()
	c := New(src, WithTTL(time.Minute), WithClock(clk))

	for range 3 {
		got, err := c.Get(context.Background())
		require.NoError(t, err)
		require.Equal(t, "সাইট", got.SiteName)
	}
	require.EqualValues(t, 1, src.calls.Load())

	src.set(article.SiteSettings{SiteName: "নতুন"}, nil)
	clk.Advance(time.Minute)
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "নতুন", got.SiteName)
	require.EqualValues(t, 2, src.calls.Load())
}

func TestGetMissingRowYieldsDefaults(t *testing.T) {
	t.Parallel()

	src := &fakeSource{err: article.ErrNotFound}
	c := New(src, WithClock(start()))

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, article.SiteSettings{}, got)

	_, err = c.Get(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, src.calls.Load())
}

func TestGetServesStaleOnRefreshError(t *testing.T) {
	t.Parallel()

	src := &fakeSource{value: article.SiteSettings{SiteName: "old"}}
	clk := start()
	c := New(src, WithTTL(time.Second), WithClock(clk))

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	src.set(article.SiteSettings{}, errors.New("store down"))
	clk.Advance(2 * time.Second)
	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "old", got.SiteName)
}

func TestGetErrorWithoutPriorValue(t *testing.T) {
	t.Parallel()

	boom := errors.New("store down")
	c := New(&fakeSource{err: boom}, WithClock(start()))

	_, err := c.Get(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestInvalidateForcesReload(t *testing.T) {
	t.Parallel()

	src := &fakeSource{value: article.SiteSettings{SiteName: "a"}}
	c := New(src, WithClock(start()))

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	src.set(article.SiteSettings{SiteName: "b"}, nil)
	c.Invalidate()

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.Equal(t, "b", got.SiteName)
	require.EqualValues(t, 2, src.calls.Load())
}

func TestConcurrentGetsShareOneLoad(t *testing.T) {
	t.Parallel()

	src := &fakeSource{value: article.SiteSettings{SiteName: "x"}, release: make(chan struct{})}
	c := New(src, WithClock(start()))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := c.Get(context.Background())
			require.NoError(t, err)
			require.Equal(t, "x", got.SiteName)
		}()
	}
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	require.EqualValues(t, 1, src.calls.Load())
}

func TestGetHonorsCallerCancellation(t *testing.T) {
	t.Parallel()

	src := &fakeSource{value: article.SiteSettings{SiteName: "late"}, release: make(chan struct{})}
	c := New(src, WithClock(start()))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx)
		errCh <- err
	}()
	require.Eventually(t, func() bool { return src.calls.Load() == 1 }, time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)

	// The shared load still completes and populates the cache.
	close(src.release)
	require.Eventually(t, func() bool {
		v, ok := c.fresh()
		return ok && v.SiteName == "late"
	}, time.Second, time.Millisecond)
}
