package session

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svlsp/svlsp/layout"
	"github.com/svlsp/svlsp/location"
	"github.com/svlsp/svlsp/overlay"
)

// newTestManager builds a manager over an empty workspace with short
// timings so tests stay fast.
func newTestManager(t *testing.T, tracker *OpenDocumentTracker) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	svc := layout.NewService(location.New(root), nil)
	svc.LoadConfig()

	m := NewManager(svc.GetLayoutSnapshot, tracker, Options{
		DebounceDelay: 30 * time.Millisecond,
		CleanupDelay:  60 * time.Millisecond,
	}, nil)
	t.Cleanup(m.Close)
	return m, root
}

func testURI(root, name string) string {
	return location.New(filepath.Join(root, name)).URI()
}

func waitForSession(t *testing.T, m *Manager, uri string) *overlay.Session {
	t.Helper()
	var got *overlay.Session
	require.Eventually(t, func() bool {
		err := m.WithSession(uri, func(s *overlay.Session) error {
			got = s
			return nil
		})
		return err == nil
	}, 3*time.Second, 5*time.Millisecond)
	return got
}

func TestFirstBuildImmediate(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "a.sv")

	done := make(chan int, 1)
	m.UpdateSession(uri, "module a; endmodule\n", 1, func(_ *overlay.Session, version int) {
		done <- version
	})

	select {
	case v := <-done:
		assert.Equal(t, 1, v)
	case <-time.After(3 * time.Second):
		t.Fatal("first build never completed")
	}
	assert.True(t, m.HasSession(uri))
}

func TestWithSessionAbsent(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	err := m.WithSession(testURI(root, "never.sv"), func(*overlay.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWithSessionWaitsForBuild(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "w.sv")

	m.UpdateSession(uri, "module w; logic x; endmodule\n", 1, nil)
	s := waitForSession(t, m, uri)
	assert.Equal(t, uri, s.URI())
}

func TestRapidUpdatesCoalesce(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "r.sv")

	var mu sync.Mutex
	var versions []int
	hook := func(_ *overlay.Session, version int) {
		mu.Lock()
		versions = append(versions, version)
		mu.Unlock()
	}

	// First build immediate (v1); then a burst of edits.
	m.UpdateSession(uri, "module r; endmodule\n", 1, hook)
	for v := 2; v <= 6; v++ {
		m.UpdateSession(uri, "module r; logic x; endmodule\n", v, hook)
	}

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(versions) >= 2 && versions[len(versions)-1] == 6
	}, 3*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Less(t, len(versions), 6, "burst of 5 edits must coalesce, got %v", versions)
	assert.Equal(t, 1, versions[0])
}

func TestPendingNextReplacesOlder(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "p.sv")

	var mu sync.Mutex
	var versions []int
	hook := func(_ *overlay.Session, version int) {
		mu.Lock()
		versions = append(versions, version)
		mu.Unlock()
	}

	m.UpdateSession(uri, "module p; endmodule\n", 1, hook)
	waitForSession(t, m, uri)

	// Force in-progress parking by issuing updates back to back; the
	// debounce window collapses them, and the parked successor is always
	// the newest.
	m.UpdateSession(uri, "module p; logic a; endmodule\n", 2, hook)
	m.UpdateSession(uri, "module p; logic b; endmodule\n", 3, hook)
	m.UpdateSession(uri, "module p; logic c; endmodule\n", 4, hook)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(versions) >= 2 && versions[len(versions)-1] == 4
	}, 3*time.Second, 10*time.Millisecond)

	// Version 4's content won.
	s := waitForSession(t, m, uri)
	text := s.SourceManager().Text(s.MainBufferID())
	assert.Contains(t, text, "logic c")
}

func TestInvalidateAllSessions(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "i.sv")

	m.UpdateSession(uri, "module i; endmodule\n", 1, nil)
	waitForSession(t, m, uri)
	require.True(t, m.HasSession(uri))

	m.InvalidateAllSessions()
	assert.False(t, m.HasSession(uri))

	err := m.WithSession(uri, func(*overlay.Session) error { return nil })
	assert.ErrorIs(t, err, ErrSessionNotFound, "never a stale session after invalidation")
}

func TestCancelPendingSession(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())
	uri := testURI(root, "c.sv")

	m.UpdateSession(uri, "module c; endmodule\n", 1, nil)
	waitForSession(t, m, uri)

	built := make(chan struct{}, 1)
	m.UpdateSession(uri, "module c2; endmodule\n", 2, func(*overlay.Session, int) {
		built <- struct{}{}
	})
	// The second update is debounced; cancel before it starts.
	m.CancelPendingSession(uri)

	select {
	case <-built:
		t.Fatal("cancelled debounced build still ran")
	case <-time.After(150 * time.Millisecond):
	}

	// The previously built session is still served.
	s := waitForSession(t, m, uri)
	assert.Contains(t, s.SourceManager().Text(s.MainBufferID()), "module c;")
}

func TestScheduleCleanup(t *testing.T) {
	tracker := NewOpenDocumentTracker()
	m, root := newTestManager(t, tracker)
	uri := testURI(root, "cl.sv")

	tracker.Open(uri)
	m.UpdateSession(uri, "module cl; endmodule\n", 1, nil)
	waitForSession(t, m, uri)

	tracker.Close(uri)
	m.ScheduleCleanup(uri)

	require.Eventually(t, func() bool {
		return !m.HasSession(uri)
	}, 2*time.Second, 10*time.Millisecond)
}

func TestCleanupSkippedWhenReopened(t *testing.T) {
	tracker := NewOpenDocumentTracker()
	m, root := newTestManager(t, tracker)
	uri := testURI(root, "ro.sv")

	tracker.Open(uri)
	m.UpdateSession(uri, "module ro; endmodule\n", 1, nil)
	waitForSession(t, m, uri)

	tracker.Close(uri)
	m.ScheduleCleanup(uri)
	tracker.Open(uri) // reopened before the timer fires

	time.Sleep(150 * time.Millisecond)
	assert.True(t, m.HasSession(uri), "reopened document keeps its session")
}

func TestConcurrentURIsIndependent(t *testing.T) {
	m, root := newTestManager(t, NewOpenDocumentTracker())

	var wg sync.WaitGroup
	uris := make([]string, 8)
	for i := range uris {
		uris[i] = testURI(root, filepath.Base(t.Name())+string(rune('a'+i))+".sv")
		wg.Add(1)
		uri := uris[i]
		go func() {
			defer wg.Done()
			m.UpdateSession(uri, "module x; endmodule\n", 1, nil)
		}()
	}
	wg.Wait()

	for _, uri := range uris {
		waitForSession(t, m, uri)
	}
}

func TestBroadcastEvent(t *testing.T) {
	e := NewBroadcastEvent()
	assert.False(t, e.IsSet())

	done := make(chan struct{})
	go func() {
		e.Wait()
		close(done)
	}()

	e.Set()
	e.Set() // idempotent

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter not released")
	}

	// Late waiters complete immediately.
	e.Wait()
	assert.True(t, e.IsSet())
}

func TestTrackerAndDocState(t *testing.T) {
	tr := NewOpenDocumentTracker()
	tr.Open("file:///a.sv")
	assert.True(t, tr.IsOpen("file:///a.sv"))
	assert.Len(t, tr.OpenURIs(), 1)
	tr.Close("file:///a.sv")
	assert.False(t, tr.IsOpen("file:///a.sv"))

	ds := NewDocumentStateManager()
	ds.Set("u", "one", 1)
	ds.Set("u", "two", 2)
	ds.Set("u", "stale", 1) // ignored
	st, ok := ds.Get("u")
	require.True(t, ok)
	assert.Equal(t, "two", st.Content)
	assert.Equal(t, 2, st.Version)
	ds.Remove("u")
	_, ok = ds.Get("u")
	assert.False(t, ok)
}

func TestWorkerPoolBounds(t *testing.T) {
	pool := NewWorkerPool(2)

	var mu sync.Mutex
	active, peak := 0, 0
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			mu.Lock()
			active++
			if active > peak {
				peak = active
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			mu.Lock()
			active--
			mu.Unlock()
		})
	}
	wg.Wait()
	assert.LessOrEqual(t, peak, 2)
}
