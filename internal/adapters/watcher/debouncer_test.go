package watcher_test

import (
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stitch/internal/adapters/watcher"
)

// recorder collects debouncer callbacks.
type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) callback(paths []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, paths)
}

func (r *recorder) snapshot() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}

func TestDebouncer_Add_SinglePath(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.callback)

		d.Add("/project/App.tsx")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		calls := rec.snapshot()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/project/App.tsx"}, calls[0])
	})
}

func TestDebouncer_Add_CoalescesAndDeduplicates(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.callback)

		d.Add("/project/b.tsx")
		d.Add("/project/a.tsx")
		d.Add("/project/b.tsx")

		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		calls := rec.snapshot()
		require.Len(t, calls, 1)
		assert.Equal(t, []string{"/project/a.tsx", "/project/b.tsx"}, calls[0])
	})
}

func TestDebouncer_Add_ResetsWindow(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.callback)

		d.Add("/project/first.tsx")
		time.Sleep(80 * time.Millisecond)
		d.Add("/project/second.tsx")
		time.Sleep(80 * time.Millisecond)
		synctest.Wait()

		assert.Empty(t, rec.snapshot(), "window restarts on every Add")

		time.Sleep(40 * time.Millisecond)
		synctest.Wait()

		calls := rec.snapshot()
		require.Len(t, calls, 1)
		assert.Len(t, calls[0], 2)
	})
}

func TestDebouncer_SeparateWindows(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(100*time.Millisecond, rec.callback)

		d.Add("/project/one.tsx")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		d.Add("/project/two.tsx")
		time.Sleep(150 * time.Millisecond)
		synctest.Wait()

		calls := rec.snapshot()
		require.Len(t, calls, 2)
		assert.Equal(t, []string{"/project/one.tsx"}, calls[0])
		assert.Equal(t, []string{"/project/two.tsx"}, calls[1])
	})
}

func TestDebouncer_Flush(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		rec := &recorder{}
		d := watcher.NewDebouncer(time.Hour, rec.callback)

		d.Add("/project/App.tsx")
		d.Flush()

		calls := rec.snapshot()
		require.Len(t, calls, 1, "Flush runs the callback synchronously")
		assert.Equal(t, []string{"/project/App.tsx"}, calls[0])

		time.Sleep(2 * time.Hour)
		synctest.Wait()
		assert.Len(t, rec.snapshot(), 1, "the stopped timer does not fire again")
	})
}

func TestDebouncer_FlushEmpty(t *testing.T) {
	rec := &recorder{}
	d := watcher.NewDebouncer(time.Millisecond, rec.callback)

	d.Flush()

	assert.Empty(t, rec.snapshot())
}

func TestDebouncer_NilCallback(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		d := watcher.NewDebouncer(10*time.Millisecond, nil)
		d.Add("/project/App.tsx")

		assert.NotPanics(t, func() {
			time.Sleep(20 * time.Millisecond)
			synctest.Wait()
		})
	})
}
