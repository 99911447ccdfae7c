package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"testing/synctest"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/stitch/internal/adapters/fs"
	"go.trai.ch/stitch/internal/adapters/metrics"
	"go.trai.ch/stitch/internal/adapters/registry"
	"go.trai.ch/stitch/internal/adapters/telemetry"
	"go.trai.ch/stitch/internal/app"
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/stitch/internal/core/ports/mocks"
	"go.trai.ch/stitch/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

const appSource = "import { Button } from \"@/components/button\"\n"

// syncBuffer is a bytes.Buffer that is safe to write from the watch loop.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogger records log calls.
type captureLogger struct {
	mu    sync.Mutex
	infos []string
	warns []string
	errs  []error
}

func (l *captureLogger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *captureLogger) Warn(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warns = append(l.warns, msg)
}

func (l *captureLogger) Error(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errs = append(l.errs, err)
}

func (l *captureLogger) snapshot() (infos, warns []string, errs []error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.infos...), append([]string(nil), l.warns...), append([]error(nil), l.errs...)
}

// fakeServer records the address it was asked to listen on.
type fakeServer struct {
	addr string
	err  error
}

func (s *fakeServer) ListenAndServe(_ context.Context, addr string, ready func(net.Addr)) error {
	s.addr = addr
	if s.err != nil {
		return s.err
	}
	ready(&net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 9999})
	return nil
}

func testRegistry() *registry.Memory {
	return registry.NewMemory(
		&domain.ComponentRecord{
			Name:         "button",
			Sources:      []string{"import { Icon } from \"@/registry/new-york/icon\"\n"},
			Dependencies: domain.Manifest{"@radix-ui/react-slot": "^1.0.2"},
		},
		&domain.ComponentRecord{
			Name:    "icon",
			Sources: []string{"export function Icon() {}\n"},
		},
	)
}

func testConfig() *domain.Config {
	cfg := domain.DefaultConfig()
	cfg.Resolver.Concurrency = 2
	cfg.Baseline = domain.Baseline{
		Dependencies:    domain.Manifest{"react": "^18.2.0"},
		DevDependencies: domain.Manifest{"typescript": "^5.4.0"},
	}
	return cfg
}

type fixture struct {
	app    *app.App
	log    *captureLogger
	stdout *syncBuffer
	stderr *syncBuffer
	server *fakeServer
}

func newFixture(t *testing.T, w ports.Watcher) *fixture {
	t.Helper()

	cfg := testConfig()
	log := &captureLogger{}
	client := testRegistry()
	res := resolver.New(client, telemetry.NewNoOpTracer(), metrics.Noop{}, log, cfg)

	f := &fixture{
		log:    log,
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		server: &fakeServer{},
	}
	f.app = app.New(res, client, fs.NewWriter(fs.DefaultPackageName), w, f.server, log, cfg).
		WithOutput(f.stdout, f.stderr)
	return f
}

func writeEntry(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "App.tsx")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func countDocuments(t *testing.T, out string) int {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(out))
	n := 0
	for {
		var set domain.VirtualFileSet
		err := dec.Decode(&set)
		if errors.Is(err, io.EOF) {
			return n
		}
		require.NoError(t, err)
		n++
	}
}

func TestApp_Resolve_JSON(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	f := newFixture(t, nil)
	entry := writeEntry(t, t.TempDir(), appSource)

	err := f.app.Resolve(t.Context(), app.ResolveOptions{EntryFile: entry, Bare: true, Quiet: true})
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "resolve_json", []byte(f.stdout.String()))
	assert.Empty(t, f.stderr.String())
}

func TestApp_Resolve_Summary(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	f := newFixture(t, nil)
	entry := writeEntry(t, t.TempDir(), appSource+"import { Ghost } from \"@/components/ghost\"\n")

	err := f.app.Resolve(t.Context(), app.ResolveOptions{EntryFile: entry})
	require.NoError(t, err)

	summary := f.stderr.String()
	assert.Contains(t, summary, "resolved app")
	assert.Contains(t, summary, "button, icon")
	assert.Contains(t, summary, "ghost (not_found)")
	assert.Contains(t, summary, "rounds")
}

func TestApp_Resolve_EntryID(t *testing.T) {
	f := newFixture(t, nil)
	entry := writeEntry(t, t.TempDir(), appSource)

	err := f.app.Resolve(t.Context(), app.ResolveOptions{EntryFile: entry, EntryID: "button", Quiet: true})
	require.NoError(t, err)

	var set domain.VirtualFileSet
	require.NoError(t, json.Unmarshal([]byte(f.stdout.String()), &set))
	assert.Empty(t, set.Components, "the entry identifier is never fetched")
}

func TestApp_Resolve_Options(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir, "export default function App() {}\n")
	utils := filepath.Join(dir, "utils.ts")
	require.NoError(t, os.WriteFile(utils, []byte("export const cn = () => ''\n"), 0o600))

	f := newFixture(t, nil)
	err := f.app.Resolve(t.Context(), app.ResolveOptions{
		EntryFile:    entry,
		References:   []string{"icon"},
		Dependencies: []string{"zod@^3.22.0", "react@19.0.0"},
		Scaffold:     []string{"lib/utils.ts=" + utils},
		Quiet:        true,
	})
	require.NoError(t, err)

	var set domain.VirtualFileSet
	require.NoError(t, json.Unmarshal([]byte(f.stdout.String()), &set))

	assert.Equal(t, []string{"icon"}, set.Components)
	assert.Equal(t, "export const cn = () => ''\n", set.Files["/lib/utils.ts"])
	assert.Equal(t, "^3.22.0", set.Dependencies["zod"])
	assert.Equal(t, "19.0.0", set.Dependencies["react"])

	_, warns, _ := f.log.snapshot()
	require.Len(t, warns, 1)
	assert.Contains(t, warns[0], "react")
	assert.Contains(t, warns[0], "incompatible")
}

func TestApp_Resolve_OutDir(t *testing.T) {
	f := newFixture(t, nil)
	entry := writeEntry(t, t.TempDir(), appSource)
	out := filepath.Join(t.TempDir(), "sandbox")

	err := f.app.Resolve(t.Context(), app.ResolveOptions{EntryFile: entry, OutDir: out, Quiet: true})
	require.NoError(t, err)

	assert.Empty(t, f.stdout.String())
	for _, rel := range []string{
		"App.tsx",
		"components/button.tsx",
		"components/icon.tsx",
		"lib/utils.ts",
		"package.json",
		"tsconfig.json",
	} {
		assert.FileExists(t, filepath.Join(out, rel))
	}

	infos, _, _ := f.log.snapshot()
	assert.Contains(t, infos, "wrote 6 files to "+out)
}

func TestApp_Resolve_DefaultScaffold(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir, appSource)
	utils := filepath.Join(dir, "utils.ts")
	require.NoError(t, os.WriteFile(utils, []byte("export {}\n"), 0o600))

	decode := func(t *testing.T, opts app.ResolveOptions) domain.VirtualFileSet {
		t.Helper()
		f := newFixture(t, nil)
		opts.EntryFile = entry
		opts.Quiet = true
		require.NoError(t, f.app.Resolve(t.Context(), opts))

		var set domain.VirtualFileSet
		require.NoError(t, json.Unmarshal([]byte(f.stdout.String()), &set))
		return set
	}

	set := decode(t, app.ResolveOptions{})
	assert.Contains(t, set.Files["/lib/utils.ts"], "twMerge")
	assert.Contains(t, set.Files["/tsconfig.json"], `"@/*"`)

	set = decode(t, app.ResolveOptions{Scaffold: []string{"/lib/utils.ts=" + utils}})
	assert.Equal(t, "export {}\n", set.Files["/lib/utils.ts"])
	assert.Contains(t, set.Files, "/tsconfig.json")

	set = decode(t, app.ResolveOptions{Bare: true})
	assert.NotContains(t, set.Files, "/lib/utils.ts")
	assert.NotContains(t, set.Files, "/tsconfig.json")
}

func TestApp_Resolve_OutDirFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	writer := mocks.NewMockOutputWriter(ctrl)
	writer.EXPECT().Write("out", gomock.Any()).Return(nil, domain.ErrOutputWriteFailed)

	cfg := testConfig()
	log := &captureLogger{}
	client := testRegistry()
	res := resolver.New(client, telemetry.NewNoOpTracer(), metrics.Noop{}, log, cfg)
	a := app.New(res, client, writer, nil, &fakeServer{}, log, cfg).WithOutput(io.Discard, io.Discard)

	entry := writeEntry(t, t.TempDir(), appSource)
	err := a.Resolve(t.Context(), app.ResolveOptions{EntryFile: entry, OutDir: "out"})
	require.ErrorIs(t, err, domain.ErrOutputWriteFailed)
}

func TestApp_Resolve_InputErrors(t *testing.T) {
	dir := t.TempDir()
	entry := writeEntry(t, dir, appSource)

	tests := []struct {
		name string
		opts app.ResolveOptions
		want string
	}{
		{
			name: "missing entry",
			opts: app.ResolveOptions{EntryFile: filepath.Join(dir, "Missing.tsx")},
			want: domain.ErrEntryReadFailed.Error(),
		},
		{
			name: "scaffold without file",
			opts: app.ResolveOptions{EntryFile: entry, Scaffold: []string{"lib/utils.ts"}},
			want: domain.ErrInvalidScaffoldSpec.Error(),
		},
		{
			name: "scaffold with empty path",
			opts: app.ResolveOptions{EntryFile: entry, Scaffold: []string{"=" + entry}},
			want: domain.ErrInvalidScaffoldSpec.Error(),
		},
		{
			name: "missing scaffold file",
			opts: app.ResolveOptions{EntryFile: entry, Scaffold: []string{"lib/utils.ts=" + filepath.Join(dir, "nope.ts")}},
			want: domain.ErrScaffoldReadFailed.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)
			err := f.app.Resolve(t.Context(), tt.opts)
			require.ErrorContains(t, err, tt.want)
			assert.Empty(t, f.stdout.String())
		})
	}
}

func TestApp_Show(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.app.Show(t.Context(), "button"))

	rec, err := registry.DecodeRecord("button", []byte(f.stdout.String()))
	require.NoError(t, err)
	assert.Equal(t, domain.Manifest{"@radix-ui/react-slot": "^1.0.2"}, rec.Dependencies)

	err = f.app.Show(t.Context(), "ghost")
	require.ErrorIs(t, err, domain.ErrComponentNotFound)
}

func TestApp_Serve(t *testing.T) {
	f := newFixture(t, nil)

	require.NoError(t, f.app.Serve(t.Context(), ""))
	assert.Equal(t, domain.DefaultServerAddr, f.server.addr)

	infos, _, _ := f.log.snapshot()
	assert.Equal(t, []string{"listening on http://127.0.0.1:9999"}, infos)

	require.NoError(t, f.app.Serve(t.Context(), "127.0.0.1:0"))
	assert.Equal(t, "127.0.0.1:0", f.server.addr)

	f.server.err = domain.ErrServerFailed
	require.ErrorIs(t, f.app.Serve(t.Context(), ""), domain.ErrServerFailed)
}

func eventsFrom(ch <-chan ports.WatchEvent) iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for ev := range ch {
			if !yield(ev) {
				return
			}
		}
	}
}

func TestApp_Watch(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		entry := writeEntry(t, t.TempDir(), appSource)
		events := make(chan ports.WatchEvent)

		ctrl := gomock.NewController(t)
		w := mocks.NewMockWatcher(ctrl)
		w.EXPECT().Start(gomock.Any(), []string{entry}).Return(nil)
		w.EXPECT().Events().Return(eventsFrom(events))
		w.EXPECT().Stop().Return(nil)

		f := newFixture(t, w)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- f.app.Watch(ctx, app.ResolveOptions{EntryFile: entry, Quiet: true})
		}()

		synctest.Wait()
		assert.Equal(t, 1, countDocuments(t, f.stdout.String()))

		// A real change re-emits the result.
		require.NoError(t, os.WriteFile(entry, []byte(appSource+"// edited\n"), 0o600))
		events <- ports.WatchEvent{Path: entry, Operation: ports.OpWrite}
		events <- ports.WatchEvent{Path: entry, Operation: ports.OpWrite}
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, 2, countDocuments(t, f.stdout.String()))

		// A touch without a content change does not.
		events <- ports.WatchEvent{Path: entry, Operation: ports.OpWrite}
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, 2, countDocuments(t, f.stdout.String()))

		infos, _, errs := f.log.snapshot()
		assert.Contains(t, infos, "output unchanged")
		assert.Empty(t, errs)

		cancel()
		require.NoError(t, <-done)
		close(events)
	})
}

func TestApp_Watch_KeepsWatchingAfterFailure(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		dir := t.TempDir()
		entry := filepath.Join(dir, "App.tsx")
		events := make(chan ports.WatchEvent)

		ctrl := gomock.NewController(t)
		w := mocks.NewMockWatcher(ctrl)
		w.EXPECT().Start(gomock.Any(), []string{entry}).Return(nil)
		w.EXPECT().Events().Return(eventsFrom(events))
		w.EXPECT().Stop().Return(nil)

		f := newFixture(t, w)

		ctx, cancel := context.WithCancel(t.Context())
		done := make(chan error, 1)
		go func() {
			done <- f.app.Watch(ctx, app.ResolveOptions{EntryFile: entry, Quiet: true})
		}()

		synctest.Wait()
		_, _, errs := f.log.snapshot()
		require.Len(t, errs, 1)
		assert.ErrorContains(t, errs[0], domain.ErrEntryReadFailed.Error())
		assert.Empty(t, f.stdout.String())

		writeEntry(t, dir, appSource)
		events <- ports.WatchEvent{Path: entry, Operation: ports.OpCreate}
		time.Sleep(time.Second)
		synctest.Wait()
		assert.Equal(t, 1, countDocuments(t, f.stdout.String()))

		cancel()
		require.NoError(t, <-done)
		close(events)
	})
}

func TestApp_Watch_StartFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	w := mocks.NewMockWatcher(ctrl)
	w.EXPECT().Start(gomock.Any(), gomock.Any()).Return(domain.ErrWatcherStartFailed)

	f := newFixture(t, w)
	entry := writeEntry(t, t.TempDir(), appSource)

	err := f.app.Watch(t.Context(), app.ResolveOptions{EntryFile: entry, Quiet: true})
	require.ErrorIs(t, err, domain.ErrWatcherStartFailed)
	assert.Equal(t, 1, countDocuments(t, f.stdout.String()))
}
