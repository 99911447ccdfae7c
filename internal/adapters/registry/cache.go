package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/stitch/internal/core/domain"
	"go.trai.ch/stitch/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Cached decorates a registry with an in-memory memo, per-id request coalescing
// and an optional on-disk cache. Missing records are never cached.
type Cached struct {
	next  ports.RegistryClient
	group singleflight.Group

	mu   sync.RWMutex
	memo map[string]memoEntry

	memoTTL   time.Duration
	dir       string
	namespace string
	ttl       time.Duration
	now       func() time.Time
}

type memoEntry struct {
	rec     *domain.ComponentRecord
	fetched time.Time
}

// CacheOption configures a Cached registry.
type CacheOption func(*Cached)

// WithDiskCache persists fetched records under dir for ttl.
// namespace separates entries of different registries sharing a directory.
func WithDiskCache(dir, namespace string, ttl time.Duration) CacheOption {
	return func(c *Cached) {
		c.dir = filepath.Clean(dir)
		c.namespace = namespace
		c.ttl = ttl
	}
}

// WithMemoTTL bounds how long a record stays in memory before the next Fetch
// consults the disk cache and the backend again. Zero keeps records forever.
func WithMemoTTL(ttl time.Duration) CacheOption {
	return func(c *Cached) {
		c.memoTTL = ttl
	}
}

// WithClock overrides the time source used for cache expiry.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cached) {
		c.now = now
	}
}

// NewCached wraps next.
func NewCached(next ports.RegistryClient, opts ...CacheOption) (*Cached, error) {
	c := &Cached{
		next: next,
		memo: make(map[string]memoEntry),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.dir != "" {
		if err := os.MkdirAll(c.dir, domain.DirPerm); err != nil {
			return nil, zerr.Wrap(err, domain.ErrCacheCreateFailed.Error())
		}
	}

	return c, nil
}

// cacheEntry is the on-disk form of a cached record.
type cacheEntry struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Record    json.RawMessage `json:"record"`
}

// Fetch returns the record for id from the fastest layer that has it.
// Concurrent callers for one id share a single backend call that outlives any
// one caller's cancellation.
func (c *Cached) Fetch(ctx context.Context, id string) (*domain.ComponentRecord, error) {
	if rec, ok := c.recall(id); ok {
		return rec, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		if rec, err := c.load(id); err == nil {
			c.remember(id, rec)
			return rec, nil
		}

		rec, err := c.next.Fetch(detached, id)
		if err != nil {
			return nil, err
		}

		c.remember(id, rec)
		// A failed write only costs a refetch later.
		_ = c.save(id, rec)
		return rec, nil
	})

	select {
	case <-ctx.Done():
		return nil, transportFailure(id, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.ComponentRecord), nil
	}
}

// Forget drops id from the memo and the disk cache.
func (c *Cached) Forget(id string) {
	c.mu.Lock()
	delete(c.memo, id)
	c.mu.Unlock()

	if c.dir != "" {
		_ = os.Remove(c.cachePath(id))
	}
}

func (c *Cached) recall(id string) (*domain.ComponentRecord, bool) {
	c.mu.RLock()
	entry, ok := c.memo[id]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.memoTTL > 0 && c.now().Sub(entry.fetched) > c.memoTTL {
		return nil, false
	}
	return entry.rec, true
}

func (c *Cached) remember(id string, rec *domain.ComponentRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.memo[id] = memoEntry{rec: rec, fetched: c.now()}
}

func (c *Cached) cachePath(id string) string {
	sum := xxhash.Sum64String(c.namespace + "\x00" + id)
	return filepath.Join(c.dir, fmt.Sprintf("%016x.json", sum))
}

func (c *Cached) load(id string) (*domain.ComponentRecord, error) {
	if c.dir == "" {
		return nil, domain.ErrCacheMiss
	}

	//nolint:gosec // Path is constructed from the cache directory and a hashed filename
	data, err := os.ReadFile(c.cachePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrCacheMiss
		}
		return nil, zerr.Wrap(err, domain.ErrCacheMiss.Error())
	}

	var entry cacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, zerr.Wrap(err, domain.ErrCacheMiss.Error())
	}
	if entry.ID != id || (c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl) {
		return nil, domain.ErrCacheMiss
	}

	return DecodeRecord(id, entry.Record)
}

func (c *Cached) save(id string, rec *domain.ComponentRecord) error {
	if c.dir == "" {
		return nil
	}

	raw, err := EncodeRecord(rec)
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	data, err := json.MarshalIndent(cacheEntry{
		ID:        id,
		Timestamp: c.now(),
		Record:    raw,
	}, "", "  ")
	if err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}

	if err := atomicWriteFile(c.cachePath(id), data); err != nil {
		return zerr.Wrap(err, domain.ErrCacheWriteFailed.Error())
	}
	return nil
}

// atomicWriteFile writes data to a file atomically by writing to a temp file and renaming it.
func atomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return err
	}

	tmpFile, err := os.CreateTemp(dir, "registry-cache-*.json")
	if err != nil {
		return err
	}
	tmpName := tmpFile.Name()

	defer func() {
		if _, statErr := os.Stat(tmpName); statErr == nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}

	if err := tmpFile.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, domain.FilePerm); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
