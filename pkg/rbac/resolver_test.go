package rbac

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plexica/authz/pkg/cache"
)

type stubSource struct {
	calls   int64
	result  *UserPermissions
	err     error
	release chan struct{}
}

func (s *stubSource) GetUserPermissions(_ context.Context, _, _, _ string) (*UserPermissions, error) {
	atomic.AddInt64(&s.calls, 1)
	if s.release != nil {
		<-s.release
	}
	return s.result, s.err
}

type failingCache struct{}

func (failingCache) Get(context.Context, string, string) ([]string, bool, error) {
	return nil, false, assert.AnError
}

func (failingCache) Put(context.Context, string, string, []string, []string) error {
	return assert.AnError
}

func TestResolverFillsAndHitsCache(t *testing.T) {
	source := &stubSource{result: &UserPermissions{
		PermissionKeys: []string{"workspace.read", "workspace.write"},
		RoleIDs:        []string{"r1"},
	}}
	mem := cache.NewMemoryCache(16, cache.Options{TTL: time.Minute})
	defer mem.Close()
	resolver := NewResolver(source, mem, nil, nil)

	keys, err := resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"workspace.read", "workspace.write"}, keys)
	assert.EqualValues(t, 1, atomic.LoadInt64(&source.calls))

	keys, err = resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"workspace.read", "workspace.write"}, keys)
	assert.EqualValues(t, 1, atomic.LoadInt64(&source.calls), "second lookup should be served from cache")
}

func TestResolverNilCache(t *testing.T) {
	source := &stubSource{result: &UserPermissions{PermissionKeys: []string{"role.read"}}}
	resolver := NewResolver(source, nil, nil, nil)

	keys, err := resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"role.read"}, keys)
}

func TestResolverCacheFailureFallsThrough(t *testing.T) {
	source := &stubSource{result: &UserPermissions{PermissionKeys: []string{"member.read"}}}
	resolver := NewResolver(source, failingCache{}, nil, nil)

	keys, err := resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"member.read"}, keys)
}

func TestResolverSourceError(t *testing.T) {
	source := &stubSource{err: assert.AnError}
	resolver := NewResolver(source, nil, nil, nil)

	_, err := resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
	assert.Error(t, err)
}

func TestResolverCoalescesConcurrentMisses(t *testing.T) {
	source := &stubSource{
		result:  &UserPermissions{PermissionKeys: []string{"workspace.read"}},
		release: make(chan struct{}),
	}
	resolver := NewResolver(source, nil, nil, nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys, err := resolver.EffectivePermissions(context.Background(), testTenant, testSchema, "u1")
			assert.NoError(t, err)
			assert.Equal(t, []string{"workspace.read"}, keys)
		}()
	}

	// Let the goroutines pile up behind the in-flight store query.
	time.Sleep(50 * time.Millisecond)
	close(source.release)
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&source.calls), "concurrent misses should share one store query")
}
