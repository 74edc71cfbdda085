package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tordrt/entitymap/internal/schema"
)

type pet struct {
	id   any
	name string
}

func (p *pet) PrimaryKeyValue() any { return p.id }

// compositeKey is comparable by type, but not when Parts holds a slice.
type compositeKey struct {
	Parts any
}

func entityWithKey(t *testing.T, name string, withPK bool) *schema.Entity {
	t.Helper()
	id, err := schema.NewColumn("id", schema.TypeLong, withPK)
	require.NoError(t, err)
	tbl, err := schema.NewTable(name, id)
	require.NoError(t, err)
	e, err := schema.NewEntity(name, "test."+name, []*schema.Table{tbl})
	require.NoError(t, err)
	return e
}

func modes() map[string]func() *Cache {
	return map[string]func() *Cache{
		"confined":   func() *Cache { return New() },
		"concurrent": func() *Cache { return New(Concurrent()) },
	}
}

func TestRoundTrip(t *testing.T) {
	for mode, newCache := range modes() {
		t.Run(mode, func(t *testing.T) {
			c := newCache()
			e := entityWithKey(t, "Pet", true)
			p := &pet{id: int64(7), name: "Rex"}

			require.True(t, c.CacheEntity(e, p))

			got, ok := c.FindCached(e, int64(7))
			require.True(t, ok)
			assert.Same(t, p, got)
		})
	}
}

func TestLastWriteWins(t *testing.T) {
	for mode, newCache := range modes() {
		t.Run(mode, func(t *testing.T) {
			c := newCache()
			e := entityWithKey(t, "Pet", true)
			e1 := &pet{id: int64(1), name: "first"}
			e2 := &pet{id: int64(1), name: "second"}

			require.True(t, c.CacheEntity(e, e1))
			require.True(t, c.CacheEntity(e, e2))

			got, ok := c.FindCached(e, int64(1))
			require.True(t, ok)
			assert.Same(t, e2, got)
			assert.Equal(t, 1, c.Len())
		})
	}
}

func TestEntitiesDoNotShareKeys(t *testing.T) {
	c := New()
	cats := entityWithKey(t, "Cat", true)
	dogs := entityWithKey(t, "Dog", true)

	require.True(t, c.CacheEntity(cats, &pet{id: int64(1), name: "Tom"}))

	_, ok := c.FindCached(dogs, int64(1))
	assert.False(t, ok)
}

func TestCacheEntityRejects(t *testing.T) {
	withPK := entityWithKey(t, "Pet", true)
	withoutPK := entityWithKey(t, "Log", false)

	tests := []struct {
		name     string
		entity   *schema.Entity
		instance any
	}{
		{"nil entity", nil, &pet{id: int64(1)}},
		{"nil instance", withPK, nil},
		{"entity without primary key", withoutPK, &pet{id: int64(1)}},
		{"instance without key", withPK, &pet{}},
		{"empty string key", withPK, &pet{id: ""}},
		{"unreadable instance", withPK, struct{ ID int }{ID: 1}},
		{"non-comparable key", withPK, &pet{id: []byte("k")}},
		{"slice inside comparable key type", withPK, &pet{id: compositeKey{Parts: []int{1, 2}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			assert.False(t, c.CacheEntity(tt.entity, tt.instance))
			assert.Equal(t, 0, c.Len())
		})
	}
}

func TestFindCachedMisses(t *testing.T) {
	c := New()
	e := entityWithKey(t, "Pet", true)
	require.True(t, c.CacheEntity(e, &pet{id: "a"}))

	tests := []struct {
		name   string
		entity *schema.Entity
		key    any
	}{
		{"nil entity", nil, "a"},
		{"nil key", e, nil},
		{"empty key", e, ""},
		{"unknown key", e, "b"},
		{"entity without primary key", entityWithKey(t, "Log", false), "a"},
		{"slice inside comparable key type", e, compositeKey{Parts: []int{1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.FindCached(tt.entity, tt.key)
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestMapRowsUsePrimaryKeyColumn(t *testing.T) {
	c := New()
	e := entityWithKey(t, "Pet", true)
	row := map[string]any{"id": int64(3), "name": "Felix"}

	require.True(t, c.CacheEntity(e, row))
	got, ok := c.FindCached(e, int64(3))
	require.True(t, ok)
	assert.Equal(t, row, got)

	assert.False(t, c.CacheEntity(e, map[string]any{"name": "nameless"}))
}

func TestCustomKeyFunc(t *testing.T) {
	type plain struct{ Code string }
	c := New(WithKeyFunc(func(_ *schema.Entity, instance any) (any, bool) {
		p, ok := instance.(*plain)
		if !ok {
			return nil, false
		}
		return p.Code, true
	}))
	e := entityWithKey(t, "Plain", true)
	p := &plain{Code: "x1"}

	require.True(t, c.CacheEntity(e, p))
	got, ok := c.FindCached(e, "x1")
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestCompositeKeys(t *testing.T) {
	c := New()
	e := entityWithKey(t, "Pet", true)
	p := &pet{id: compositeKey{Parts: "zoo-1"}}

	require.True(t, c.CacheEntity(e, p))
	got, ok := c.FindCached(e, compositeKey{Parts: "zoo-1"})
	require.True(t, ok)
	assert.Same(t, p, got)
}

func TestWholeNumberKeysAreNormalized(t *testing.T) {
	tests := []struct {
		name   string
		stored any
		lookup any
	}{
		{"int lookup of int64 key", int64(1), 1},
		{"int64 lookup of int key", 1, int64(1)},
		{"int32 lookup of uint8 key", uint8(9), int32(9)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			e := entityWithKey(t, "Pet", true)
			p := &pet{id: tt.stored}

			require.True(t, c.CacheEntity(e, p))
			got, ok := c.FindCached(e, tt.lookup)
			require.True(t, ok)
			assert.Same(t, p, got)
		})
	}
}

func TestStringKeysAreNotNormalized(t *testing.T) {
	c := New()
	id, err := schema.NewColumn("code", schema.TypeString, true)
	require.NoError(t, err)
	tbl, err := schema.NewTable("tag", id)
	require.NoError(t, err)
	e, err := schema.NewEntity("Tag", "test.Tag", []*schema.Table{tbl})
	require.NoError(t, err)

	require.True(t, c.CacheEntity(e, &pet{id: 1}))
	_, ok := c.FindCached(e, int64(1))
	assert.False(t, ok)
}

func TestKeyOf(t *testing.T) {
	type plain struct{ Code string }
	c := New(WithKeyFunc(func(_ *schema.Entity, instance any) (any, bool) {
		p, ok := instance.(*plain)
		if !ok {
			return nil, false
		}
		return p.Code, true
	}))
	e := entityWithKey(t, "Plain", true)

	key, ok := c.KeyOf(e, &plain{Code: "x1"})
	require.True(t, ok)
	assert.Equal(t, "x1", key)

	_, ok = c.KeyOf(e, &plain{})
	assert.False(t, ok)
	_, ok = c.KeyOf(e, &pet{id: int64(1)})
	assert.False(t, ok)
	_, ok = c.KeyOf(nil, &plain{Code: "x1"})
	assert.False(t, ok)
}

func TestClearIsIdempotent(t *testing.T) {
	c := New()
	e := entityWithKey(t, "Pet", true)
	for i := range 5 {
		require.True(t, c.CacheEntity(e, &pet{id: i}))
	}

	c.Clear()
	c.Clear()

	assert.Equal(t, 0, c.Len())
	for i := range 5 {
		_, ok := c.FindCached(e, i)
		assert.False(t, ok)
	}

	assert.False(t, c.Closed())
	assert.True(t, c.CacheEntity(e, &pet{id: 1}))
}

func TestClose(t *testing.T) {
	c := New()
	e := entityWithKey(t, "Pet", true)
	require.True(t, c.CacheEntity(e, &pet{id: 1}))

	c.Close()
	c.Close()

	assert.True(t, c.Closed())
	assert.Equal(t, 0, c.Len())

	_, ok := c.FindCached(e, 1)
	assert.False(t, ok)
	assert.False(t, c.CacheEntity(e, &pet{id: 2}))
	c.Clear()
}

func TestConcurrentAccess(t *testing.T) {
	c := New(Concurrent())
	e := entityWithKey(t, "Pet", true)

	const workers, perWorker = 8, 100
	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range perWorker {
				key := fmt.Sprintf("%d-%d", w, i)
				p := &pet{id: key}
				if !c.CacheEntity(e, p) {
					t.Errorf("CacheEntity(%s) = false, want true", key)
					return
				}
				got, ok := c.FindCached(e, key)
				if !ok || got != p {
					t.Errorf("FindCached(%s) did not return the cached instance", key)
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, c.Len())
}
