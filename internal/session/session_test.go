package session

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/tordrt/entitymap/internal/cache"
	"github.com/tordrt/entitymap/internal/identity"
	"github.com/tordrt/entitymap/internal/schema"
)

// memoryLoader stores rows by key and copies them on load, the way a real
// backend hands out a fresh value per read.
type memoryLoader struct {
	rows     map[any]map[string]any
	loads    int
	inserted []any
	loadErr  error
}

func newMemoryLoader() *memoryLoader {
	return &memoryLoader{rows: make(map[any]map[string]any)}
}

func (l *memoryLoader) Load(_ context.Context, _ *schema.Entity, key any) (any, error) {
	l.loads++
	if l.loadErr != nil {
		return nil, l.loadErr
	}
	row, ok := l.rows[key]
	if !ok {
		return nil, nil
	}
	out := make(map[string]any, len(row))
	for k, v := range row {
		out[k] = v
	}
	return out, nil
}

func (l *memoryLoader) Insert(_ context.Context, _ *schema.Entity, instance any) error {
	l.inserted = append(l.inserted, instance)
	return nil
}

type keeper struct {
	ID   any
	Name string
}

func (k *keeper) PrimaryKeyValue() any     { return k.ID }
func (k *keeper) SetPrimaryKeyValue(v any) { k.ID = v }

func keeperEntity(t *testing.T) *schema.Entity {
	t.Helper()
	id, err := schema.NewColumn("id", schema.TypeUUID, true)
	require.NoError(t, err)
	name, err := schema.NewColumn("name", schema.TypeString, false)
	require.NoError(t, err)
	tbl, err := schema.NewTable("keeper", id, name)
	require.NoError(t, err)
	e, err := schema.NewEntity("Keeper", "zoo.Keeper", []*schema.Table{tbl})
	require.NoError(t, err)
	return e
}

func TestFindReturnsOneInstancePerKey(t *testing.T) {
	ctx := context.Background()
	e := keeperEntity(t)
	loader := newMemoryLoader()
	loader.rows[int64(1)] = map[string]any{"id": int64(1), "name": "Ada"}

	s := New(loader, WithLogger(zap.NewNop()))
	defer s.Close()

	first, err := s.Find(ctx, e, int64(1))
	require.NoError(t, err)
	second, err := s.Find(ctx, e, int64(1))
	require.NoError(t, err)

	first.(map[string]any)["name"] = "edited"
	assert.Equal(t, "edited", second.(map[string]any)["name"])
	assert.Equal(t, 1, loader.loads)
}

func TestFindNotFound(t *testing.T) {
	s := New(newMemoryLoader())
	_, err := s.Find(context.Background(), keeperEntity(t), int64(404))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindLoadError(t *testing.T) {
	loader := newMemoryLoader()
	loader.loadErr = errors.New("connection reset")

	s := New(loader)
	_, err := s.Find(context.Background(), keeperEntity(t), int64(1))
	assert.ErrorIs(t, err, loader.loadErr)
}

func TestClearForcesReload(t *testing.T) {
	ctx := context.Background()
	e := keeperEntity(t)
	loader := newMemoryLoader()
	loader.rows["k"] = map[string]any{"id": "k"}

	s := New(loader)
	_, err := s.Find(ctx, e, "k")
	require.NoError(t, err)

	s.Clear()
	_, err = s.Find(ctx, e, "k")
	require.NoError(t, err)
	assert.Equal(t, 2, loader.loads)
}

func TestPersistGeneratesKey(t *testing.T) {
	ctx := context.Background()
	e := keeperEntity(t)
	loader := newMemoryLoader()

	s := New(loader, WithCache(cache.New(cache.Concurrent())))
	k := &keeper{Name: "Grace"}
	require.NoError(t, s.Persist(ctx, e, k))

	id, ok := k.ID.(uuid.UUID)
	require.True(t, ok)
	require.Len(t, loader.inserted, 1)

	got, err := s.Find(ctx, e, id)
	require.NoError(t, err)
	assert.Same(t, k, got)
	assert.Equal(t, 0, loader.loads)
}

func TestPersistKeepsExistingKey(t *testing.T) {
	e := keeperEntity(t)
	s := New(newMemoryLoader(), WithGenerators(identity.NewStrategies(identity.NewSequenceGenerator(100))))

	k := &keeper{ID: int64(5)}
	require.NoError(t, s.Persist(context.Background(), e, k))
	assert.Equal(t, int64(5), k.ID)
}

func TestPersistMapRowWithSequence(t *testing.T) {
	e := keeperEntity(t)
	s := New(newMemoryLoader(), WithGenerators(identity.NewStrategies(identity.NewSequenceGenerator(100))))

	row := map[string]any{"name": "Linus"}
	require.NoError(t, s.Persist(context.Background(), e, row))
	assert.Equal(t, int64(100), row["id"])
}

func TestPersistUnassignable(t *testing.T) {
	s := New(newMemoryLoader())
	err := s.Persist(context.Background(), keeperEntity(t), struct{}{})
	assert.Error(t, err)
}

func TestClosedSession(t *testing.T) {
	s := New(newMemoryLoader())
	s.Close()
	s.Close()

	_, err := s.Find(context.Background(), keeperEntity(t), int64(1))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Persist(context.Background(), keeperEntity(t), &keeper{}), ErrClosed)
}

func animalEntity(t *testing.T) *schema.Entity {
	t.Helper()
	id, err := schema.NewColumn("id", schema.TypeLong, true)
	require.NoError(t, err)
	tbl, err := schema.NewTable("animal", id)
	require.NoError(t, err)
	e, err := schema.NewEntity("Animal", "zoo.Animal", []*schema.Table{tbl})
	require.NoError(t, err)
	return e
}

func TestFindWithDriverTypedKey(t *testing.T) {
	ctx := context.Background()
	e := animalEntity(t)
	loader := newMemoryLoader()
	// the caller asks with an int, the driver hands back an int64 id
	loader.rows[1] = map[string]any{"id": int64(1), "name": "Rex"}

	s := New(loader)
	defer s.Close()

	first, err := s.Find(ctx, e, 1)
	require.NoError(t, err)
	second, err := s.Find(ctx, e, 1)
	require.NoError(t, err)
	third, err := s.Find(ctx, e, int64(1))
	require.NoError(t, err)

	first.(map[string]any)["name"] = "edited"
	assert.Equal(t, "edited", second.(map[string]any)["name"])
	assert.Equal(t, "edited", third.(map[string]any)["name"])
	assert.Equal(t, 1, loader.loads)
}

type plainRow struct {
	ID   int
	Name string
}

func TestPersistUsesCacheKeyFunc(t *testing.T) {
	ctx := context.Background()
	e := animalEntity(t)
	loader := newMemoryLoader()
	keyOf := func(_ *schema.Entity, instance any) (any, bool) {
		row, ok := instance.(*plainRow)
		if !ok || row.ID == 0 {
			return nil, false
		}
		return row.ID, true
	}

	s := New(loader, WithCache(cache.New(cache.WithKeyFunc(keyOf))))
	row := &plainRow{ID: 5, Name: "Rex"}
	require.NoError(t, s.Persist(ctx, e, row))
	require.Len(t, loader.inserted, 1)
	assert.Equal(t, 5, row.ID)

	got, err := s.Find(ctx, e, int64(5))
	require.NoError(t, err)
	assert.Same(t, row, got)
	assert.Equal(t, 0, loader.loads)

	err = s.Persist(ctx, e, &plainRow{Name: "keyless"})
	assert.Error(t, err)
}

func TestPersistTreatsEmptyStringKeyAsMissing(t *testing.T) {
	e := keeperEntity(t)
	s := New(newMemoryLoader())

	k := &keeper{ID: ""}
	require.NoError(t, s.Persist(context.Background(), e, k))
	_, ok := k.ID.(uuid.UUID)
	assert.True(t, ok)
}
