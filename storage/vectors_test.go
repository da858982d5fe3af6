package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/poiesic/engram/core"
	"github.com/poiesic/engram/storage"
	"github.com/poiesic/engram/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMemoryStore(t *testing.T, opts ...storage.VectorStoreOption) (*storage.VectorStore, *badger.Backend) {
	t.Helper()
	store, backend, err := badger.NewMemoryStore(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { backend.Close() })
	return store, backend
}

func makeRecord(id, owner string, kind core.Kind, content string, createdMs int64) *core.VectorizedRecord {
	return &core.VectorizedRecord{
		Id:          id,
		Content:     content,
		Kind:        kind,
		Embedding:   []float32{1.0, 0.0, 0.0},
		Metadata:    map[string]string{core.MetaOwnerID: owner},
		CreatedAtMs: createdMs,
	}
}

func TestVectorStore_UpsertAndGet(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	record := makeRecord("task:1", "user-1", core.KindTask, "Finish lab report", 100)
	require.NoError(t, store.Upsert(ctx, record))

	got, err := store.Get(ctx, "user-1", "task:1")
	require.NoError(t, err)
	assert.Equal(t, "Finish lab report", got.Content)
	assert.Equal(t, core.KindTask, got.Kind)
	assert.Equal(t, []float32{1.0, 0.0, 0.0}, got.Embedding)
}

func TestVectorStore_GetScopedToOwner(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("task:1", "user-1", core.KindTask, "private", 100)))

	// Same id requested by a different owner reads as not found.
	_, err := store.Get(ctx, "user-2", "task:1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestVectorStore_UpsertReplacesById(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("task:1", "user-1", core.KindTask, "original", 100)))
	require.NoError(t, store.Upsert(ctx, makeRecord("task:1", "user-1", core.KindTask, "updated", 200)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count, "upsert with existing id must not duplicate")

	got, err := store.Get(ctx, "user-1", "task:1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.Content)
	assert.Equal(t, int64(200), got.CreatedAtMs)
}

func TestVectorStore_CapacityEvictsOldest(t *testing.T) {
	store, _ := newMemoryStore(t, storage.WithCapacity(3))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "oldest", 100)))
	require.NoError(t, store.Upsert(ctx, makeRecord("r2", "user-1", core.KindNote, "second", 200)))
	require.NoError(t, store.Upsert(ctx, makeRecord("r3", "user-1", core.KindNote, "third", 300)))
	require.NoError(t, store.Upsert(ctx, makeRecord("r4", "user-1", core.KindNote, "newest", 400)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)

	_, err = store.Get(ctx, "user-1", "r1")
	assert.True(t, errors.Is(err, storage.ErrNotFound), "oldest record should be evicted")

	got, err := store.Get(ctx, "user-1", "r4")
	require.NoError(t, err)
	assert.Equal(t, "newest", got.Content)
}

func TestVectorStore_UpsertAtCapacityKeepsUpdatedRecord(t *testing.T) {
	store, _ := newMemoryStore(t, storage.WithCapacity(2))
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "one", 100)))
	require.NoError(t, store.Upsert(ctx, makeRecord("r2", "user-1", core.KindNote, "two", 200)))

	// Updating an existing id at capacity must not evict anything.
	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "one updated", 300)))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)

	got, err := store.Get(ctx, "user-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "one updated", got.Content)
}

func TestVectorStore_UpsertBatch(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	batch := []*core.VectorizedRecord{
		makeRecord("r1", "user-1", core.KindTask, "first", 100),
		makeRecord("r2", "user-1", core.KindNote, "second", 200),
		makeRecord("r3", "user-1", core.KindStudySession, "third", 300),
	}
	require.NoError(t, store.UpsertBatch(ctx, batch))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Count)
	assert.Equal(t, 1, stats.ByKind[core.KindTask])
	assert.Equal(t, 1, stats.ByKind[core.KindNote])
	assert.Equal(t, 1, stats.ByKind[core.KindStudySession])
	assert.Equal(t, 0, stats.ByKind[core.KindCourseMaterial])
}

func TestVectorStore_UpsertRejectsInvalid(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	missingOwner := &core.VectorizedRecord{Id: "x", Content: "content", Kind: core.KindNote}
	err := store.Upsert(ctx, missingOwner)
	assert.True(t, errors.Is(err, core.ErrInvalidRecord))
}

func TestVectorStore_ListFiltersByOwner(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("a1", "alice", core.KindNote, "alice note", 100)))
	require.NoError(t, store.Upsert(ctx, makeRecord("b1", "bob", core.KindNote, "bob note", 200)))
	require.NoError(t, store.Upsert(ctx, makeRecord("a2", "alice", core.KindTask, "alice task", 300)))

	records, err := store.List(ctx, "alice", core.ListFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		assert.Equal(t, "alice", record.Owner())
	}
}

func TestVectorStore_ListAppliesFilter(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	todo := makeRecord("t1", "user-1", core.KindTask, "pending task", 100)
	todo.Metadata[core.MetaStatus] = core.StatusTodo
	done := makeRecord("t2", "user-1", core.KindTask, "done task", 200)
	done.Metadata[core.MetaStatus] = core.StatusCompleted
	note := makeRecord("n1", "user-1", core.KindNote, "a note", 300)

	require.NoError(t, store.UpsertBatch(ctx, []*core.VectorizedRecord{todo, done, note}))

	t.Run("by kind", func(t *testing.T) {
		records, err := store.List(ctx, "user-1", core.ListFilter{Kinds: []core.Kind{core.KindTask}})
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("exclude completed", func(t *testing.T) {
		records, err := store.List(ctx, "user-1", core.ListFilter{
			Kinds:            []core.Kind{core.KindTask},
			ExcludeCompleted: true,
		})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "t1", records[0].Id)
	})

	t.Run("by status", func(t *testing.T) {
		records, err := store.List(ctx, "user-1", core.ListFilter{Statuses: []string{core.StatusCompleted}})
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "t2", records[0].Id)
	})
}

func TestVectorStore_ListRequiresOwner(t *testing.T) {
	store, _ := newMemoryStore(t)

	_, err := store.List(context.Background(), "", core.ListFilter{})
	assert.True(t, errors.Is(err, storage.ErrInvalidQuery))
}

func TestVectorStore_Stats(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.LastIndexedAt.IsZero(), "marker should be zero before any indexing")

	before := time.Now().Add(-time.Second)
	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindTask, "content", 100)))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Count)
	assert.True(t, stats.LastIndexedAt.After(before), "marker should advance on upsert")
}

func TestVectorStore_Clear(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindTask, "content", 100)))
	require.NoError(t, store.Clear(ctx))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count)
	assert.True(t, stats.LastIndexedAt.IsZero())

	_, err = store.Get(ctx, "user-1", "r1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))
}

func TestVectorStore_PersistsAcrossInstances(t *testing.T) {
	store, backend := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "durable", 100)))

	// A fresh store over the same backend must see the persisted collection.
	fresh, err := storage.NewVectorStore(backend)
	require.NoError(t, err)

	got, err := fresh.Get(ctx, "user-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "durable", got.Content)

	stats, err := fresh.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, stats.LastIndexedAt.IsZero())
}

func TestVectorStore_ResetsCorruptBlob(t *testing.T) {
	store, backend := newMemoryStore(t)
	ctx := context.Background()

	// Garbage where the collection blob lives.
	require.NoError(t, backend.Set([]byte("engram:records"), []byte{0xDE, 0xAD, 0xBE, 0xEF}))

	records, err := store.List(ctx, "user-1", core.ListFilter{})
	require.NoError(t, err, "corrupt blob should reset, not fail")
	assert.Empty(t, records)

	// The store stays usable afterwards.
	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "fresh start", 100)))
	got, err := store.Get(ctx, "user-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "fresh start", got.Content)
}

func TestVectorStore_ResetsUnknownFormatVersion(t *testing.T) {
	store, backend := newMemoryStore(t)
	ctx := context.Background()

	blob := storage.MarshalCollection([]core.VectorizedRecord{
		*makeRecord("r1", "user-1", core.KindNote, "from the future", 100),
	})
	blob[0] = storage.FormatVersion + 1
	require.NoError(t, backend.Set([]byte("engram:records"), blob))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Count, "unknown format version should read as empty")
}

func TestVectorStore_ReadsReturnCopies(t *testing.T) {
	store, _ := newMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, store.Upsert(ctx, makeRecord("r1", "user-1", core.KindNote, "content", 100)))

	got, err := store.Get(ctx, "user-1", "r1")
	require.NoError(t, err)
	got.Embedding[0] = 42.0
	got.Metadata[core.MetaOwnerID] = "mallory"

	again, err := store.Get(ctx, "user-1", "r1")
	require.NoError(t, err)
	assert.Equal(t, float32(1.0), again.Embedding[0], "mutating a returned record must not affect the store")
	assert.Equal(t, "user-1", again.Owner())
}
