package watcher

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
	"github.com/magabrotheeeer/institute-app/internal/storage/inmem"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func startWatcher(t *testing.T, store storage.Store) *Watcher {
	t.Helper()
	w := New(store, newNoopLogger())
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Close)
	return w
}

func collectSnapshots() (Snapshot, <-chan []storage.Document) {
	ch := make(chan []storage.Document, 16)
	return func(docs []storage.Document) { ch <- docs }, ch
}

func waitSnapshot(t *testing.T, ch <-chan []storage.Document) []storage.Document {
	t.Helper()
	select {
	case docs := <-ch:
		return docs
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
		return nil
	}
}

func TestWatcher_InitialSnapshotIsImmediate(t *testing.T) {
	ctx := context.Background()
	store := inmem.New()
	store.Put(ctx, models.BatchesCollection, "b-1", map[string]any{"topic": "Algebra"})

	w := startWatcher(t, store)

	fn, snapshots := collectSnapshots()
	unsub, err := w.Subscribe(ctx, models.BatchesCollection, fn)
	require.NoError(t, err)
	defer unsub()

	docs := waitSnapshot(t, snapshots)
	require.Len(t, docs, 1)
	assert.Equal(t, "b-1", docs[0].ID)
}

func TestWatcher_DeliversSnapshotAfterChange(t *testing.T) {
	ctx := context.Background()
	store := inmem.New()
	w := startWatcher(t, store)

	fn, snapshots := collectSnapshots()
	unsub, err := w.Subscribe(ctx, models.BatchesCollection, fn)
	require.NoError(t, err)
	defer unsub()

	assert.Empty(t, waitSnapshot(t, snapshots))

	_, err = store.Create(ctx, models.BatchesCollection, map[string]any{"topic": "Geometry"})
	require.NoError(t, err)

	docs := waitSnapshot(t, snapshots)
	require.Len(t, docs, 1)
	assert.Equal(t, "Geometry", docs[0].Fields["topic"])
}

func TestWatcher_MeetingStatusToggleObservedWithoutRefresh(t *testing.T) {
	// Администратор переключает статус занятия, открытая подписка студента
	// видит новое значение без ручного перечитывания.
	ctx := context.Background()
	store := inmem.New()
	store.Put(ctx, models.BatchesCollection, "b-1", map[string]any{
		"topic":         "Algebra",
		"meetingStatus": models.MeetingScheduled,
	})

	w := startWatcher(t, store)

	fn, snapshots := collectSnapshots()
	unsub, err := w.Subscribe(ctx, models.BatchesCollection, fn)
	require.NoError(t, err)
	defer unsub()

	first := waitSnapshot(t, snapshots)
	require.Len(t, first, 1)
	assert.Equal(t, models.MeetingScheduled, first[0].Fields["meetingStatus"])

	require.NoError(t, store.Merge(ctx, models.BatchesCollection, "b-1",
		map[string]any{"meetingStatus": models.MeetingStarted}))

	second := waitSnapshot(t, snapshots)
	require.Len(t, second, 1)
	assert.Equal(t, models.MeetingStarted, second[0].Fields["meetingStatus"])
}

func TestWatcher_IndependentConcurrentSubscriptions(t *testing.T) {
	ctx := context.Background()
	store := inmem.New()
	w := startWatcher(t, store)

	batchesFn, batchSnapshots := collectSnapshots()
	unsubBatches, err := w.Subscribe(ctx, models.BatchesCollection, batchesFn)
	require.NoError(t, err)
	defer unsubBatches()

	coursesFn, courseSnapshots := collectSnapshots()
	unsubCourses, err := w.Subscribe(ctx, models.CoursesCollection, coursesFn)
	require.NoError(t, err)
	defer unsubCourses()

	waitSnapshot(t, batchSnapshots)
	waitSnapshot(t, courseSnapshots)

	_, err = store.Create(ctx, models.CoursesCollection, map[string]any{"courseName": "Go"})
	require.NoError(t, err)

	docs := waitSnapshot(t, courseSnapshots)
	require.Len(t, docs, 1)

	// Подписка на batches изменение courses не видит.
	select {
	case docs := <-batchSnapshots:
		t.Fatalf("unexpected snapshot on batches subscription: %v", docs)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_UnsubscribeStopsDelivery(t *testing.T) {
	ctx := context.Background()
	store := inmem.New()
	w := startWatcher(t, store)

	fn, snapshots := collectSnapshots()
	unsub, err := w.Subscribe(ctx, models.BatchesCollection, fn)
	require.NoError(t, err)

	waitSnapshot(t, snapshots)
	unsub()
	unsub() // повторная отписка безопасна

	_, err = store.Create(ctx, models.BatchesCollection, map[string]any{"topic": "Calculus"})
	require.NoError(t, err)

	select {
	case docs := <-snapshots:
		t.Fatalf("snapshot delivered after unsubscribe: %v", docs)
	case <-time.After(200 * time.Millisecond):
	}
}
