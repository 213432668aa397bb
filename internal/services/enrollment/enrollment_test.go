package enrollment

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/institute-app/internal/lib/timestamp"
	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage"
	"github.com/magabrotheeeer/institute-app/internal/storage/inmem"
)

func newService(t *testing.T) (*Service, *inmem.Store) {
	t.Helper()
	store := inmem.New()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(store, log), store
}

func seedUser(t *testing.T, store *inmem.Store, id string, fields map[string]any) {
	t.Helper()
	base := map[string]any{
		"email":    id + "@example.com",
		"name":     "User " + id,
		"role":     models.RoleStudent,
		"password": "irrelevant",
	}
	for k, v := range fields {
		base[k] = v
	}
	store.Put(context.Background(), models.UsersCollection, id, base)
}

func seedBatch(t *testing.T, store *inmem.Store, id, topic string) {
	t.Helper()
	store.Put(context.Background(), models.BatchesCollection, id, map[string]any{
		"topic":         topic,
		"date":          "2025-04-01T00:00:00Z",
		"time":          "2025-04-01T10:00:00Z",
		"duration":      "2h",
		"zoomLink":      "https://zoom.example/" + id,
		"batchSize":     30,
		"fee":           500,
		"meetingStatus": models.MeetingScheduled,
	})
}

func seedCourse(t *testing.T, store *inmem.Store, id, name string) {
	t.Helper()
	store.Put(context.Background(), models.CoursesCollection, id, map[string]any{
		"courseName": name,
		"price":      1000,
		"duration":   "6 weeks",
	})
}

func TestReconcileBatches_MarksSubscribed(t *testing.T) {
	on := time.Date(2025, 3, 14, 10, 30, 0, 0, time.UTC)
	batches := []models.Batch{
		{ID: "batch-a", Topic: "Algebra"},
		{ID: "batch-b", Topic: "Geometry"},
	}
	subscribed := map[string]models.Subscription{
		"batch-b": {SubscribedOn: timestamp.New(on)},
	}

	result := ReconcileBatches(batches, subscribed)

	require.Len(t, result, 2)
	assert.False(t, result[0].IsSubscribed)
	assert.Nil(t, result[0].SubscribedOn)
	assert.True(t, result[1].IsSubscribed)
	require.NotNil(t, result[1].SubscribedOn)
	assert.True(t, result[1].SubscribedOn.Equal(on))
}

func TestReconcileBatches_StaleEntriesExcluded(t *testing.T) {
	// У пользователя записи о потоках A и B, но живым остался только A.
	batches := []models.Batch{{ID: "batch-a", Topic: "Algebra"}}
	subscribed := map[string]models.Subscription{
		"batch-a": {SubscribedOn: timestamp.New(time.Now())},
		"batch-b": {SubscribedOn: timestamp.New(time.Now())},
	}

	result := ReconcileBatches(batches, subscribed)

	require.Len(t, result, 1)
	assert.Equal(t, "batch-a", result[0].Batch.ID)
	assert.True(t, result[0].IsSubscribed)
}

func TestReconcileBatches_NilMap(t *testing.T) {
	batches := []models.Batch{{ID: "batch-a"}}

	result := ReconcileBatches(batches, nil)

	require.Len(t, result, 1)
	assert.False(t, result[0].IsSubscribed)
}

func TestReconcileCourses_MarksPurchased(t *testing.T) {
	on := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	courses := []models.Course{
		{ID: "course-a", CourseName: "Go"},
		{ID: "course-b", CourseName: "SQL"},
	}
	purchased := map[string]models.Purchase{
		"course-a": {PurchasedOn: timestamp.New(on)},
	}

	result := ReconcileCourses(courses, purchased)

	require.Len(t, result, 2)
	assert.True(t, result[0].IsPurchased)
	require.NotNil(t, result[0].PurchasedOn)
	assert.True(t, result[0].PurchasedOn.Equal(on))
	assert.False(t, result[1].IsPurchased)
}

func TestSubscribeBatch_CreatesSingleEntry(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedBatch(t, store, "batch-a", "Algebra")
	seedUser(t, store, "user-1", map[string]any{
		"subscribedBatches": map[string]any{
			"batch-c": map[string]any{"subscribedOn": "2025-01-01T00:00:00Z"},
		},
	})

	require.NoError(t, service.SubscribeBatch(ctx, "user-1", "batch-a"))

	doc, err := store.Get(ctx, models.UsersCollection, "user-1")
	require.NoError(t, err)
	var user models.User
	require.NoError(t, doc.Decode(&user))
	require.Len(t, user.SubscribedBatches, 2)
	assert.Contains(t, user.SubscribedBatches, "batch-a")
	// Соседняя запись карты не тронута.
	assert.Contains(t, user.SubscribedBatches, "batch-c")
	assert.False(t, user.SubscribedBatches["batch-a"].SubscribedOn.Time.IsZero())
}

func TestSubscribeBatch_RepeatIsRejected(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedBatch(t, store, "batch-a", "Algebra")
	seedUser(t, store, "user-1", nil)

	require.NoError(t, service.SubscribeBatch(ctx, "user-1", "batch-a"))

	doc, err := store.Get(ctx, models.UsersCollection, "user-1")
	require.NoError(t, err)
	var before models.User
	require.NoError(t, doc.Decode(&before))
	first := before.SubscribedBatches["batch-a"].SubscribedOn.Time

	err = service.SubscribeBatch(ctx, "user-1", "batch-a")
	require.ErrorIs(t, err, ErrAlreadySubscribed)

	doc, err = store.Get(ctx, models.UsersCollection, "user-1")
	require.NoError(t, err)
	var after models.User
	require.NoError(t, doc.Decode(&after))
	require.Len(t, after.SubscribedBatches, 1)
	// Исходная отметка времени сохранена.
	assert.True(t, after.SubscribedBatches["batch-a"].SubscribedOn.Time.Equal(first))
}

func TestSubscribeBatch_UnknownBatch(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedUser(t, store, "user-1", nil)

	err := service.SubscribeBatch(ctx, "user-1", "no-such-batch")
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPurchaseCourse_RepeatIsRejected(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedCourse(t, store, "course-a", "Go")
	seedUser(t, store, "user-1", nil)

	require.NoError(t, service.PurchaseCourse(ctx, "user-1", "course-a"))
	err := service.PurchaseCourse(ctx, "user-1", "course-a")
	require.ErrorIs(t, err, ErrAlreadyPurchased)

	doc, err := store.Get(ctx, models.UsersCollection, "user-1")
	require.NoError(t, err)
	var user models.User
	require.NoError(t, doc.Decode(&user))
	require.Len(t, user.MyCourses, 1)
}

func TestListBatchesFor_ReconcilesAgainstLiveBatches(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedBatch(t, store, "batch-a", "Algebra")
	seedBatch(t, store, "batch-b", "Geometry")
	seedUser(t, store, "user-1", map[string]any{
		"subscribedBatches": map[string]any{
			"batch-b":    map[string]any{"subscribedOn": "2025-03-14T10:30:00Z"},
			"batch-gone": map[string]any{"subscribedOn": "2025-01-01T00:00:00Z"},
		},
	})

	result, err := service.ListBatchesFor(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, result, 2)
	assert.Equal(t, "batch-a", result[0].Batch.ID)
	assert.False(t, result[0].IsSubscribed)
	assert.Equal(t, "batch-b", result[1].Batch.ID)
	assert.True(t, result[1].IsSubscribed)
}

func TestListCoursesFor_ReconcilesAgainstLiveCourses(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedCourse(t, store, "course-a", "Go")
	seedUser(t, store, "user-1", map[string]any{
		"myCourses": map[string]any{
			"course-a": map[string]any{"purchasedOn": "2025-02-01T09:00:00Z"},
		},
	})

	result, err := service.ListCoursesFor(ctx, "user-1")
	require.NoError(t, err)

	require.Len(t, result, 1)
	assert.True(t, result[0].IsPurchased)
}

func TestSubscribers_FiltersByBatch(t *testing.T) {
	ctx := context.Background()
	service, store := newService(t)
	seedBatch(t, store, "batch-a", "Algebra")
	seedUser(t, store, "user-1", map[string]any{
		"subscribedBatches": map[string]any{
			"batch-a": map[string]any{"subscribedOn": "2025-01-01T00:00:00Z"},
		},
	})
	seedUser(t, store, "user-2", nil)
	seedUser(t, store, "user-3", map[string]any{
		"subscribedBatches": map[string]any{
			"batch-a": map[string]any{"subscribedOn": "2025-01-02T00:00:00Z"},
		},
	})

	subscribers, err := service.Subscribers(ctx, "batch-a")
	require.NoError(t, err)

	require.Len(t, subscribers, 2)
	assert.Equal(t, "user-1", subscribers[0].ID)
	assert.Equal(t, "user-3", subscribers[1].ID)
	for _, u := range subscribers {
		assert.Empty(t, u.PasswordHash)
	}
}
