package course

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

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

func validRequest() models.DummyCourse {
	return models.DummyCourse{
		CourseName:           "Go Fundamentals",
		Description:          "Core language course",
		Price:                1000,
		Discount:             10,
		Duration:             "6 weeks",
		IsAvailableInDesktop: true,
		Notes:                "Recorded sessions included",
	}
}

func TestCreate_ThenGet(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	id, err := service.Create(ctx, validRequest())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	course, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Go Fundamentals", course.CourseName)
	assert.Equal(t, float64(1000), course.Price)
	assert.True(t, course.IsAvailableInDesktop)
	assert.False(t, course.CreatedAt.Time.IsZero())
}

func TestUpdate_OverwritesFields(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	id, err := service.Create(ctx, validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Price = 800
	req.Discount = 0
	require.NoError(t, service.Update(ctx, id, req))

	course, err := service.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, float64(800), course.Price)
	assert.Equal(t, float64(0), course.Discount)
}

func TestUpdate_UnknownCourse(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	err := service.Update(ctx, "no-such-id", validRequest())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestRemove_ThenListEmpty(t *testing.T) {
	ctx := context.Background()
	service, _ := newService(t)

	id, err := service.Create(ctx, validRequest())
	require.NoError(t, err)
	require.NoError(t, service.Remove(ctx, id))

	courses, err := service.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, courses)
}
