package settings

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/institute-app/internal/models"
	"github.com/magabrotheeeer/institute-app/internal/storage/inmem"
)

func newService(t *testing.T) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(inmem.New(), log)
}

func TestAnnouncement_EmptyBeforeFirstWrite(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	got, err := service.Announcement(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Announcement{}, got)
}

func TestUpdateAnnouncement_CreatesAndOverwrites(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	require.NoError(t, service.UpdateAnnouncement(ctx, models.DummyAnnouncement{
		Title:   "Holiday notice",
		Message: "Closed on Friday",
	}))

	got, err := service.Announcement(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Holiday notice", got.Title)

	require.NoError(t, service.UpdateAnnouncement(ctx, models.DummyAnnouncement{
		Title:   "Reopening",
		Message: "Back on Monday",
	}))

	got, err = service.Announcement(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reopening", got.Title)
	assert.Equal(t, "Back on Monday", got.Message)
}

func TestUpdateContact_RoundTrip(t *testing.T) {
	ctx := context.Background()
	service := newService(t)

	got, err := service.Contact(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.Contact{}, got)

	require.NoError(t, service.UpdateContact(ctx, models.DummyContact{
		Name:      "Institute of Applied Math",
		Line1:     "12 Main Street",
		CityState: "Springfield",
		Pincode:   "123456",
		Phone:     "9000000001",
		Email:     "office@example.com",
	}))

	got, err = service.Contact(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Institute of Applied Math", got.Name)
	assert.Equal(t, "9000000001", got.Phone)
	assert.Equal(t, "office@example.com", got.Email)
}
