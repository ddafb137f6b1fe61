package mongostore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ms-calendar/internal/models"
)

func TestDocumentRoundTrip(t *testing.T) {
	updated := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	ev := models.Event{
		Title:         "Engagement",
		Date:          "2026-10-15",
		Status:        models.StatusConfirmed,
		CustomerName:  "Kiran",
		CustomerEmail: "kiran@example.com",
		CreatedAt:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
		UpdatedAt:     &updated,
	}
	doc := toDocument(ev)
	doc.ID = primitive.NewObjectID()

	back := doc.toEvent()
	assert.Equal(t, doc.ID.Hex(), back.ID)
	back.ID = ""
	assert.Equal(t, ev, back)
}

func TestUnknownStatusReadsAsPending(t *testing.T) {
	doc := eventDocument{ID: primitive.NewObjectID(), Status: "Tentative"}
	assert.Equal(t, models.StatusPending, doc.toEvent().Status)
}

func TestMalformedObjectID(t *testing.T) {
	_, err := objectID("zzz")
	assert.ErrorIs(t, err, models.ErrInvalidID)
}

func TestMongoStoreIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForListeningPort("27017/tcp"),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("Failed to start MongoDB container: %v", err)
	}
	defer container.Terminate(ctx)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "27017")
	require.NoError(t, err)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI("mongodb://"+host+":"+port.Port()))
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	store := NewStore(client.Database("calendar_test"))
	require.NoError(t, store.EnsureIndexes(ctx))

	for _, date := range []models.Date{"2026-12-01", "2026-10-15", "2026-11-20"} {
		_, err := store.CreateEvent(ctx, &models.Event{
			Title: "shoot", Date: date, Status: models.StatusPending, CustomerName: "Meera",
		})
		require.NoError(t, err)
	}

	events, err := store.ListEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.Date("2026-10-15"), events[0].Date)
	assert.Equal(t, models.Date("2026-12-01"), events[2].Date)

	n, err := store.UpdateEventStatus(ctx, events[0].ID, models.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, err := store.GetEventByID(ctx, events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusConfirmed, got.Status)
	assert.Equal(t, "Meera", got.CustomerName)
	require.NotNil(t, got.UpdatedAt)

	_, err = store.UpdateEventStatus(ctx, primitive.NewObjectID().Hex(), models.StatusConfirmed)
	assert.ErrorIs(t, err, models.ErrNotFound)

	byDate, err := store.ListEventsByDate(ctx, "2026-11-20")
	require.NoError(t, err)
	assert.Len(t, byDate, 1)

	deleted, err := store.DeleteEvent(ctx, events[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	deleted, err = store.DeleteEvent(ctx, events[1].ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}
