package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"ms-calendar/internal/models"
)

// CollectionName matches the collection the booking site already writes to.
const CollectionName = "calendar-events"

type eventDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Title         string             `bson:"title"`
	Date          string             `bson:"date"`
	Status        string             `bson:"status"`
	CustomerName  string             `bson:"customerName"`
	CustomerPhone string             `bson:"customerPhone"`
	Location      string             `bson:"location"`
	CustomerEmail string             `bson:"customerEmail,omitempty"`
	CreatedAt     time.Time          `bson:"createdAt"`
	UpdatedAt     *time.Time         `bson:"updatedAt,omitempty"`
}

func toDocument(ev models.Event) eventDocument {
	return eventDocument{
		Title:         ev.Title,
		Date:          string(ev.Date),
		Status:        string(ev.Status),
		CustomerName:  ev.CustomerName,
		CustomerPhone: ev.CustomerPhone,
		Location:      ev.Location,
		CustomerEmail: ev.CustomerEmail,
		CreatedAt:     ev.CreatedAt,
		UpdatedAt:     ev.UpdatedAt,
	}
}

func (d eventDocument) toEvent() models.Event {
	status := models.Status(d.Status)
	if !status.Valid() {
		status = models.StatusPending
	}
	return models.Event{
		ID:            d.ID.Hex(),
		Title:         d.Title,
		Date:          models.Date(d.Date),
		Status:        status,
		CustomerName:  d.CustomerName,
		CustomerPhone: d.CustomerPhone,
		Location:      d.Location,
		CustomerEmail: d.CustomerEmail,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// Store keeps events in a MongoDB collection.
type Store struct {
	Collection *mongo.Collection
	Now        func() time.Time
}

func NewStore(db *mongo.Database) *Store {
	return &Store{Collection: db.Collection(CollectionName), Now: time.Now}
}

func (s *Store) now() time.Time {
	if s.Now == nil {
		return time.Now().UTC().Truncate(time.Millisecond)
	}
	// BSON dates carry millisecond precision
	return s.Now().UTC().Truncate(time.Millisecond)
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: %q", models.ErrInvalidID, id)
	}
	return oid, nil
}

// EnsureIndexes creates the ascending date index used by listing and reminders.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.Collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetName("date_1"),
	})
	return err
}

func (s *Store) find(ctx context.Context, filter any, sort bson.D) ([]models.Event, error) {
	cursor, err := s.Collection.Find(ctx, filter, options.Find().SetSort(sort))
	if err != nil {
		return nil, err
	}
	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	events := make([]models.Event, 0, len(docs))
	for _, doc := range docs {
		events = append(events, doc.toEvent())
	}
	return events, nil
}

func (s *Store) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.find(ctx, bson.D{}, bson.D{{Key: "date", Value: 1}, {Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) ListEventsByDate(ctx context.Context, date models.Date) ([]models.Event, error) {
	return s.find(ctx, bson.M{"date": string(date)}, bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
}

func (s *Store) GetEventByID(ctx context.Context, id string) (*models.Event, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc eventDocument
	err = s.Collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	ev := doc.toEvent()
	return &ev, nil
}

func (s *Store) CreateEvent(ctx context.Context, event *models.Event) (string, error) {
	event.CreatedAt = s.now()
	event.UpdatedAt = nil
	doc := toDocument(*event)
	doc.ID = primitive.NewObjectID()
	if _, err := s.Collection.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	event.ID = doc.ID.Hex()
	return event.ID, nil
}

func (s *Store) UpdateEvent(ctx context.Context, event models.Event) (int64, error) {
	oid, err := objectID(event.ID)
	if err != nil {
		return 0, err
	}
	res, err := s.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":         event.Title,
		"date":          string(event.Date),
		"status":        string(event.Status),
		"customerName":  event.CustomerName,
		"customerPhone": event.CustomerPhone,
		"location":      event.Location,
		"customerEmail": event.CustomerEmail,
		"updatedAt":     s.now(),
	}})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, models.ErrNotFound
	}
	return res.MatchedCount, nil
}

func (s *Store) UpdateEventStatus(ctx context.Context, id string, status models.Status) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}
	res, err := s.Collection.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"status":    string(status),
		"updatedAt": s.now(),
	}})
	if err != nil {
		return 0, err
	}
	if res.MatchedCount == 0 {
		return 0, models.ErrNotFound
	}
	return res.MatchedCount, nil
}

func (s *Store) DeleteEvent(ctx context.Context, id string) (int64, error) {
	oid, err := objectID(id)
	if err != nil {
		return 0, err
	}
	res, err := s.Collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
