package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Tharoon321/go-events-api/models"
)

// mongoEvent is the stored document: the event plus its position in the sequence.
type mongoEvent struct {
	models.Event `bson:",inline"`
	Position     int `bson:"position"`
}

// MongoStore keeps the sequence in one collection, ordered by position.
type MongoStore struct {
	coll    *mongo.Collection
	timeout time.Duration
}

func NewMongoStore(db *mongo.Database, collection string) *MongoStore {
	return &MongoStore{coll: db.Collection(collection), timeout: 10 * time.Second}
}

func (s *MongoStore) Load(ctx context.Context) ([]models.Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []mongoEvent
	for cursor.Next(ctx) {
		var doc mongoEvent
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: decode event: %v", ErrCorrupt, err)
		}
		docs = append(docs, doc)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	// Positions can tie while a Save is between its upsert and prune steps.
	sort.SliceStable(docs, func(i, j int) bool { return docs[i].Position < docs[j].Position })
	events := make([]models.Event, len(docs))
	for i, d := range docs {
		events[i] = d.Event
	}
	return normalize(events), nil
}

// Save upserts every event keyed on id with its new position, then prunes
// documents whose id is no longer in the sequence. A failed upsert leaves the
// previous documents in place.
func (s *MongoStore) Save(ctx context.Context, events []models.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	events = normalize(events)
	ids := make([]int64, len(events))
	writes := make([]mongo.WriteModel, len(events))
	for i, e := range events {
		ids[i] = e.ID
		writes[i] = mongo.NewReplaceOneModel().
			SetFilter(bson.M{"id": e.ID}).
			SetReplacement(mongoEvent{Event: e, Position: i}).
			SetUpsert(true)
	}

	if len(writes) > 0 {
		if _, err := s.coll.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(true)); err != nil {
			return fmt.Errorf("upsert events: %w", err)
		}
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"id": bson.M{"$nin": ids}}); err != nil {
		return fmt.Errorf("prune events: %w", err)
	}
	return nil
}
