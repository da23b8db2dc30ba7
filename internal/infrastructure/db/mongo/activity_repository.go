package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/docvault/document-service/internal/core/domain"
	"github.com/docvault/document-service/internal/core/ports"
)

const collectionEvents = "document_events"

// activityDoc is the stored shape of a document event.
type activityDoc struct {
	DocumentID  int64     `bson:"document_id"`
	Action      string    `bson:"action"`
	ActorID     int64     `bson:"actor_id"`
	ActorName   string    `bson:"actor"`
	Timestamp   time.Time `bson:"timestamp"`
	Details     string    `bson:"details,omitempty"`
	ProcessedAt time.Time `bson:"processed_at"`
}

// ActivityRepository implements ports.ActivityRepository using MongoDB.
type ActivityRepository struct {
	col *mongo.Collection
	now func() time.Time
}

var _ ports.ActivityRepository = (*ActivityRepository)(nil)

func NewActivityRepository(db *mongo.Database) *ActivityRepository {
	return &ActivityRepository{col: db.Collection(collectionEvents), now: time.Now}
}

// InsertEvent appends an event to the document_events collection.
func (r *ActivityRepository) InsertEvent(ctx context.Context, event *domain.DocumentEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toActivityDoc(event, r.now())); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// ListByDocument returns the newest events of a document first.
func (r *ActivityRepository) ListByDocument(ctx context.Context, documentID int64, limit int) ([]*domain.DocumentEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.col.Find(ctx, bson.M{"document_id": documentID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []activityDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	out := make([]*domain.DocumentEvent, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

// EnsureIndexes creates the index backing ListByDocument.
func (r *ActivityRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "document_id", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	return err
}

func toActivityDoc(e *domain.DocumentEvent, now time.Time) activityDoc {
	return activityDoc{
		DocumentID:  e.DocumentID,
		Action:      string(e.Action),
		ActorID:     e.ActorID,
		ActorName:   e.ActorName,
		Timestamp:   e.Timestamp.UTC(),
		Details:     e.Details,
		ProcessedAt: now.UTC(),
	}
}

func (d activityDoc) toDomain() *domain.DocumentEvent {
	return &domain.DocumentEvent{
		DocumentID: d.DocumentID,
		Action:     domain.DocumentAction(d.Action),
		ActorID:    d.ActorID,
		ActorName:  d.ActorName,
		Timestamp:  d.Timestamp,
		Details:    d.Details,
	}
}
