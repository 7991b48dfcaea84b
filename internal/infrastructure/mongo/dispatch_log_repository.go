package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mamahr/waitlist/internal/waitlist/domain"
)

// DefaultRecentLimit caps Recent when the caller passes no limit.
const DefaultRecentLimit = 50

// DispatchLogRepository implements application.DispatchLogRepository using MongoDB.
type DispatchLogRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	ttl        time.Duration
}

// NewDispatchLogRepository は送信ログ用コレクションを束縛したリポジトリを構築する。
// ttl が正の場合、ドキュメントは createdAt から ttl 経過後に MongoDB が削除する。
func NewDispatchLogRepository(client *mongo.Client, database, collectionName string, ttl time.Duration) *DispatchLogRepository {
	return &DispatchLogRepository{
		client:     client,
		collection: client.Database(database).Collection(collectionName),
		ttl:        ttl,
	}
}

// EnsureIndexes creates the createdAt index used by Recent, with expiry when a TTL is set.
func (r *DispatchLogRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, createdAtIndex(r.ttl))
	return err
}

// createdAtIndex builds the single createdAt index. Recent walks it backwards.
func createdAtIndex(ttl time.Duration) mongo.IndexModel {
	opts := options.Index().SetName("createdAt")
	if seconds := int32(ttl / time.Second); seconds > 0 {
		opts.SetName("createdAt_ttl").SetExpireAfterSeconds(seconds)
	}
	return mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: opts,
	}
}

// Append inserts one dispatch log document.
func (r *DispatchLogRepository) Append(ctx context.Context, entry domain.DispatchLogEntry) error {
	_, err := r.collection.InsertOne(ctx, newDispatchLogDocument(entry))
	return err
}

// Recent は新しい順に最大 limit 件の送信ログを返す。
func (r *DispatchLogRepository) Recent(ctx context.Context, limit int) ([]domain.DispatchLogEntry, error) {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(int64(limit))
	cursor, err := r.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	entries := make([]domain.DispatchLogEntry, 0)
	for cursor.Next(ctx) {
		var doc DispatchLogDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		entries = append(entries, mapDispatchLogDocument(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// Ping checks the primary is reachable.
func (r *DispatchLogRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}
