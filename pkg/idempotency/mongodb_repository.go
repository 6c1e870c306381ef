package idempotency

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const idempotencyKeysCollection = "idempotency_keys"

// MongoKeyRepository implements KeyRepository using MongoDB
type MongoKeyRepository struct {
	collection *mongo.Collection
}

// NewMongoKeyRepository creates a new MongoDB-backed key repository
func NewMongoKeyRepository(db *mongo.Database) *MongoKeyRepository {
	return &MongoKeyRepository{
		collection: db.Collection(idempotencyKeysCollection),
	}
}

// AcquireLock upserts the key on (service_id, user_id, key) and sets locked_at.
func (r *MongoKeyRepository) AcquireLock(ctx context.Context, key *IdempotencyKey) (*IdempotencyKey, bool, error) {
	now := time.Now().UTC()

	filter := bson.M{
		"service_id": key.ServiceID,
		"user_id":    key.UserID,
		"key":        key.Key,
	}

	update := bson.M{
		"$setOnInsert": bson.M{
			"request_path":        key.RequestPath,
			"request_method":      key.RequestMethod,
			"request_fingerprint": key.RequestFingerprint,
			"created_at":          key.CreatedAt,
			"expires_at":          key.ExpiresAt,
		},
		"$set": bson.M{
			"locked_at": now,
		},
	}

	// read the previous document so a lock held by another request stays visible
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.Before)

	var previous IdempotencyKey
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&previous)
	if errors.Is(err, mongo.ErrNoDocuments) {
		var created IdempotencyKey
		if err := r.collection.FindOne(ctx, filter).Decode(&created); err != nil {
			return nil, false, err
		}
		return &created, true, nil
	}
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			// lost an upsert race; the winner holds the lock
			var existing IdempotencyKey
			if err := r.collection.FindOne(ctx, filter).Decode(&existing); err != nil {
				return nil, false, err
			}
			return &existing, false, nil
		}
		return nil, false, err
	}

	return &previous, false, nil
}

// ReleaseLock releases the lock on an idempotency key
func (r *MongoKeyRepository) ReleaseLock(ctx context.Context, keyID string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}

	_, err = r.collection.UpdateOne(ctx,
		bson.M{"_id": objID, "completed_at": bson.M{"$exists": false}},
		bson.M{"$unset": bson.M{"locked_at": ""}},
	)
	return err
}

// StoreResponse stores the final response for a completed request
func (r *MongoKeyRepository) StoreResponse(ctx context.Context, keyID string, responseCode int, responseBody []byte, headers map[string]string) error {
	objID, err := primitive.ObjectIDFromHex(keyID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$set": bson.M{
			"response_code":    responseCode,
			"response_body":    responseBody,
			"response_headers": headers,
			"completed_at":     time.Now().UTC(),
		},
		"$unset": bson.M{"locked_at": ""},
	}

	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	return err
}

// Get retrieves an idempotency key by its key string, service and user
func (r *MongoKeyRepository) Get(ctx context.Context, key, serviceID, userID string) (*IdempotencyKey, error) {
	filter := bson.M{
		"service_id": serviceID,
		"user_id":    userID,
		"key":        key,
	}

	var result IdempotencyKey
	err := r.collection.FindOne(ctx, filter).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	return &result, nil
}

// Clean removes expired idempotency keys. The TTL index does the same
// eventually; this is for jobs that need it done now.
func (r *MongoKeyRepository) Clean(ctx context.Context, before time.Time) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return result.DeletedCount, nil
}

// EnsureIndexes ensures that all required indexes are created
func (r *MongoKeyRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "service_id", Value: 1},
				{Key: "user_id", Value: 1},
				{Key: "key", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_service_user_key"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("idx_ttl"),
		},
	}

	_, err := r.collection.Indexes().CreateMany(ctx, indexes)
	return err
}
