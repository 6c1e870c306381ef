package idempotency

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// InitializeIndexes creates the idempotency_keys indexes. Run it from the
// migration job before the API takes traffic.
func InitializeIndexes(ctx context.Context, db *mongo.Database) error {
	if err := NewMongoKeyRepository(db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("create idempotency_keys indexes: %w", err)
	}
	return nil
}
