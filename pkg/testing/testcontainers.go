package testing

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	pkgmongo "github.com/LocalHostDiluk/reinicializado/pkg/mongodb"
)

// MongoImage is the server image used by integration tests.
const MongoImage = "mongo:7"

// MongoDBContainer wraps a single-node replica set. Transactions need a
// replica set, so plain standalone containers are not enough.
type MongoDBContainer struct {
	Container *mongodb.MongoDBContainer
	URI       string
}

// newMongoDBContainer starts a MongoDB replica set named rs0.
func newMongoDBContainer(ctx context.Context) (*MongoDBContainer, error) {
	container, err := mongodb.Run(ctx, MongoImage, mongodb.WithReplicaSet("rs0"))
	if err != nil {
		return nil, fmt.Errorf("failed to start mongodb container: %w", err)
	}

	uri, err := container.ConnectionString(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	return &MongoDBContainer{Container: container, URI: uri}, nil
}

// Close terminates the container.
func (m *MongoDBContainer) Close(ctx context.Context) error {
	if m.Container != nil {
		return m.Container.Terminate(ctx)
	}
	return nil
}

// Connect returns a client on database with the service's BSON registry.
func (m *MongoDBContainer) Connect(ctx context.Context, database string) (*pkgmongo.Client, error) {
	cfg := pkgmongo.DefaultConfig()
	cfg.URI = m.URI
	cfg.Database = database
	cfg.ConnectTimeout = 10 * time.Second
	cfg.MinPoolSize = 0
	return pkgmongo.NewClient(ctx, cfg)
}

// StartMongo starts a replica set for the test and connects to a fresh
// database. It skips the test in -short mode; cleanup is registered on t.
func StartMongo(t *testing.T, database string) *pkgmongo.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := newMongoDBContainer(ctx)
	if err != nil {
		t.Fatalf("start mongodb: %v", err)
	}
	client, err := container.Connect(ctx, database)
	if err != nil {
		_ = container.Close(context.Background())
		t.Fatalf("connect mongodb: %v", err)
	}

	t.Cleanup(func() {
		_ = client.Close(context.Background())
		_ = container.Close(context.Background())
	})
	return client
}
