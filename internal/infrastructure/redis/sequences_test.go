package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/LocalHostDiluk/reinicializado/internal/domain"
)

func TestKey(t *testing.T) {
	day := time.Date(2025, 3, 10, 23, 30, 0, 0, time.FixedZone("UTC-6", -6*3600))
	assert.Equal(t, "retail:seq:VENTA:20250311", Key(domain.PrefixSale, day))
}

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client, err := NewClient(ctx, Config{Addr: endpoint, PoolSize: 10})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestSequences_Next(t *testing.T) {
	client := startRedis(t)
	ctx := context.Background()
	seq := NewSequences(client, nil)
	day := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	const workers = 25
	var wg sync.WaitGroup
	results := make(chan int64, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := seq.Next(ctx, domain.PrefixReturn, day)
			assert.NoError(t, err)
			results <- n
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for n := range results {
		seen[n] = true
	}
	assert.Len(t, seen, workers)
	assert.True(t, seen[1])
	assert.True(t, seen[workers])

	ttl, err := client.TTL(ctx, Key(domain.PrefixReturn, day)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 47*time.Hour)

	n, err := seq.Next(ctx, domain.PrefixReturn, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	number, err := domain.NextNumber(ctx, seq, domain.PrefixSale, day)
	require.NoError(t, err)
	assert.Equal(t, "VENTA-20250310-0001", number)
}
