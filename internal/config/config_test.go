package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load("retail-api")
	require.NoError(t, err)

	assert.Equal(t, "retail-api", cfg.ServiceName)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "retail", cfg.MongoDB.Database)
	assert.Equal(t, SequenceBackendMongo, cfg.Sequence.Backend)
	assert.True(t, cfg.Tracing.Enabled)
	assert.False(t, cfg.Server.OpenAPIValidation)
}

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
environment: staging
server:
  addr: ":9000"
  shutdown_timeout: 5s
mongodb:
  uri: mongodb://mongo:27017/?replicaSet=rs0
  database: shop
sequence:
  backend: redis
redis:
  addr: redis:6379
outbox:
  batch_size: 20
`), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("MONGODB_DATABASE", "shop_override")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("OPENAPI_VALIDATION", "true")

	cfg, err := Load("retail-api")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "mongodb://mongo:27017/?replicaSet=rs0", cfg.MongoDB.URI)
	assert.Equal(t, "shop_override", cfg.MongoDB.Database)
	assert.Equal(t, SequenceBackendRedis, cfg.Sequence.Backend)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 20, cfg.Outbox.BatchSize)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Server.OpenAPIValidation)
	// untouched keys keep their defaults
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
}

func TestLoadRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "unknown backend", env: map[string]string{"SEQUENCE_BACKEND": "etcd"}},
		{name: "bad bool", env: map[string]string{"TRACING_ENABLED": "maybe"}},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load("retail-api")
			assert.Error(t, err)
		})
	}
}
