package idempotency

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{name: "valid UUID", key: "550e8400-e29b-41d4-a716-446655440000"},
		{name: "valid alphanumeric", key: "abc123-def456_ghi789"},
		{name: "empty key", key: "", wantErr: ErrKeyRequired},
		{name: "too long", key: strings.Repeat("a", 256), wantErr: ErrKeyTooLong},
		{name: "spaces", key: "abc 123", wantErr: ErrKeyInvalid},
		{name: "special chars", key: "abc@123", wantErr: ErrKeyInvalid},
		{name: "exactly 255 chars", key: strings.Repeat("a", 255)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateKey(tt.key))
		})
	}
}

func TestComputeFingerprint(t *testing.T) {
	body := []byte(`{"items":[{"product_id":"p1","quantity":"2"}]}`)

	got := ComputeFingerprint(http.MethodPost, "/api/v1/sales", body)
	assert.Len(t, got, 64)
	assert.Equal(t, got, ComputeFingerprint(http.MethodPost, "/api/v1/sales", body))
	assert.NotEqual(t, got, ComputeFingerprint(http.MethodPost, "/api/v1/purchases", body))
	assert.NotEqual(t, got, ComputeFingerprint(http.MethodPut, "/api/v1/sales", body))
	assert.NotEqual(t, got, ComputeFingerprint(http.MethodPost, "/api/v1/sales", append(body, ' ')))
}

func TestNormalizeKey(t *testing.T) {
	for _, key := range []string{"abc123", "  abc123", "abc123  ", "\tabc123\t"} {
		assert.Equal(t, "abc123", NormalizeKey(key))
	}
}

func BenchmarkComputeFingerprint(b *testing.B) {
	body := []byte(`{"items":[{"product_id":"p1","quantity":"5","unit_price":"12.50"}],"payment_method":"cash"}`)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ComputeFingerprint(http.MethodPost, "/api/v1/sales", body)
	}
}
