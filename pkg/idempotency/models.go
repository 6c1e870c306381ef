package idempotency

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IdempotencyKey is a stored Idempotency-Key together with the fingerprint of
// the request that first used it and, once completed, the response it got.
type IdempotencyKey struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	Key                string             `bson:"key"`
	UserID             string             `bson:"user_id,omitempty"`
	ServiceID          string             `bson:"service_id"`
	RequestPath        string             `bson:"request_path"`
	RequestMethod      string             `bson:"request_method"`
	RequestFingerprint string             `bson:"request_fingerprint"` // sha256 of method, path and body

	LockedAt *time.Time `bson:"locked_at,omitempty"`

	ResponseCode    int               `bson:"response_code,omitempty"`
	ResponseBody    []byte            `bson:"response_body,omitempty"`
	ResponseHeaders map[string]string `bson:"response_headers,omitempty"`

	CreatedAt   time.Time  `bson:"created_at"`
	CompletedAt *time.Time `bson:"completed_at,omitempty"`
	ExpiresAt   time.Time  `bson:"expires_at"`
}

// IsCompleted returns true if the request has been completed
func (ik *IdempotencyKey) IsCompleted() bool {
	return ik.CompletedAt != nil
}

// IsLocked returns true if the request is currently being processed
func (ik *IdempotencyKey) IsLocked() bool {
	return ik.LockedAt != nil && ik.CompletedAt == nil
}
