package idempotency

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LocalHostDiluk/reinicializado/pkg/errors"
	"github.com/LocalHostDiluk/reinicializado/pkg/middleware"
	"github.com/gin-gonic/gin"
)

const (
	// HeaderIdempotencyKey is the HTTP header name for the idempotency key
	HeaderIdempotencyKey = "Idempotency-Key"

	// HeaderIdempotentReplay marks a response served from the cache
	HeaderIdempotentReplay = "Idempotent-Replayed"

	// ContextKeyIdempotencyKeyID is the gin context key holding the stored key id
	ContextKeyIdempotencyKeyID = "idempotency_key_id"
)

// responseWriter wraps gin.ResponseWriter to capture response data
type responseWriter struct {
	gin.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Middleware returns a Gin middleware for idempotency
func Middleware(config *Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if config.OnlyMutating && !isMutatingMethod(c.Request.Method) {
			c.Next()
			return
		}

		key := NormalizeKey(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			if config.RequireKey {
				middleware.AbortWithAppError(c, errors.ErrInvalidArgument(ErrKeyRequired.Error()).
					WithDetail("header", HeaderIdempotencyKey))
				return
			}
			c.Next()
			return
		}

		if err := ValidateKeyWithMaxLength(key, config.MaxKeyLength); err != nil {
			middleware.AbortWithAppError(c, errors.ErrInvalidArgument(err.Error()).
				WithDetail("header", HeaderIdempotencyKey))
			return
		}

		var userID string
		if config.UserIDExtractor != nil {
			userID = config.UserIDExtractor(c)
		}

		var requestBody []byte
		if c.Request.Body != nil {
			requestBody, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}
		fingerprint := ComputeFingerprint(c.Request.Method, c.Request.URL.Path, requestBody)

		processIdempotency(c, config, key, userID, fingerprint)
	}
}

func processIdempotency(c *gin.Context, config *Config, key, userID, fingerprint string) {
	ctx := c.Request.Context()
	log := config.logger().WithContext(ctx).WithFields(map[string]any{
		"idempotencyKey": key,
		"path":           c.Request.URL.Path,
	})
	route := c.FullPath()
	startTime := time.Now()

	now := time.Now().UTC()
	candidate := &IdempotencyKey{
		Key:                key,
		UserID:             userID,
		ServiceID:          config.ServiceName,
		RequestPath:        c.Request.URL.Path,
		RequestMethod:      c.Request.Method,
		RequestFingerprint: fingerprint,
		CreatedAt:          now,
		ExpiresAt:          now.Add(config.RetentionPeriod),
	}

	stored, isNew, err := config.Repository.AcquireLock(ctx, candidate)
	if err != nil {
		log.WithError(err).Error("Failed to acquire idempotency lock")
		if config.Metrics != nil {
			config.Metrics.RecordStorageError(config.ServiceName, "acquire_lock")
		}
		middleware.AbortWithAppError(c, errors.ErrServiceUnavailable("idempotency storage"))
		return
	}

	if config.Metrics != nil {
		config.Metrics.RecordLockAcquisitionDuration(config.ServiceName, route, c.Request.Method, time.Since(startTime).Seconds())
	}

	if !isNew && stored.RequestFingerprint != fingerprint {
		log.Warn("Idempotency key reused with a different request")
		if config.Metrics != nil {
			config.Metrics.RecordParameterMismatch(config.ServiceName, route, c.Request.Method)
		}
		middleware.AbortWithAppError(c, errors.ErrInvalidArgument(
			"request differs from the original request sent with this idempotency key"))
		return
	}

	if stored.IsCompleted() {
		log.Info("Idempotency cache hit", "statusCode", stored.ResponseCode)
		if config.Metrics != nil {
			config.Metrics.RecordHit(config.ServiceName, route, c.Request.Method)
		}
		for k, v := range stored.ResponseHeaders {
			c.Header(k, v)
		}
		c.Header(HeaderIdempotentReplay, "true")
		c.Data(stored.ResponseCode, "application/json; charset=utf-8", stored.ResponseBody)
		c.Abort()
		return
	}

	if !isNew && stored.IsLocked() {
		lockAge := time.Since(*stored.LockedAt)
		if lockAge < config.LockTimeout {
			log.Warn("Concurrent idempotency request", "lockAge", lockAge)
			if config.Metrics != nil {
				config.Metrics.RecordConcurrentCollision(config.ServiceName, route, c.Request.Method)
			}
			middleware.AbortWithAppError(c, errors.ErrConflict(
				"a request with this idempotency key is currently being processed"))
			return
		}
		log.Info("Stale idempotency lock taken over", "lockAge", lockAge)
	}

	keyID := stored.ID.Hex()
	c.Set(ContextKeyIdempotencyKeyID, keyID)
	if config.Metrics != nil {
		config.Metrics.RecordMiss(config.ServiceName, route, c.Request.Method)
	}

	writer := &responseWriter{
		ResponseWriter: c.Writer,
		body:           &bytes.Buffer{},
		statusCode:     http.StatusOK,
	}
	c.Writer = writer

	c.Next()

	// conflicts and server errors leave no state behind, so the client may retry with the same key
	if !cacheable(writer.statusCode) {
		if err := config.Repository.ReleaseLock(ctx, keyID); err != nil {
			log.WithError(err).Error("Failed to release idempotency lock")
			if config.Metrics != nil {
				config.Metrics.RecordStorageError(config.ServiceName, "release_lock")
			}
		}
		return
	}

	responseBody := writer.body.Bytes()
	if len(responseBody) > config.MaxResponseSize {
		log.Warn("Response too large to cache", "size", len(responseBody))
		responseBody = []byte(fmt.Sprintf(`{"message":"response too large to cache","size":%d}`, len(responseBody)))
	}

	if err := config.Repository.StoreResponse(ctx, keyID, writer.statusCode, responseBody, extractResponseHeaders(c)); err != nil {
		log.WithError(err).Error("Failed to store idempotency response")
		if config.Metrics != nil {
			config.Metrics.RecordStorageError(config.ServiceName, "store_response")
		}
		return
	}
	log.Debug("Stored idempotency response", "statusCode", writer.statusCode)
}

func cacheable(status int) bool {
	return status < http.StatusInternalServerError && status != http.StatusConflict
}

// isMutatingMethod returns true if the HTTP method is mutating
func isMutatingMethod(method string) bool {
	return method == http.MethodPost ||
		method == http.MethodPut ||
		method == http.MethodPatch ||
		method == http.MethodDelete
}

// extractResponseHeaders keeps the headers worth replaying
func extractResponseHeaders(c *gin.Context) map[string]string {
	headers := make(map[string]string)
	for _, k := range []string{"Location", "X-Request-ID"} {
		if v := c.Writer.Header().Get(k); v != "" {
			headers[k] = v
		}
	}
	return headers
}
