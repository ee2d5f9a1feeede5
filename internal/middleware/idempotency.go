package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/ramadandelights-sys/OfficeXpress-v2-sub000/internal/logging"
)

const (
	idempotencyHeader   = "Idempotency-Key"
	replayedHeader      = "Idempotent-Replayed"
	idempotencyPrefix   = "assignment:idempotency:"
	idempotencyTTL      = 24 * time.Hour
	maxFingerprintBytes = 64 << 10
)

// storedRun is a completed trigger response kept under its key.
type storedRun struct {
	Fingerprint string          `json:"fingerprint"`
	StatusCode  int             `json:"status_code"`
	Body        json.RawMessage `json:"body"`
}

// captureWriter tees the response body.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored summary of a successful manual run when a
// client retries with the same Idempotency-Key. Only 2xx responses are
// stored so a 409 or 500 stays retryable. Reusing a key for a different
// request body is rejected with 422. A nil client disables it.
func Idempotency(client *redis.Client, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(idempotencyHeader)
		if client == nil || key == "" {
			c.Next()
			return
		}

		fingerprint, err := fingerprintBody(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable request body"})
			return
		}

		ctx := c.Request.Context()
		storeKey := idempotencyPrefix + key

		stored, err := loadRun(ctx, client, storeKey)
		switch {
		case err != nil && !errors.Is(err, redis.Nil):
			logging.LogError(logger, "idempotency lookup failed", err, slog.String("key", key))
		case stored != nil && stored.Fingerprint != fingerprint:
			c.AbortWithStatusJSON(http.StatusUnprocessableEntity,
				gin.H{"error": "Idempotency-Key was already used for a different run request"})
			return
		case stored != nil:
			c.Header(replayedHeader, "true")
			c.Data(stored.StatusCode, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status < 200 || status >= 300 {
			return
		}
		run := storedRun{Fingerprint: fingerprint, StatusCode: status, Body: w.body.Bytes()}
		if err := saveRun(context.WithoutCancel(ctx), client, storeKey, &run); err != nil {
			logging.LogError(logger, "idempotency store failed", err, slog.String("key", key))
		}
	}
}

// fingerprintBody hashes the request body and puts it back for binding.
func fingerprintBody(r *http.Request) (string, error) {
	if r.Body == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, maxFingerprintBytes))
	if err != nil {
		return "", err
	}
	r.Body = io.NopCloser(bytes.NewReader(data))
	sum := sha256.Sum256(bytes.TrimSpace(data))
	return hex.EncodeToString(sum[:]), nil
}

func loadRun(ctx context.Context, client *redis.Client, key string) (*storedRun, error) {
	data, err := client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, err
	}

	var run storedRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, err
	}
	return &run, nil
}

func saveRun(ctx context.Context, client *redis.Client, key string, run *storedRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, data, idempotencyTTL).Err()
}
