package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"keybot/keyhub/internal/repository"
	"keybot/keyhub/pkg/response"
)

const (
	HeaderIdempotencyKey      = "Idempotency-Key"
	HeaderIdempotencyReplayed = "X-Idempotency-Replayed"
)

// replayedHeaders are the response headers stored alongside the body.
var replayedHeaders = []string{"Content-Type", "Retry-After"}

type storedResponse struct {
	Status int               `json:"status"`
	Header map[string]string `json:"header,omitempty"`
	Body   []byte            `json:"body"`
}

// generateKey fingerprints the caller, the client's key and the request itself.
// Every field is length-prefixed so no two field splits hash alike.
func generateKey(memberID, idempotencyKey, method, path string, body []byte) string {
	h := sha256.New()
	for _, field := range [][]byte{[]byte(memberID), []byte(idempotencyKey), []byte(method), []byte(path), body} {
		var size [8]byte
		binary.BigEndian.PutUint64(size[:], uint64(len(field)))
		h.Write(size[:])
		h.Write(field)
	}
	return hex.EncodeToString(h.Sum(nil))
}

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

// Idempotency replays the stored response for a POST retried with the same Idempotency-Key,
// so a claim retried after a dropped connection does not take a second key. Must be used
// after JWTAuth. Responses with a 5xx status are not stored.
func Idempotency(store repository.ReplayStore, ttl time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		idempotencyKey := c.GetHeader(HeaderIdempotencyKey)
		if c.Request.Method != http.MethodPost || idempotencyKey == "" {
			c.Next()
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			response.BadRequest(c, "unreadable request body")
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		ctx := c.Request.Context()
		key := generateKey(MemberID(c), idempotencyKey, c.Request.Method, c.Request.URL.Path, body)

		payload, err := store.Load(ctx, key)
		if err != nil {
			logger.Warn("idempotency lookup failed", zap.Error(err))
			c.Next()
			return
		}
		if payload != nil {
			if replay(c, payload) {
				return
			}
			logger.Warn("discarding unreadable stored response", zap.String("key", key))
			_ = store.Release(ctx, key)
		}

		reserved, err := store.Reserve(ctx, key, ttl)
		if err != nil {
			logger.Warn("idempotency reserve failed", zap.Error(err))
			c.Next()
			return
		}
		if !reserved {
			response.Conflict(c, "a request with this idempotency key is in progress")
			c.Abort()
			return
		}

		// Released unless a response was stored, including when the handler panics.
		completed := false
		defer func() {
			if completed {
				return
			}
			if err := store.Release(context.WithoutCancel(ctx), key); err != nil {
				logger.Warn("idempotency release failed", zap.Error(err))
			}
		}()

		w := &captureWriter{ResponseWriter: c.Writer}
		c.Writer = w
		c.Next()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}

		stored := storedResponse{Status: status, Header: map[string]string{}, Body: w.body.Bytes()}
		for _, h := range replayedHeaders {
			if v := w.Header().Get(h); v != "" {
				stored.Header[h] = v
			}
		}
		encoded, err := json.Marshal(stored)
		if err == nil {
			err = store.Complete(ctx, key, encoded, ttl)
		}
		if err != nil {
			logger.Warn("idempotency store failed", zap.Error(err))
			return
		}
		completed = true
	}
}

func replay(c *gin.Context, payload []byte) bool {
	var stored storedResponse
	if err := json.Unmarshal(payload, &stored); err != nil {
		return false
	}
	for k, v := range stored.Header {
		c.Header(k, v)
	}
	c.Header(HeaderIdempotencyReplayed, "true")
	c.Data(stored.Status, stored.Header["Content-Type"], stored.Body)
	c.Abort()
	return true
}
