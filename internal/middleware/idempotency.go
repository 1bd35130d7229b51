package middleware

import (
	"bytes"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "X-Idempotency-Key"
	idempotencyTTL    = 24 * time.Hour
)

type bodyRecorder struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// encodeReplay frames a pinned response. Leading three bytes carry the HTTP
// status as ASCII digits; the body, possibly empty, follows.
func encodeReplay(status int, body []byte) []byte {
	return append([]byte{
		byte('0' + status/100),
		byte('0' + (status/10)%10),
		byte('0' + status%10),
	}, body...)
}

// decodeReplay parses a pinned response back into status and body. ok is
// false when the payload is not a replay frame.
func decodeReplay(stored []byte) (status int, body []byte, ok bool) {
	if len(stored) < 3 {
		return 0, nil, false
	}
	for _, b := range stored[:3] {
		if b < '0' || b > '9' {
			return 0, nil, false
		}
	}
	status = int(stored[0]-'0')*100 + int(stored[1]-'0')*10 + int(stored[2]-'0')
	return status, stored[3:], true
}

// Idempotency replays the stored response when a mutating request repeats
// its X-Idempotency-Key. A key claimed by an in-flight request gets a 409.
// Without redis or without the header the request passes through untouched.
func Idempotency(rdb *redis.Client, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || c.Request.Method == http.MethodGet {
			c.Next()
			return
		}
		key := c.GetHeader(idempotencyHeader)
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		redisKey := "idem:" + c.GetString("tenant_id") + ":" + key

		claimed, err := rdb.SetNX(ctx, redisKey, "pending", idempotencyTTL).Result()
		if err != nil {
			logger.Warn("idempotency store unavailable", zap.Error(err))
			c.Next()
			return
		}

		if !claimed {
			stored, err := rdb.Get(ctx, redisKey).Bytes()
			if err != nil || string(stored) == "pending" {
				c.JSON(http.StatusConflict, gin.H{
					"code":    40910,
					"message": "Request with this idempotency key is still being processed",
				})
				c.Abort()
				return
			}
			if status, body, ok := decodeReplay(stored); ok {
				c.Data(status, "application/json", body)
				c.Abort()
				return
			}
			c.Next()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec
		c.Next()

		status := c.Writer.Status()
		if status >= 500 {
			// Do not pin server errors; let the client retry fresh.
			if err := rdb.Del(ctx, redisKey).Err(); err != nil {
				logger.Warn("idempotency key cleanup failed", zap.Error(err))
			}
			return
		}

		payload := encodeReplay(status, rec.buf.Bytes())
		if err := rdb.Set(ctx, redisKey, payload, idempotencyTTL).Err(); err != nil {
			logger.Warn("idempotency response store failed", zap.Error(err))
		}
	}
}
