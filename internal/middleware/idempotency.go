package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-petr/fx-ledger/internal/domain"
	"github.com/go-petr/fx-ledger/pkg/web"
	"github.com/rs/zerolog"
)

// Idempotency headers.
const (
	IdempotencyKeyHeader     = "Idempotency-Key"
	IdempotentReplayedHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLength  = 255
)

// Errors returned to clients that repeat a request.
var (
	ErrRequestInFlight       = errors.New("a request with this idempotency key is still in progress")
	ErrIdempotencyKeyTooLong = fmt.Errorf("idempotency key must be at most %d characters", maxIdempotencyKeyLength)
)

// IdempotencyStore keeps one response per idempotency key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) (domain.IdempotentResponse, error)
	Complete(ctx context.Context, key string, resp domain.IdempotentResponse) error
	Release(ctx context.Context, key string) error
}

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a request repeated with the same Idempotency-Key.
//
// Keys are scoped by the authenticated user and route. Only successful responses are kept;
// any other outcome releases the key so the client may retry. When the store is unreachable
// the request is served without replay protection.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyKeyHeader)
		if key == "" {
			c.Next()
			return
		}

		if len(key) > maxIdempotencyKeyLength {
			c.AbortWithStatusJSON(http.StatusBadRequest, web.Error(ErrIdempotencyKeyTooLong))
			return
		}

		ctx := c.Request.Context()
		l := zerolog.Ctx(ctx)

		userID, _ := UserID(c)
		scoped := fmt.Sprintf("%d:%s %s:%s", userID, c.Request.Method, c.FullPath(), key)

		reserved, err := store.Reserve(ctx, scoped)
		if err != nil {
			l.Warn().Err(err).Msg("idempotency store unavailable")
			c.Next()

			return
		}

		if !reserved {
			replay(c, store, scoped)
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		status := rec.Status()
		if status < http.StatusOK || status >= http.StatusMultipleChoices {
			if err := store.Release(ctx, scoped); err != nil {
				l.Error().Err(err).Msg("release idempotency key")
			}

			return
		}

		resp := domain.IdempotentResponse{
			StatusCode:  status,
			ContentType: rec.Header().Get("Content-Type"),
			Body:        rec.body.Bytes(),
		}

		if err := store.Complete(ctx, scoped, resp); err != nil {
			l.Error().Err(err).Msg("store idempotent response")
		}
	}
}

func replay(c *gin.Context, store IdempotencyStore, key string) {
	l := zerolog.Ctx(c.Request.Context())

	resp, err := store.Get(c.Request.Context(), key)
	if err != nil {
		// The key expired or was released between the two calls.
		l.Warn().Err(err).Msg("idempotency record unavailable")
		c.AbortWithStatusJSON(http.StatusConflict, web.Error(ErrRequestInFlight))

		return
	}

	if resp.State != domain.IdempotencyCompleted {
		c.AbortWithStatusJSON(http.StatusConflict, web.Error(ErrRequestInFlight))
		return
	}

	l.Info().Int("status_code", resp.StatusCode).Msg("idempotent response replayed")

	c.Header(IdempotentReplayedHeader, "true")
	c.Data(resp.StatusCode, resp.ContentType, resp.Body)
	c.Abort()
}
