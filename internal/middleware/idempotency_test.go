package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/go-petr/fx-ledger/internal/idempotencyrepo"
	"github.com/go-petr/fx-ledger/pkg/tokenpkg"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

const testUserHeader = "X-Test-User"

type idempotencyHarness struct {
	router *gin.Engine
	repo   *idempotencyrepo.RepoRedis
	mr     *miniredis.Miniredis
	calls  int
	status int
}

func newIdempotencyHarness(t *testing.T) *idempotencyHarness {
	t.Helper()
	gin.SetMode(gin.ReleaseMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })

	h := &idempotencyHarness{
		repo:   idempotencyrepo.NewRepoRedis(client, time.Hour),
		mr:     mr,
		status: http.StatusCreated,
	}

	fakeAuth := func(c *gin.Context) {
		id, _ := strconv.ParseInt(c.GetHeader(testUserHeader), 10, 64)
		c.Set(AuthPayloadKey, &tokenpkg.Payload{UserID: id})
	}

	h.router = gin.New()
	h.router.POST("/transfer", fakeAuth, Idempotency(h.repo), func(c *gin.Context) {
		h.calls++
		c.JSON(h.status, gin.H{"call": h.calls})
	})

	return h
}

func (h *idempotencyHarness) do(user, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader("{}"))
	req.Header.Set(testUserHeader, user)

	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}

	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	return rec
}

func TestIdempotencyWithoutKey(t *testing.T) {
	h := newIdempotencyHarness(t)

	h.do("1", "")
	rec := h.do("1", "")

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, h.calls)
	require.Empty(t, rec.Header().Get(IdempotentReplayedHeader))
}

func TestIdempotencyReplaysSuccess(t *testing.T) {
	h := newIdempotencyHarness(t)

	first := h.do("1", "abc")
	require.Equal(t, http.StatusCreated, first.Code)

	second := h.do("1", "abc")
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, first.Body.String(), second.Body.String())
	require.Equal(t, "true", second.Header().Get(IdempotentReplayedHeader))
	require.Contains(t, second.Header().Get("Content-Type"), "application/json")
	require.Equal(t, 1, h.calls)
}

func TestIdempotencyScopedByUser(t *testing.T) {
	h := newIdempotencyHarness(t)

	h.do("1", "abc")
	rec := h.do("2", "abc")

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, h.calls)
	require.Empty(t, rec.Header().Get(IdempotentReplayedHeader))
}

func TestIdempotencyReleasesOnFailure(t *testing.T) {
	h := newIdempotencyHarness(t)
	h.status = http.StatusBadRequest

	rec := h.do("1", "abc")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	h.status = http.StatusCreated

	rec = h.do("1", "abc")
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, 2, h.calls)
}

func TestIdempotencyInFlight(t *testing.T) {
	h := newIdempotencyHarness(t)

	ok, err := h.repo.Reserve(context.Background(), "1:POST /transfer:abc")
	require.NoError(t, err)
	require.True(t, ok)

	rec := h.do("1", "abc")
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, rec.Body.String(), ErrRequestInFlight.Error())
	require.Zero(t, h.calls)
}

func TestIdempotencyKeyTooLong(t *testing.T) {
	h := newIdempotencyHarness(t)

	rec := h.do("1", strings.Repeat("k", maxIdempotencyKeyLength+1))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, h.calls)
}

func TestIdempotencyStoreDown(t *testing.T) {
	h := newIdempotencyHarness(t)
	h.mr.Close()

	first := h.do("1", "abc")
	second := h.do("1", "abc")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, 2, h.calls)
}
