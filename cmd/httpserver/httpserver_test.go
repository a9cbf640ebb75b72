package httpserver

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/go-petr/fx-ledger/internal/middleware"
	"github.com/go-petr/fx-ledger/pkg/configpkg"
	"github.com/go-petr/fx-ledger/pkg/randompkg"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	config := configpkg.Config{
		TokenSymmetricKey: randompkg.String(32),
		TokenType:         "paseto",
		IdempotencyTTL:    time.Hour,
	}

	server, err := New(db, zerolog.Nop(), config, opts...)
	require.NoError(t, err)

	return server, mock
}

func authorize(t *testing.T, s *Server, r *http.Request, userID int64) {
	t.Helper()

	err := middleware.AddAuthorization(r, s.TokenMaker, middleware.AuthTypeBearer, userID, time.Minute)
	require.NoError(t, err)
}

func TestHealthz(t *testing.T) {
	server, mock := newTestServer(t)
	mock.ExpectPing()

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	server, _ := newTestServer(t)
	server.Metrics.Observe("transfer", nil, time.Millisecond)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	body, err := io.ReadAll(recorder.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), `ledger_transactions_total{outcome="ok",type="transfer"} 1`)
	require.Contains(t, string(body), "go_goroutines")
}

func TestAccountsRequireAuth(t *testing.T) {
	server, _ := newTestServer(t)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/accounts", nil))

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestListAccounts(t *testing.T) {
	server, mock := newTestServer(t)
	userID := randompkg.UserID()
	now := time.Now()

	rows := sqlmock.NewRows([]string{
		"id", "public_id", "owner_id", "account_name", "account_type", "currency",
		"balance", "is_locked", "created_at", "updated_at",
	}).
		AddRow(1, uuid.New().String(), userID, "Main", "checking", "USD", "1000.00", false, now, now).
		AddRow(2, uuid.New().String(), userID, "Savings", "savings", "EUR", "50.00", false, now, now)

	mock.ExpectQuery("FROM accounts").WithArgs(userID).WillReturnRows(rows)

	req := httptest.NewRequest(http.MethodGet, "/accounts", nil)
	authorize(t, server, req, userID)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.Contains(t, recorder.Body.String(), `"balance":"1000"`)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTransferRejectedBeforeStore(t *testing.T) {
	server, mock := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/transactions/transfer",
		strings.NewReader(`{"from_account_id":1,"to_account_id":2,"amount":"0"}`))
	authorize(t, server, req, 7)

	recorder := httptest.NewRecorder()
	server.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusBadRequest, recorder.Code)
	require.Contains(t, recorder.Body.String(), "Amount must be a positive decimal number")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestIdempotencyKeyReleasedOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	server, _ := newTestServer(t, WithRedis(client))

	body := []byte(`{"from_account_id":1,"to_account_id":2,"amount":"-1"}`)

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/transactions/transfer", bytes.NewReader(body))
		req.Header.Set(middleware.IdempotencyKeyHeader, "retry-me")
		authorize(t, server, req, 7)

		recorder := httptest.NewRecorder()
		server.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
		require.Empty(t, recorder.Header().Get(middleware.IdempotentReplayedHeader))
	}

	require.Empty(t, mr.Keys())
}
