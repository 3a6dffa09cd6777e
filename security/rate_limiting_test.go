package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/tests"
	"github.com/pocketbase/pocketbase/tools/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newRequestEvent builds an event with a real app attached; RealIP needs the
// app settings to resolve the client identity.
func newRequestEvent(t *testing.T) *core.RequestEvent {
	t.Helper()

	app, err := tests.NewTestApp()
	require.NoError(t, err)
	t.Cleanup(app.Cleanup)

	e := &core.RequestEvent{}
	e.App = app
	e.Request = httptest.NewRequest(http.MethodPost, "/api/bookings", nil)
	e.Response = httptest.NewRecorder()
	return e
}

func TestRateLimiterUnderLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 5, time.Minute)

	key := "ratelimit:booking:192.0.2.1"
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)

	err := limiter.Middleware()(newRequestEvent(t))
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRateLimiterOverLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	limiter := NewRateLimiter(db, 5, time.Minute)

	mock.ExpectIncr("ratelimit:booking:192.0.2.1").SetVal(6)

	err := limiter.Middleware()(newRequestEvent(t))
	require.Error(t, err)

	var apiErr *router.ApiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 429, apiErr.Status)
	assert.Equal(t, "rate_limited", apiErr.Data["code"])
}

func TestRateLimiterFailsOpen(t *testing.T) {
	t.Run("no redis configured", func(t *testing.T) {
		limiter := NewRateLimiter(nil, 5, time.Minute)
		assert.NoError(t, limiter.Middleware()(newRequestEvent(t)))
	})

	t.Run("redis down", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		limiter := NewRateLimiter(db, 5, time.Minute)

		mock.ExpectIncr("ratelimit:booking:192.0.2.1").SetErr(assert.AnError)

		assert.NoError(t, limiter.Middleware()(newRequestEvent(t)))
	})
}
