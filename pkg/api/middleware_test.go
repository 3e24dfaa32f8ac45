package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func newTestRouter(middleware ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware...)
	r.GET("/participants/:competition_id/:participant_id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestGlobalLimiterMiddlewareAllowsWithinBurst(t *testing.T) {
	limiter := rate.NewLimiter(rate.Limit(1), 2)
	r := newTestRouter(globalLimiterMiddleware(limiter))

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestGlobalLimiterMiddlewareDelaysInsteadOfRejecting(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(40*time.Millisecond), 1)
	r := newTestRouter(globalLimiterMiddleware(limiter))

	w1 := httptest.NewRecorder()
	r.ServeHTTP(w1, httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil))
	assert.Equal(t, http.StatusOK, w1.Code)

	start := time.Now()
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil))
	elapsed := time.Since(start)

	assert.Equal(t, http.StatusOK, w2.Code)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
}

func TestGlobalLimiterMiddlewareAbortsOnContextCancellation(t *testing.T) {
	limiter := rate.NewLimiter(rate.Every(time.Hour), 1)
	limiter.Allow() // consume the only token so the next call must wait
	r := newTestRouter(globalLimiterMiddleware(limiter))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil).WithContext(ctx)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestParticipantAuthMiddlewareRejectsMissingToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)
	r := newTestRouter(participantAuthMiddleware(issuer))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParticipantAuthMiddlewareRejectsInvalidToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)
	r := newTestRouter(participantAuthMiddleware(issuer))

	req := httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestParticipantAuthMiddlewareRejectsTokenForDifferentParticipant(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)
	token, err := issuer.Issue("c1", "someone-else")
	require.NoError(t, err)

	r := newTestRouter(participantAuthMiddleware(issuer))
	req := httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestParticipantAuthMiddlewareAcceptsMatchingToken(t *testing.T) {
	issuer, err := NewTokenIssuer("test-secret")
	require.NoError(t, err)
	token, err := issuer.Issue("c1", "p1")
	require.NoError(t, err)

	r := newTestRouter(participantAuthMiddleware(issuer))
	req := httptest.NewRequest(http.MethodGet, "/participants/c1/p1", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
