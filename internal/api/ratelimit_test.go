package api_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hamrosuraksha/reliefchain/internal/api"
)

func setupLimitedRouter(t *testing.T, cfg api.RateLimitConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(api.RateLimiter(cfg))
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return r
}

func doPing(router *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_429AfterBurst(t *testing.T) {
	router := setupLimitedRouter(t, api.RateLimitConfig{RPS: 1, Burst: 2})

	for i := 0; i < 2; i++ {
		if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d within burst: expected 200, got %d", i+1, w.Code)
		}
	}

	w := doPing(router, "10.0.0.1:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %d", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After hint on the 429")
	}
}

func TestRateLimiter_clientsAreIndependent(t *testing.T) {
	router := setupLimitedRouter(t, api.RateLimitConfig{RPS: 1, Burst: 1})

	if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client: expected 200, got %d", w.Code)
	}
	if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("first client over limit: expected 429, got %d", w.Code)
	}

	// A different IP gets its own bucket.
	if w := doPing(router, "10.0.0.2:1234"); w.Code != http.StatusOK {
		t.Fatalf("second client: expected 200, got %d", w.Code)
	}
}

func TestRateLimiter_idleBucketsAreSwept(t *testing.T) {
	router := setupLimitedRouter(t, api.RateLimitConfig{
		RPS:           1,
		Burst:         1,
		IdleTTL:       5 * time.Millisecond,
		SweepInterval: 5 * time.Millisecond,
	})

	if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 with the bucket drained, got %d", w.Code)
	}

	// After the idle TTL the drained bucket is evicted and the client
	// starts over with a fresh burst allowance.
	time.Sleep(20 * time.Millisecond)
	if w := doPing(router, "10.0.0.1:1234"); w.Code != http.StatusOK {
		t.Fatalf("expected 200 after sweep, got %d", w.Code)
	}
}
