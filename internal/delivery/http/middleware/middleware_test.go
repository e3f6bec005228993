package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"expert-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeVerifier struct {
	tokens map[string]string
	calls  int
}

func (f *fakeVerifier) Verify(_ context.Context, raw string) (string, error) {
	f.calls++
	if sub, ok := f.tokens[raw]; ok {
		return sub, nil
	}
	return "", errors.New("invalid token")
}

func subjectEcho(mw ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	r.Use(mw...)
	r.GET("/who", func(c *gin.Context) {
		c.String(http.StatusOK, SubjectID(c))
	})
	return r
}

func TestSessionMiddleware(t *testing.T) {
	verifier := &fakeVerifier{tokens: map[string]string{"good": "user_1", "cookie": "user_2"}}
	r := subjectEcho(RequestID(), SessionMiddleware(verifier))

	do := func(setup func(*http.Request)) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/who", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("Should read the bearer token", func(t *testing.T) {
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer good") })
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "user_1", w.Body.String())
	})

	t.Run("Should accept a lowercase scheme", func(t *testing.T) {
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "bearer good") })
		assert.Equal(t, "user_1", w.Body.String())
	})

	t.Run("Should fall back to the session cookie", func(t *testing.T) {
		w := do(func(req *http.Request) { req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie"}) })
		assert.Equal(t, "user_2", w.Body.String())
	})

	t.Run("Should prefer the header over the cookie", func(t *testing.T) {
		w := do(func(req *http.Request) {
			req.Header.Set("Authorization", "Bearer good")
			req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "cookie"})
		})
		assert.Equal(t, "user_1", w.Body.String())
	})

	t.Run("Should pass invalid tokens through as anonymous", func(t *testing.T) {
		w := do(func(req *http.Request) { req.Header.Set("Authorization", "Bearer forged") })
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("Should not call the verifier without a token", func(t *testing.T) {
		before := verifier.calls
		w := do(func(req *http.Request) {})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Body.String())
		assert.Equal(t, before, verifier.calls)
	})
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/id", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(string(domain.KeyRequestID)))
	})

	t.Run("Should keep a valid incoming id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set("X-Request-ID", "3f1c9b0e-8a4d-4e8e-9f4a-7c2b1d0e5a6f")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, "3f1c9b0e-8a4d-4e8e-9f4a-7c2b1d0e5a6f", w.Body.String())
		assert.Equal(t, w.Body.String(), w.Header().Get("X-Request-ID"))
	})

	t.Run("Should replace malformed ids", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/id", nil)
		req.Header.Set("X-Request-ID", "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Body.String())
		assert.Len(t, w.Body.String(), 36)
	})
}

func TestCORSMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CORSMiddleware([]string{"https://app.test"}, true))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("Should allow configured origins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "https://app.test")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "https://app.test", w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("Should reject localhost in production", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/x", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func limitedRouter(client *goredis.Client, limit int) *gin.Engine {
	r := gin.New()
	r.Use(RateLimitMiddleware(client, InternalRateLimitConfig(limit, time.Minute)))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func hit(r *gin.Engine) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("Should reject requests over the redis window", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer client.Close()
		require.NoError(t, client.Ping(context.Background()).Err())
		r := limitedRouter(client, 2)

		assert.Equal(t, http.StatusOK, hit(r).Code)
		assert.Equal(t, http.StatusOK, hit(r).Code)
		w := hit(r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.NotEmpty(t, w.Header().Get("Retry-After"))
		assert.True(t, mr.Exists("rl:internal:10.0.0.1"))
	})

	t.Run("Should start a new window after expiry", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
		defer client.Close()
		require.NoError(t, client.Ping(context.Background()).Err())
		r := limitedRouter(client, 1)

		assert.Equal(t, http.StatusOK, hit(r).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)
		mr.FastForward(2 * time.Minute)
		assert.Equal(t, http.StatusOK, hit(r).Code)
	})

	t.Run("Should limit in process without redis", func(t *testing.T) {
		r := limitedRouter(nil, 2)

		assert.Equal(t, http.StatusOK, hit(r).Code)
		assert.Equal(t, http.StatusOK, hit(r).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)
	})

	t.Run("Should treat a non-positive limit as one request per window", func(t *testing.T) {
		r := gin.New()
		r.Use(RateLimitMiddleware(nil, InternalRateLimitConfig(0, 0)))
		r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

		require.NotPanics(t, func() { hit(r) })
		w := hit(r)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Equal(t, "1", w.Header().Get("X-RateLimit-Limit"))
	})

	t.Run("Should fall back when redis is down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		client := goredis.NewClient(&goredis.Options{Addr: mr.Addr(), MaxRetries: -1})
		defer client.Close()
		mr.Close()
		r := limitedRouter(client, 1)

		assert.Equal(t, http.StatusOK, hit(r).Code)
		assert.Equal(t, http.StatusTooManyRequests, hit(r).Code)
	})
}

func TestCSRFMiddleware(t *testing.T) {
	r := gin.New()
	r.Use(CSRFMiddleware([]string{"https://app.test"}))
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	do := func(method string, setup func(*http.Request)) int {
		req := httptest.NewRequest(method, "/x", nil)
		setup(req)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}
	withCookie := func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "tok"})
	}

	t.Run("Should allow cookie posts from the frontend origin", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodPost, func(req *http.Request) {
			withCookie(req)
			req.Header.Set("Origin", "https://app.test")
		}))
	})

	t.Run("Should accept the referer when origin is missing", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodPost, func(req *http.Request) {
			withCookie(req)
			req.Header.Set("Referer", "https://app.test/en/onboarding")
		}))
	})

	t.Run("Should reject cookie posts from foreign origins", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(http.MethodPost, func(req *http.Request) {
			withCookie(req)
			req.Header.Set("Origin", "https://evil.test")
		}))
	})

	t.Run("Should reject cookie posts without any origin", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, do(http.MethodPost, withCookie))
	})

	t.Run("Should exempt bearer requests and safe methods", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodPost, func(req *http.Request) {
			withCookie(req)
			req.Header.Set("Authorization", "Bearer tok")
		}))
		assert.Equal(t, http.StatusOK, do(http.MethodGet, withCookie))
		assert.Equal(t, http.StatusOK, do(http.MethodPost, func(req *http.Request) {}))
	})
}
