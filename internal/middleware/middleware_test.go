package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/quizhub-backend/internal/model"
	"github.com/stemsi/quizhub-backend/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeAuth struct {
	users map[string]*model.User
	err   error
}

func (f *fakeAuth) Authenticate(_ context.Context, token string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, service.ErrTokenInvalid
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error *struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body %q: %v", w.Body.String(), err)
	}
	if body.Error == nil {
		return ""
	}
	return body.Error.Code
}

func TestRequireAuth(t *testing.T) {
	master := &model.User{ID: uuid.New(), Name: "Grace", Role: model.RoleQuizMaster}
	auth := &fakeAuth{users: map[string]*model.User{"good": master}}

	r := gin.New()
	r.GET("/me", RequireAuth(auth), func(c *gin.Context) {
		c.String(http.StatusOK, GetUser(c).Name)
	})

	tests := []struct {
		name     string
		header   string
		query    string
		wantCode int
		wantErr  string
	}{
		{"bearer header", "Bearer good", "", http.StatusOK, ""},
		{"lowercase scheme", "bearer good", "", http.StatusOK, ""},
		{"query token", "", "good", http.StatusOK, ""},
		{"missing", "", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"wrong scheme", "Basic good", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"invalid", "Bearer bad", "", http.StatusUnauthorized, "TOKEN_INVALID"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target := "/me"
			if tt.query != "" {
				target += "?token=" + tt.query
			}
			req := httptest.NewRequest(http.MethodGet, target, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d (%s)", tt.wantCode, w.Code, w.Body.String())
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Fatalf("expected error %s, got %s", tt.wantErr, got)
				}
			} else if w.Body.String() != "Grace" {
				t.Fatalf("expected user name in body, got %q", w.Body.String())
			}
		})
	}
}

func TestRequireAuthExpiredAndBackendFailure(t *testing.T) {
	tests := []struct {
		err      error
		wantCode int
		wantErr  string
	}{
		{service.ErrTokenExpired, http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{errors.New("db down"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tt := range tests {
		r := gin.New()
		r.GET("/me", RequireAuth(&fakeAuth{err: tt.err}), func(c *gin.Context) {
			c.Status(http.StatusOK)
		})
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer x")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tt.wantCode {
			t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
		}
		if got := errorCode(t, w); got != tt.wantErr {
			t.Fatalf("expected error %s, got %s", tt.wantErr, got)
		}
	}
}

func TestRequireRole(t *testing.T) {
	withUser := func(u *model.User) gin.HandlerFunc {
		return func(c *gin.Context) {
			if u != nil {
				c.Set(ContextKeyUser, u)
			}
			c.Next()
		}
	}

	tests := []struct {
		name     string
		user     *model.User
		wantCode int
		wantErr  string
	}{
		{"quiz master", &model.User{Role: model.RoleQuizMaster}, http.StatusOK, ""},
		{"general user", &model.User{Role: model.RoleGeneral}, http.StatusForbidden, "QUIZ_MASTER_ONLY"},
		{"anonymous", nil, http.StatusUnauthorized, "TOKEN_REQUIRED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/manage", withUser(tt.user), RequireRole(model.RoleQuizMaster), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/manage", nil))

			if w.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, w.Code)
			}
			if tt.wantErr != "" {
				if got := errorCode(t, w); got != tt.wantErr {
					t.Fatalf("expected error %s, got %s", tt.wantErr, got)
				}
			}
		})
	}
}

func TestRateLimiterPerKey(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl := NewRateLimiter(ctx, 2, time.Minute, nil)
	clock := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return clock }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("expected first two requests to pass")
	}
	if rl.Allow("a") {
		t.Fatal("expected third request to be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("expected a separate bucket for another key")
	}

	clock = clock.Add(time.Minute)
	if !rl.Allow("a") {
		t.Fatal("expected bucket to refill after the interval")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	user := &model.User{ID: uuid.New()}
	rl := NewRateLimiter(ctx, 1, time.Minute, UserKey)

	r := gin.New()
	r.POST("/import", func(c *gin.Context) {
		c.Set(ContextKeyUser, user)
		c.Next()
	}, rl.Middleware(), func(c *gin.Context) {
		c.Status(http.StatusCreated)
	})

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/import", nil))
	if first.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/import", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.Code)
	}
	if second.Header().Get("Retry-After") != "60" {
		t.Fatalf("expected Retry-After 60, got %q", second.Header().Get("Retry-After"))
	}
	if got := errorCode(t, second); got != "RATE_LIMIT_EXCEEDED" {
		t.Fatalf("expected RATE_LIMIT_EXCEEDED, got %s", got)
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	large := strings.Repeat("### Question\n", 400)

	r := gin.New()
	r.Use(Brotli())
	r.GET("/large", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(large))
	})
	r.GET("/small", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/binary", func(c *gin.Context) {
		c.Data(http.StatusOK, "image/png", bytes.Repeat([]byte{0x89}, 4096))
	})

	req := httptest.NewRequest(http.MethodGet, "/large", nil)
	req.Header.Set("Accept-Encoding", "gzip, br")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, got %q", w.Header().Get("Content-Encoding"))
	}
	decoded, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if string(decoded) != large {
		t.Fatalf("decoded body mismatch: got %d bytes", len(decoded))
	}

	for _, path := range []string{"/small", "/binary"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Accept-Encoding", "br")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Header().Get("Content-Encoding") != "" {
			t.Fatalf("%s: expected no encoding, got %q", path, w.Header().Get("Content-Encoding"))
		}
	}
}

func TestCacheHeaders(t *testing.T) {
	r := gin.New()
	r.GET("/board", CacheControl(30*time.Second), func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/attempt", NoStore(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/board", nil))
	if got := w.Header().Get("Cache-Control"); got != "private, max-age=30" {
		t.Fatalf("expected private max-age, got %q", got)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/attempt", nil))
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
}
