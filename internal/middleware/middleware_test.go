package middleware

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stemsi/exstem-learn/internal/service"
)

type stubValidator map[string]*service.Claims

func (s stubValidator) ValidateToken(tok string) (*service.Claims, error) {
	if tok == "expired" {
		return nil, fmt.Errorf("parse token: %w", jwt.ErrTokenExpired)
	}
	if c, ok := s[tok]; ok {
		return c, nil
	}
	return nil, errors.New("bad token")
}

type stubSessions struct{ live string }

func (s stubSessions) ValidateLearnerSession(_ context.Context, _ int, jti string) error {
	if jti != s.live {
		return service.ErrSessionInvalidated
	}
	return nil
}

func learnerClaims(id int, jti string) *service.Claims {
	c := &service.Claims{TokenType: service.TokenTypeLearner, UserID: id}
	c.ID = jti
	return c
}

func newEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append(mw, func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			c.String(http.StatusOK, "anon")
			return
		}
		c.String(http.StatusOK, "learner %d", claims.UserID)
	})
	r.GET("/x", handlers...)
	return r
}

func doGet(r http.Handler, url string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, url, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireLearnerJWT(t *testing.T) {
	tv := stubValidator{
		"good":  learnerClaims(42, "j1"),
		"admin": {TokenType: "admin", UserID: 1},
	}
	r := newEngine(RequireLearnerJWT(tv))

	cases := []struct {
		name   string
		header string
		status int
		body   string
	}{
		{"missing", "", http.StatusUnauthorized, "TOKEN_REQUIRED"},
		{"invalid", "Bearer nope", http.StatusUnauthorized, "TOKEN_INVALID"},
		{"expired", "Bearer expired", http.StatusUnauthorized, "TOKEN_EXPIRED"},
		{"wrong audience", "Bearer admin", http.StatusForbidden, "LEARNER_ACCESS_ONLY"},
		{"ok", "bearer good", http.StatusOK, "learner 42"},
	}
	for _, tc := range cases {
		w := doGet(r, "/x", map[string]string{"Authorization": tc.header})
		if w.Code != tc.status || !strings.Contains(w.Body.String(), tc.body) {
			t.Fatalf("%s: got %d %s", tc.name, w.Code, w.Body.String())
		}
	}
}

func TestRequireLearnerWSAuthReadsQuery(t *testing.T) {
	r := newEngine(RequireLearnerWSAuth(stubValidator{"good": learnerClaims(7, "j")}))

	if w := doGet(r, "/x?token=good", nil); w.Code != http.StatusOK || w.Body.String() != "learner 7" {
		t.Fatalf("query token: got %d %s", w.Code, w.Body.String())
	}
	if w := doGet(r, "/x", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: got %d", w.Code)
	}
}

func TestRequireActiveSession(t *testing.T) {
	tv := stubValidator{"old": learnerClaims(42, "j-old"), "new": learnerClaims(42, "j-new")}
	r := newEngine(RequireLearnerJWT(tv), RequireActiveSession(stubSessions{live: "j-new"}))

	if w := doGet(r, "/x", map[string]string{"Authorization": "Bearer new"}); w.Code != http.StatusOK {
		t.Fatalf("live token rejected: %d", w.Code)
	}
	w := doGet(r, "/x", map[string]string{"Authorization": "Bearer old"})
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "SESSION_INVALIDATED") {
		t.Fatalf("replaced token: got %d %s", w.Code, w.Body.String())
	}
}

func TestRateLimiterRefills(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	now := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(ctx, 2, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.allow("a") || !rl.allow("a") {
		t.Fatal("first two requests should pass")
	}
	if rl.allow("a") {
		t.Fatal("third request within the interval should be limited")
	}
	if !rl.allow("b") {
		t.Fatal("visitors are limited independently")
	}

	now = now.Add(time.Minute)
	if !rl.allow("a") {
		t.Fatal("bucket should refill after an interval")
	}

	now = now.Add(10 * time.Minute)
	rl.cleanup()
	if len(rl.visitors) != 0 {
		t.Fatalf("stale visitors not swept: %d", len(rl.visitors))
	}
}

func TestRateLimiterMiddlewareKeysByLearner(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tv := stubValidator{"a": learnerClaims(1, "x"), "b": learnerClaims(2, "y")}
	rl := NewRateLimiter(ctx, 1, time.Hour)
	r := newEngine(RequireLearnerJWT(tv), rl.Middleware())

	if w := doGet(r, "/x", map[string]string{"Authorization": "Bearer a"}); w.Code != http.StatusOK {
		t.Fatalf("first: %d", w.Code)
	}
	if w := doGet(r, "/x", map[string]string{"Authorization": "Bearer a"}); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second: %d", w.Code)
	}
	if w := doGet(r, "/x", map[string]string{"Authorization": "Bearer b"}); w.Code != http.StatusOK {
		t.Fatalf("other learner on the same IP: %d", w.Code)
	}
}

func TestBrotliCompressesLargeBodies(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Brotli())
	big := strings.Repeat("question ", 500)
	r.GET("/big", func(c *gin.Context) { c.String(http.StatusOK, big) })
	r.GET("/small", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	w := doGet(r, "/big", map[string]string{"Accept-Encoding": "gzip, br"})
	if w.Header().Get("Content-Encoding") != "br" {
		t.Fatalf("expected br encoding, headers=%v", w.Header())
	}
	plain, err := io.ReadAll(brotli.NewReader(w.Body))
	if err != nil || string(plain) != big {
		t.Fatalf("round trip failed: %v", err)
	}

	w = doGet(r, "/small", map[string]string{"Accept-Encoding": "br"})
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != "ok" {
		t.Fatalf("small body should pass through, got %q %v", w.Body.String(), w.Header())
	}

	w = doGet(r, "/big", nil)
	if w.Header().Get("Content-Encoding") != "" || w.Body.String() != big {
		t.Fatal("clients without br must get plain bodies")
	}
}

func TestNoStore(t *testing.T) {
	w := doGet(newEngine(NoStore()), "/x", nil)
	if w.Header().Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", w.Header().Get("Cache-Control"))
	}
}
