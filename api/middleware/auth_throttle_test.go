package middleware

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	mu     sync.Mutex
	counts map[string]int64
	err    error
}

func newCountingStore() *countingStore {
	return &countingStore{counts: map[string]int64{}}
}

func (s *countingStore) FixedWindowAllow(_ context.Context, scope string, limit int64, _ time.Duration) (bool, int64, error) {
	if s.err != nil {
		return false, 0, s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counts[scope]++
	return s.counts[scope] <= limit, s.counts[scope], nil
}

func (s *countingStore) keysWithPrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var keys []string
	for k := range s.counts {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys
}

func throttled(rule ThrottleRule, store rateLimiterStore, seen *[]string) http.Handler {
	return Throttle(rule, store, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*seen = append(*seen, string(body))
		w.WriteHeader(http.StatusOK)
	}))
}

func post(h http.Handler, path, ip, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.RemoteAddr = ip + ":40100"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestThrottleLoginLimitsPerAccountAcrossIPs(t *testing.T) {
	store := newCountingStore()
	var seen []string
	h := throttled(ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 20, PerAccount: 2}, store, &seen)
	body := `{"email":"  NOC@NetStore.vn ","password":"wrong"}`

	assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/login", "10.0.0.1", body).Code)
	assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/login", "10.0.0.2", `{"email":"noc@netstore.vn","password":"x"}`).Code)
	rec := post(h, "/api/v1/auth/login", "10.0.0.3", body)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "RATE_LIMIT_EXCEEDED")
	require.Len(t, seen, 2)
	assert.Equal(t, body, seen[0], "handler must still see the original body")
	assert.Len(t, store.keysWithPrefix("login:account:"), 1, "email is normalized before hashing")
	for _, k := range store.keysWithPrefix("login:account:") {
		assert.NotContains(t, k, "netstore.vn")
	}
}

func TestThrottleRegisterLimitsPerIP(t *testing.T) {
	store := newCountingStore()
	var seen []string
	h := throttled(ThrottleRule{Scope: "register", Window: 5 * time.Minute, PerIP: 1, PerAccount: 3}, store, &seen)

	assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/register", "203.0.113.9", `{"email":"a@shop.vn"}`).Code)
	rec := post(h, "/api/v1/auth/register", "203.0.113.9", `{"email":"b@shop.vn"}`)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))
	assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/register", "203.0.113.10", `{"email":"b@shop.vn"}`).Code)
}

func TestThrottleGoogleCountsOnlyByIP(t *testing.T) {
	store := newCountingStore()
	var seen []string
	h := throttled(ThrottleRule{Scope: "google", Window: time.Minute, PerIP: 2}, store, &seen)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/google", "198.51.100.4", `{"id_token":"eyJ..."}`).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, post(h, "/api/v1/auth/google", "198.51.100.4", `{"id_token":"eyJ..."}`).Code)
	assert.Empty(t, store.keysWithPrefix("google:account:"))
	assert.Equal(t, []string{"google:ip:198.51.100.4"}, store.keysWithPrefix("google:"))
}

func TestThrottleStoreFailureIsDependencyError(t *testing.T) {
	store := newCountingStore()
	store.err = errors.New("redis: connection refused")
	var seen []string
	h := throttled(ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 5}, store, &seen)

	rec := post(h, "/api/v1/auth/login", "10.0.0.1", `{"email":"noc@netstore.vn"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, seen)
}

func TestThrottleDisabledWithoutStoreOrWindow(t *testing.T) {
	var seen []string
	for _, h := range []http.Handler{
		throttled(ThrottleRule{Scope: "login", Window: time.Minute, PerIP: 1}, nil, &seen),
		throttled(ThrottleRule{Scope: "login", PerIP: 1}, newCountingStore(), &seen),
	} {
		for i := 0; i < 3; i++ {
			assert.Equal(t, http.StatusOK, post(h, "/api/v1/auth/login", "10.0.0.1", `{}`).Code)
		}
	}
}
