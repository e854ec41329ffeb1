package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/netstore-backend/api/responses"
	pkgerrors "github.com/angelmondragon/netstore-backend/pkg/errors"
	"github.com/angelmondragon/netstore-backend/pkg/logger"
)

// peekLimit bounds how much of an auth body is buffered to find the email.
const peekLimit = 16 << 10

type rateLimiterStore interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// ThrottleRule limits one auth surface. PerIP counts requests per client
// address; PerAccount counts per hashed email and is left at zero for Google
// sign-in, whose body carries a one-time ID token instead.
type ThrottleRule struct {
	Scope      string
	Window     time.Duration
	PerIP      int
	PerAccount int
}

type throttleCounter struct {
	key   string
	limit int
	kind  string
}

func (r ThrottleRule) counters(ip, accountHash string) []throttleCounter {
	var out []throttleCounter
	if r.PerIP > 0 && ip != "" {
		out = append(out, throttleCounter{key: r.Scope + ":ip:" + ip, limit: r.PerIP, kind: "ip"})
	}
	if r.PerAccount > 0 && accountHash != "" {
		out = append(out, throttleCounter{key: r.Scope + ":account:" + accountHash, limit: r.PerAccount, kind: "account"})
	}
	return out
}

// Throttle rejects requests over rule's limits with 429 and a Retry-After
// header. It is a no-op without a store or with a zero window.
func Throttle(rule ThrottleRule, store rateLimiterStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if store == nil || rule.Window <= 0 || (rule.PerIP <= 0 && rule.PerAccount <= 0) {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			accountHash := ""
			if rule.PerAccount > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, peekLimit))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
					return
				}
				r.Body = io.NopCloser(io.MultiReader(bytes.NewReader(body), r.Body))
				accountHash = hashedEmail(body)
			}

			for _, c := range rule.counters(remoteHost(r), accountHash) {
				allowed, count, err := store.FixedWindowAllow(ctx, c.key, int64(c.limit), rule.Window)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rate limiter unavailable"))
					return
				}
				if !allowed {
					if logg != nil {
						logg.Warn(logg.WithFields(ctx, map[string]any{
							"scope":    rule.Scope,
							"counter":  c.kind,
							"attempts": count,
							"limit":    c.limit,
						}), "auth.throttled")
					}
					w.Header().Set("Retry-After", strconv.Itoa(int(rule.Window.Seconds())))
					responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many attempts, try again later"))
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteHost expects chi's RealIP middleware to have rewritten RemoteAddr.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

func hashedEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	email := strings.ToLower(strings.TrimSpace(payload.Email))
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:12])
}
