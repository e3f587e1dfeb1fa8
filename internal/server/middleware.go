package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/desertthunder/foodgram/internal/repositories"
	"github.com/desertthunder/foodgram/internal/shared"
)

type contextKey int

const userKey contextKey = iota

// UserFrom returns the authenticated user of the request, or nil for anonymous requests.
func UserFrom(ctx context.Context) *models.User {
	user, _ := ctx.Value(userKey).(*models.User)
	return user
}

// WithUser returns a copy of ctx carrying user.
func WithUser(ctx context.Context, user *models.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// requireUser returns the authenticated user or [shared.ErrNotAuthenticated].
func requireUser(r *http.Request) (*models.User, error) {
	if user := UserFrom(r.Context()); user != nil {
		return user, nil
	}
	return nil, shared.ErrNotAuthenticated
}

// viewerID is the id of the authenticated user, or 0 when anonymous.
func viewerID(r *http.Request) int64 {
	if user := UserFrom(r.Context()); user != nil {
		return user.ID()
	}
	return 0
}

// RequestLogger logs one line per request with its status, size and duration.
func RequestLogger(logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			kv := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			}
			switch {
			case status >= 500:
				logger.Error("request", kv...)
			case status >= 400:
				logger.Warn("request", kv...)
			default:
				logger.Info("request", kv...)
			}
		})
	}
}

// TokenAuth resolves "Authorization: Token <key>" to a user stored in the request context.
// Requests without the header continue anonymously; unknown keys are rejected with 401.
func TokenAuth(store *repositories.Store, logger *log.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := tokenFromHeader(r.Header.Get("Authorization"))
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := store.Tokens.UserID(key)
			if err != nil {
				writeError(w, r, logger, err)
				return
			}

			user, err := store.Users.Get(userID)
			if errors.Is(err, shared.ErrNotFound) {
				writeError(w, r, logger, shared.ErrInvalidToken)
				return
			}
			if err != nil {
				writeError(w, r, logger, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func tokenFromHeader(header string) (string, bool) {
	scheme, key, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Token") {
		return "", false
	}
	key = strings.TrimSpace(key)
	return key, key != ""
}

const loginLimiterTTL = 10 * time.Minute

// LoginLimiter throttles login attempts per email address with a token bucket per key.
type LoginLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*loginEntry
	now      func() time.Time
}

type loginEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter allows burst attempts per email, refilled at perSecond.
// A non-positive rate disables throttling.
func NewLoginLimiter(perSecond float64, burst int) *LoginLimiter {
	return &LoginLimiter{
		limit:    rate.Limit(perSecond),
		burst:    max(burst, 1),
		limiters: make(map[string]*loginEntry),
		now:      time.Now,
	}
}

// Allow reports whether another attempt for key may proceed now.
func (l *LoginLimiter) Allow(key string) bool {
	if l.limit <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, e := range l.limiters {
		if now.Sub(e.lastSeen) > loginLimiterTTL {
			delete(l.limiters, k)
		}
	}

	e, ok := l.limiters[key]
	if !ok {
		e = &loginEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = e
	}
	e.lastSeen = now
	return e.limiter.AllowN(now, 1)
}
