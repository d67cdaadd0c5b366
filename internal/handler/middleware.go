package handler

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// HeaderNRIC carries the authenticated actor's NRIC.
const HeaderNRIC = "X-NRIC"

type ctxKey int

const actorKey ctxKey = iota

// ActorFrom returns the actor attached by Authenticate.
func ActorFrom(ctx context.Context) (model.User, bool) {
	u, ok := ctx.Value(actorKey).(model.User)
	return u, ok
}

// Logger writes one structured access line per request.
func Logger(log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				log.Info("http request",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Int("status", ww.Status()),
					zap.Int("bytes", ww.BytesWritten()),
					zap.Duration("duration", time.Since(start)),
					zap.String("request_id", chimiddleware.GetReqID(r.Context())),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// CORS allows browser clients on any origin to call the API.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, "+HeaderNRIC)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// limiterIdleTTL is how long a client's bucket survives without requests.
const limiterIdleTTL = 10 * time.Minute

// RateLimiter throttles requests per client address. It runs before
// authentication, so it never trusts the caller-supplied NRIC header.
type RateLimiter struct {
	mu        sync.Mutex
	limiters  map[string]*clientLimiter
	rate      rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
	log       *zap.Logger
}

type clientLimiter struct {
	*rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter allows rps requests per second per client with the given
// burst.
func NewRateLimiter(rps float64, burst int, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(rps),
		burst:    burst,
		idle:     limiterIdleTTL,
		now:      time.Now,
		log:      log,
	}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	if now.Sub(rl.lastSweep) >= rl.idle {
		for k, l := range rl.limiters {
			if now.Sub(l.lastSeen) >= rl.idle {
				delete(rl.limiters, k)
			}
		}
		rl.lastSweep = now
	}
	l, ok := rl.limiters[key]
	if !ok {
		l = &clientLimiter{Limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = l
	}
	l.lastSeen = now
	return l.Limiter
}

// clientKey is the request's remote host. RealIP has already replaced
// RemoteAddr with the forwarded address when one is present.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Handler is the rate limiting middleware.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !rl.limiter(key).Allow() {
			rl.log.Warn("rate limit exceeded", zap.String("client", key), zap.String("path", r.URL.Path))
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Resolver maps an NRIC to its actor.
type Resolver func(ctx context.Context, nric string) (model.User, error)

// Authenticate validates the X-NRIC header and attaches the resolved actor
// to the request context.
func Authenticate(resolve Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nric := strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderNRIC)))
			if !model.ValidNRIC(nric) {
				writeError(w, http.StatusUnauthorized, "missing or malformed "+HeaderNRIC+" header")
				return
			}
			actor, err := resolve(r.Context(), nric)
			if err != nil {
				if errors.Is(err, model.ErrNotFound) {
					writeError(w, http.StatusUnauthorized, "unknown user")
					return
				}
				writeError(w, http.StatusInternalServerError, "failed to resolve user")
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), actorKey, actor)))
		})
	}
}
