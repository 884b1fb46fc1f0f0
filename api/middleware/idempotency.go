package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/mcn-showcase/api/responses"
	pkgerrors "github.com/angelmondragon/mcn-showcase/pkg/errors"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
	pkgredis "github.com/angelmondragon/mcn-showcase/pkg/redis"
)

const (
	idempotencyHeader = "Idempotency-Key"

	accountReplayTTL = 24 * time.Hour
	orderReplayTTL   = 7 * 24 * time.Hour

	maxIdempotencyKeyLen = 128
)

// replayRoute guards one POST endpoint. Patterns come from chi, so path params stay
// templated ("{catalog}") and a Route+Post("/") pair may carry a trailing slash.
type replayRoute struct {
	prefix string
	suffix string
	ttl    time.Duration
}

func (rr replayRoute) matches(pattern string) bool {
	pattern = strings.TrimSuffix(pattern, "/")
	if rr.suffix == "" {
		return pattern == rr.prefix
	}
	return strings.HasPrefix(pattern, rr.prefix) && strings.HasSuffix(pattern, rr.suffix)
}

var replayRoutes = []replayRoute{
	{prefix: "/api/v1/auth/register", ttl: accountReplayTTL},
	{prefix: "/api/admin/v1/artworks", ttl: accountReplayTTL},
	{prefix: "/api/v1/shop/", suffix: "/checkout/submit", ttl: orderReplayTTL},
}

// replayRecord is what the store holds under a key. A record without a status is a claim
// taken by a request that has not finished yet.
type replayRecord struct {
	RequestHash string `json:"request_hash"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        string `json:"body,omitempty"`
}

func (rec replayRecord) pending() bool {
	return rec.Status == 0
}

var (
	errKeyReused  = pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body")
	errKeyInUse   = pkgerrors.New(pkgerrors.CodeIdempotency, "a request with this idempotency key is still running")
	errKeyTooLong = pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key too long")
)

// Idempotency replays the stored response when a request on a guarded route repeats its
// Idempotency-Key. Requests without a key, or without a store, run normally.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := replayTTL(r.Method, routePattern(r))
			clientKey := strings.TrimSpace(r.Header.Get(idempotencyHeader))
			if !guarded || store == nil || clientKey == "" {
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(r.Context(), logg, w, errKeyTooLong)
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read request body"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			ctx := r.Context()
			key := store.IdempotencyKey(replayScope(r), clientKey)
			claim := replayRecord{RequestHash: fingerprint(body)}

			existing, err := loadRecord(r, store, key)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if existing != nil {
				switch {
				case existing.RequestHash != claim.RequestHash:
					responses.WriteError(ctx, logg, w, errKeyReused)
				case existing.pending():
					responses.WriteError(ctx, logg, w, errKeyInUse)
				default:
					replay(w, existing)
				}
				return
			}

			payload, _ := json.Marshal(claim)
			claimed, err := store.SetNX(ctx, key, string(payload), ttl)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim idempotency key"))
				return
			}
			if !claimed {
				responses.WriteError(ctx, logg, w, errKeyInUse)
				return
			}

			capture := &responseCapture{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			status := capture.statusOrOK()
			if status < 200 || status >= 300 {
				// rejections depend on cart state; the next attempt must run again
				if delErr := store.Del(ctx, key); delErr != nil && logg != nil {
					logg.Error(ctx, "release idempotency key", delErr)
				}
				return
			}

			claim.Status = status
			claim.ContentType = capture.Header().Get("Content-Type")
			claim.Body = base64.StdEncoding.EncodeToString(capture.body.Bytes())
			payload, err = json.Marshal(claim)
			if err == nil {
				err = store.Set(ctx, key, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(ctx, "persist idempotency record", err)
			}
		})
	}
}

func loadRecord(r *http.Request, store pkgredis.IdempotencyStore, key string) (*replayRecord, error) {
	raw, err := store.Get(r.Context(), key)
	if errors.Is(err, pkgredis.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency")
	}
	var rec replayRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record")
	}
	return &rec, nil
}

func replay(w http.ResponseWriter, rec *replayRecord) {
	if rec.ContentType != "" {
		w.Header().Set("Content-Type", rec.ContentType)
	}
	w.Header().Set("Idempotent-Replayed", "true")
	w.WriteHeader(rec.Status)
	if body, err := base64.StdEncoding.DecodeString(rec.Body); err == nil {
		_, _ = w.Write(body)
	}
}

// replayScope keeps keys from colliding across visitors: an anonymous visitor is scoped
// by cart session, a signed-in one by user id as well.
func replayScope(r *http.Request) string {
	ctx := r.Context()
	return strings.Join([]string{
		UserIDFromContext(ctx),
		CartSessionFromContext(ctx),
		r.Method,
		r.URL.Path,
	}, "|")
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func replayTTL(method, pattern string) (time.Duration, bool) {
	if method != http.MethodPost || pattern == "" {
		return 0, false
	}
	for _, route := range replayRoutes {
		if route.matches(pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

type responseCapture struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *responseCapture) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *responseCapture) Write(b []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *responseCapture) statusOrOK() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
