package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/mcn-showcase/pkg/config"
	"github.com/angelmondragon/mcn-showcase/pkg/logger"
)

const cartSessionHeader = "X-Cart-Session"

// CartSession resolves the anonymous cart session from the cookie or the X-Cart-Session
// header, minting a new one when neither carries a valid id. The id is echoed back in both.
func CartSession(cfg config.SessionConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := cartSessionFromRequest(r, cfg.CookieName)
			if sessionID == "" {
				sessionID = uuid.NewString()
			}

			http.SetCookie(w, &http.Cookie{
				Name:     cfg.CookieName,
				Value:    sessionID,
				Path:     "/",
				MaxAge:   int(cfg.IdleTTL.Seconds()),
				HttpOnly: true,
				Secure:   cfg.CookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
			w.Header().Set(cartSessionHeader, sessionID)

			ctx := WithCartSession(r.Context(), sessionID)
			if logg != nil {
				ctx = logg.WithCartSession(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func cartSessionFromRequest(r *http.Request, cookieName string) string {
	candidates := []string{r.Header.Get(cartSessionHeader)}
	if c, err := r.Cookie(cookieName); err == nil {
		candidates = append([]string{c.Value}, candidates...)
	}
	for _, raw := range candidates {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if id, err := uuid.Parse(raw); err == nil {
			return id.String()
		}
	}
	return ""
}
