package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/cakehouse/storefront/api/responses"
	pkgAuth "github.com/cakehouse/storefront/pkg/auth"
	"github.com/cakehouse/storefront/pkg/config"
	pkgerrors "github.com/cakehouse/storefront/pkg/errors"
	"github.com/cakehouse/storefront/pkg/logger"
)

// SessionTokenHeader carries the session token for clients without cookies.
const SessionTokenHeader = "X-Session-Token"

// Session binds every request to a basket session. A valid signed token from
// the cookie or SessionTokenHeader is reused; anything else starts a fresh
// session and issues a new token on the response.
func Session(cfg config.SessionConfig, logg *logger.Logger, now func() time.Time) func(http.Handler) http.Handler {
	if now == nil {
		now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			sessionID := ""
			if raw := sessionToken(r, cfg.CookieName); raw != "" {
				claims, err := pkgAuth.ParseSessionToken(cfg, raw)
				if err == nil {
					sessionID = claims.SessionID.String()
				} else if logg != nil {
					logg.Warn(logg.WithField(ctx, "reason", err.Error()), "session.token_rejected")
				}
			}

			if sessionID == "" {
				id := uuid.New()
				token, err := pkgAuth.MintSessionToken(cfg, now(), id)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session"))
					return
				}
				sessionID = id.String()
				http.SetCookie(w, &http.Cookie{
					Name:     cfg.CookieName,
					Value:    token,
					Path:     "/",
					Expires:  now().Add(cfg.TTL),
					HttpOnly: true,
					Secure:   cfg.CookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
				w.Header().Set(SessionTokenHeader, token)
			}

			ctx = WithSessionID(ctx, sessionID)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, sessionID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionToken(r *http.Request, cookieName string) string {
	if raw := strings.TrimSpace(r.Header.Get(SessionTokenHeader)); raw != "" {
		return raw
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
