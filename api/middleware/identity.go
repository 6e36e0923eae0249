package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/bulkwear-backend/api/responses"
	"github.com/angelmondragon/bulkwear-backend/internal/identity"
	pkgAuth "github.com/angelmondragon/bulkwear-backend/pkg/auth"
	"github.com/angelmondragon/bulkwear-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/bulkwear-backend/pkg/errors"
	"github.com/angelmondragon/bulkwear-backend/pkg/logger"
)

// Identity resolves the caller. A bearer token yields a user identity and an
// invalid token is rejected. Without a token the anonymous session cookie is
// used, and minted when absent.
func Identity(jwtCfg config.JWTConfig, cartCfg config.CartConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := cartCfg.CookieName
	if cookieName == "" {
		cookieName = "session_id"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var owner identity.Identity
			if token := bearerToken(r); token != "" {
				claims, err := pkgAuth.ParseAccessToken(jwtCfg, token)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
					return
				}
				owner = identity.User(claims.UserID, claims.Role)
				if logg != nil {
					ctx = logg.WithUserID(ctx, claims.UserID.String())
					ctx = logg.WithActorRole(ctx, string(owner.Role()))
				}
			} else {
				token := sessionCookie(r, cookieName)
				if token == "" {
					token = identity.NewSessionToken()
					http.SetCookie(w, &http.Cookie{
						Name:     cookieName,
						Value:    token,
						Path:     "/",
						MaxAge:   int(cartCfg.CookieMaxAge.Seconds()),
						HttpOnly: true,
						Secure:   cartCfg.CookieSecure,
						SameSite: http.SameSiteLaxMode,
					})
				}
				owner = identity.Anonymous(token)
				if logg != nil {
					ctx = logg.WithField(ctx, "owner", owner.String())
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, owner)))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

func sessionCookie(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(cookie.Value)
}
