package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/quizops/quizops-api/internal/pkg/jwt"
	"github.com/quizops/quizops-api/internal/pkg/response"
)

// InternalAuth guards the /internal API surface. A request is let through
// when it carries either the static internal API token or a valid ops
// session JWT. Everything else is a 403: the console treats that as an
// expired session and forces re-login.
func InternalAuth(internalToken string, sessions *jwt.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if cookie, err := r.Cookie("ops_session"); err == nil {
					token = cookie.Value
				}
			}

			if token == "" {
				log.Warn().
					Str("path", r.URL.Path).
					Str("ip", ClientIP(r)).
					Msg("internal auth failed: no credentials")
				response.Forbidden(w)
				return
			}

			if internalToken != "" && subtle.ConstantTimeCompare([]byte(token), []byte(internalToken)) == 1 {
				next.ServeHTTP(w, r)
				return
			}

			if _, err := sessions.ValidateSessionToken(token); err != nil {
				log.Warn().
					Str("path", r.URL.Path).
					Str("ip", ClientIP(r)).
					Msg("internal auth failed: invalid credentials")
				response.Forbidden(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
