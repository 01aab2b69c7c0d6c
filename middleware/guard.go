package middleware

import (
	"context"
	"net/http"

	"github.com/platewise/authgate"
)

type authResultContextKey struct{}

// AuthResultFromContext returns the validation result a guard stored for the
// current request.
func AuthResultFromContext(ctx context.Context) (*authgate.AuthResult, bool) {
	res, ok := ctx.Value(authResultContextKey{}).(*authgate.AuthResult)
	return res, ok
}

// Guard returns middleware that rejects requests without a valid access
// token. The token is taken from the Authorization header when present,
// otherwise from the session cookie. On success the result is placed in the
// request context for [AuthResultFromContext].
func Guard(engine *authgate.Engine) func(http.Handler) http.Handler {
	return guard(engine, true)
}

// RequireHeader is Guard without the cookie fallback, for API routes that
// must not accept cookie transport.
func RequireHeader(engine *authgate.Engine) func(http.Handler) http.Handler {
	return guard(engine, false)
}

func guard(engine *authgate.Engine, allowCookie bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			token := r.Header.Get("Authorization")
			if token == "" && allowCookie {
				token = engine.TokenFromCookie(r)
			}
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			res, err := engine.Validate(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), authResultContextKey{}, res)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
