package authmw

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type principalKey struct{}

type authenticator interface {
	Authenticate(token string) (user.Principal, error)
}

// NewAuthMiddleware requires a valid bearer token and stores its principal in the request context.
func NewAuthMiddleware(auth authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				httpio.WriteError(w, r, errs.ErrUnauthenticated)

				return
			}

			p, err := auth.Authenticate(strings.TrimSpace(token))
			if err != nil {
				httpio.WriteError(w, r, errs.ErrUnauthenticated)

				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), p)))
		})
	}
}

// RequireRole lets through only principals holding one of roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := PrincipalFromContext(r.Context())
			if !ok {
				httpio.WriteError(w, r, errs.ErrUnauthenticated)

				return
			}
			if !slices.Contains(roles, p.Role) {
				httpio.WriteError(w, r, errs.ErrForbidden)

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithPrincipal(ctx context.Context, p user.Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (user.Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(user.Principal)
	return p, ok
}
