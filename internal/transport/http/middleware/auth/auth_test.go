package authmw

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/stretchr/testify/assert"
)

type fakeAuth map[string]user.Principal

func (f fakeAuth) Authenticate(token string) (user.Principal, error) {
	p, ok := f[token]
	if !ok {
		return user.Principal{}, errs.ErrUnauthenticated
	}
	return p, nil
}

func TestNewAuthMiddleware(t *testing.T) {
	t.Parallel()

	auth := fakeAuth{"good": {UserID: 7, Role: user.RoleCustomer}}

	var seen user.Principal
	handler := NewAuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing", header: "", status: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic good", status: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer bad", status: http.StatusUnauthorized},
		{name: "empty token", header: "Bearer ", status: http.StatusUnauthorized},
		{name: "ok", header: "Bearer good", status: http.StatusNoContent},
		{name: "lowercase scheme", header: "bearer good", status: http.StatusNoContent},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.name)
	}

	assert.Equal(t, user.Principal{UserID: 7, Role: user.RoleCustomer}, seen)
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	handler := RequireRole(user.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name      string
		principal *user.Principal
		status    int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "customer", principal: &user.Principal{UserID: 1, Role: user.RoleCustomer}, status: http.StatusForbidden},
		{name: "admin", principal: &user.Principal{UserID: 2, Role: user.RoleAdmin}, status: http.StatusNoContent},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPatch, "/", nil)
		if tt.principal != nil {
			req = req.WithContext(WithPrincipal(req.Context(), *tt.principal))
		}
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)
		assert.Equal(t, tt.status, rec.Code, tt.name)
	}
}
