package me

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
	authmw "github.com/corray333/food-ordering/internal/transport/http/middleware/auth"
)

type service interface {
	Me(ctx context.Context, p user.Principal) (*user.User, error)
}

type response struct {
	User *user.User `json:"user"`
}

func Me(w http.ResponseWriter, r *http.Request, service service) {
	p, ok := authmw.PrincipalFromContext(r.Context())
	if !ok {
		httpio.WriteError(w, r, errs.ErrUnauthenticated)

		return
	}

	u, err := service.Me(r.Context(), p)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{User: u})
}
