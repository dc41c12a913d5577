package login

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type service interface {
	Login(ctx context.Context, email, password string) (*user.User, string, error)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type response struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func Login(w http.ResponseWriter, r *http.Request, service service) {
	var req loginRequest
	if err := httpio.DecodeJSON(r, &req); err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	u, token, err := service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusOK, response{User: u, Token: token})
}
