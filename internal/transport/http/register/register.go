package register

import (
	"context"
	"net/http"

	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/internal/service/services/authsvc"
	"github.com/corray333/food-ordering/internal/transport/http/httpio"
)

type service interface {
	Register(ctx context.Context, req authsvc.RegisterRequest) (*user.User, string, error)
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"max=32"`
	Address  string `json:"address" validate:"max=255"`
}

type response struct {
	User  *user.User `json:"user"`
	Token string     `json:"token"`
}

func Register(w http.ResponseWriter, r *http.Request, service service) {
	var req registerRequest
	if err := httpio.DecodeJSON(r, &req); err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	u, token, err := service.Register(r.Context(), authsvc.RegisterRequest{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phone:    req.Phone,
		Address:  req.Address,
	})
	if err != nil {
		httpio.WriteError(w, r, err)

		return
	}

	httpio.WriteJSON(w, http.StatusCreated, response{User: u, Token: token})
}
