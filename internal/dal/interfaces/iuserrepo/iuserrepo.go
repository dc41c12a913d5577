package iuserrepo

import (
	"context"

	"github.com/corray333/food-ordering/internal/service/models/user"
)

type IUserRepository interface {
	// Create returns a ConflictError when the email is taken.
	Create(ctx context.Context, u user.User) (user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id int64) (*user.User, error)
}
