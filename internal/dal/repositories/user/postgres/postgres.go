package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/corray333/food-ordering/internal/dal/postgres"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

var userColumns = []string{
	"id",
	"name",
	"email",
	"password_hash",
	"phone",
	"address",
	"role",
	"created_at",
	"updated_at",
}

// UserRepository persists accounts.
type UserRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewUserRepository creates a new user repository.
func NewUserRepository(conn postgres.GenericConn) *UserRepository {
	return &UserRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Create inserts u. A taken email yields a ConflictError.
func (r *UserRepository) Create(ctx context.Context, u user.User) (user.User, error) {
	query, args, err := r.sb.Insert("users").
		Columns("name", "email", "password_hash", "phone", "address", "role", "created_at", "updated_at").
		Values(u.Name, u.Email, u.PasswordHash, u.Phone, u.Address, string(u.Role), u.CreatedAt, u.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return user.User{}, fmt.Errorf("failed to build insert query: %w", err)
	}

	if err := r.conn.QueryRow(ctx, query, args...).Scan(&u.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return user.User{}, &errs.ConflictError{Reason: "user with this email already exists"}
		}

		return user.User{}, fmt.Errorf("failed to insert user: %w", err)
	}

	return u, nil
}

// GetByEmail returns the user with the given email (case-insensitive), or nil.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"email": strings.ToLower(email)})
}

// GetByID returns the user with the given id, or nil.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return r.getOne(ctx, sq.Eq{"id": id})
}

func (r *UserRepository) getOne(ctx context.Context, pred sq.Eq) (*user.User, error) {
	query, args, err := r.sb.Select(userColumns...).
		From("users").
		Where(pred).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	var (
		u    user.User
		role string
	)
	err = r.conn.QueryRow(ctx, query, args...).Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.PasswordHash,
		&u.Phone,
		&u.Address,
		&role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	u.Role = user.Role(role)

	return &u, nil
}
