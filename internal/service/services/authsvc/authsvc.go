package authsvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/corray333/food-ordering/internal/dal/interfaces/iuserrepo"
	"github.com/corray333/food-ordering/internal/service/errs"
	"github.com/corray333/food-ordering/internal/service/models/user"
	"github.com/corray333/food-ordering/pkg/tokens"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultTokenTTL   = 7 * 24 * time.Hour
	defaultBcryptCost = 12
	minNameLength     = 2
	minPasswordLength = 6
)

// AuthService registers users and issues and verifies their access tokens.
type AuthService struct {
	userRepo    iuserrepo.IUserRepository
	secret      []byte
	tokenTTL    time.Duration
	bcryptCost  int
	adminEmails map[string]struct{}
	validate    *validator.Validate
	now         func() time.Time
}

// option is a function that configures the AuthService.
type option func(*AuthService)

// MustNewAuthService creates a new AuthService.
func MustNewAuthService(opts ...option) *AuthService {
	s := &AuthService{
		tokenTTL:    defaultTokenTTL,
		bcryptCost:  defaultBcryptCost,
		adminEmails: make(map[string]struct{}),
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.userRepo == nil {
		panic("auth service needs a user repository")
	}
	if len(s.secret) == 0 {
		panic("auth service needs a token secret")
	}

	return s
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithUserRepository(repo iuserrepo.IUserRepository) option {
	return func(s *AuthService) {
		s.userRepo = repo
	}
}

// WithTokenSecret sets the HS256 signing key.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithTokenSecret(secret string) option {
	return func(s *AuthService) {
		s.secret = []byte(secret)
	}
}

//goland:noinspection GoExportedFuncWithUnexportedType
func WithTokenTTL(ttl time.Duration) option {
	return func(s *AuthService) {
		if ttl > 0 {
			s.tokenTTL = ttl
		}
	}
}

// WithBcryptCost overrides the hashing cost. Values outside bcrypt's range are ignored.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithBcryptCost(cost int) option {
	return func(s *AuthService) {
		if cost >= bcrypt.MinCost && cost <= bcrypt.MaxCost {
			s.bcryptCost = cost
		}
	}
}

// WithAdminEmails grants the admin role to these emails at registration.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithAdminEmails(emails ...string) option {
	return func(s *AuthService) {
		for _, e := range emails {
			if e = normalizeEmail(e); e != "" {
				s.adminEmails[e] = struct{}{}
			}
		}
	}
}

// RegisterRequest carries the registration form.
type RegisterRequest struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Address  string
}

// Register creates a customer account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*user.User, string, error) {
	ctx, span := otel.Tracer("authsvc").Start(ctx, "AuthService.Register")
	defer span.End()

	req.Name = strings.TrimSpace(req.Name)
	req.Email = normalizeEmail(req.Email)

	if utf8.RuneCountInString(req.Name) < minNameLength {
		return nil, "", errs.Validation("name", fmt.Sprintf("name must be at least %d characters", minNameLength))
	}
	if err := s.validate.Var(req.Email, "required,email"); err != nil {
		return nil, "", errs.Validation("email", "please provide a valid email")
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, "", errs.Validation("password", fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	role := user.RoleCustomer
	if _, ok := s.adminEmails[req.Email]; ok {
		role = user.RoleAdmin
	}

	now := s.now().UTC()
	created, err := s.userRepo.Create(ctx, user.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: string(hash),
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, "", err
	}

	token, err := s.issue(created)
	if err != nil {
		return nil, "", err
	}

	slog.Info("User registered", "user_id", created.ID, "role", created.Role)

	return &created, token, nil
}

// Login checks the credentials. Unknown emails and wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (*user.User, string, error) {
	ctx, span := otel.Tracer("authsvc").Start(ctx, "AuthService.Login")
	defer span.End()

	u, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", errs.ErrUnauthenticated
	}

	err = bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return nil, "", errs.ErrUnauthenticated
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to compare password hash: %w", err)
	}

	token, err := s.issue(*u)
	if err != nil {
		return nil, "", err
	}

	return u, token, nil
}

// Authenticate verifies a bearer token and extracts the principal from it.
func (s *AuthService) Authenticate(token string) (user.Principal, error) {
	claims, err := tokens.AccessClaimsFromToken(token, s.secret)
	if err != nil {
		return user.Principal{}, errors.Join(errs.ErrUnauthenticated, err)
	}

	id, err := claims.UserID()
	if err != nil {
		return user.Principal{}, errors.Join(errs.ErrUnauthenticated, err)
	}

	role := user.Role(claims.Role)
	if role != user.RoleCustomer && role != user.RoleAdmin {
		return user.Principal{}, errs.ErrUnauthenticated
	}

	return user.Principal{UserID: id, Role: role}, nil
}

// Me loads the account behind a principal.
func (s *AuthService) Me(ctx context.Context, p user.Principal) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, errs.ErrUnauthenticated
	}

	return u, nil
}

func (s *AuthService) issue(u user.User) (string, error) {
	now := s.now()

	token, err := tokens.NewAccessToken(u.ID, string(u.Role), now, now.Add(s.tokenTTL), s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
