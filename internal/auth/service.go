package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/eventgrid/backend/internal/apperr"
	"github.com/eventgrid/backend/internal/models"
	"github.com/eventgrid/backend/internal/store"
	"github.com/eventgrid/backend/pkg/utils"
)

// Service owns user accounts.
type Service struct {
	store store.Store
	jwt   *JWTService
}

// NewService creates an auth service.
func NewService(s store.Store, jwt *JWTService) *Service {
	return &Service{store: s, jwt: jwt}
}

// SignupInput is the payload for Signup.
type SignupInput struct {
	Email       string
	Password    string
	Name        string
	Gender      string
	PhoneNumber string
	State       string
	Nationality string
	Profession  string
	Interests   []string
}

// Signup creates a user with only the User role.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || strings.TrimSpace(in.Name) == "" {
		return nil, apperr.Validation("email and name are required")
	}
	hash, err := utils.HashPassword(in.Password)
	if errors.Is(err, utils.ErrPasswordTooShort) {
		return nil, apperr.Validation("password must be at least %d characters", utils.MinPasswordLength)
	}
	if err != nil {
		return nil, apperr.Internal(err, "hash password")
	}
	user := &models.User{
		Email:         email,
		Password:      hash,
		Name:          strings.TrimSpace(in.Name),
		Gender:        in.Gender,
		PhoneNumber:   in.PhoneNumber,
		State:         in.State,
		Nationality:   in.Nationality,
		Profession:    in.Profession,
		Interests:     in.Interests,
		Roles:         []models.Role{models.RoleUser},
		Organizations: models.IDs{},
		Departments:   models.IDs{},
	}
	err = s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetUserByEmail(ctx, email); err == nil {
			return apperr.Conflict("user already exists").WithCode("email_taken")
		} else if !errors.Is(err, store.ErrNotFound) {
			return apperr.Internal(err, "check email")
		}
		if err := tx.CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				return apperr.Conflict("user already exists").WithCode("email_taken")
			}
			return apperr.Internal(err, "create user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user *models.User
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		if errors.Is(err, store.ErrNotFound) {
			return errInvalidCredentials
		}
		if err != nil {
			return apperr.Internal(err, "load user")
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if !utils.CheckPassword(password, user.Password) {
		return "", nil, errInvalidCredentials
	}
	token, err := s.jwt.Generate(user.ID, user.Email)
	if err != nil {
		return "", nil, apperr.Internal(err, "sign token")
	}
	return token, user, nil
}

var errInvalidCredentials = apperr.Validation("invalid email or password").WithCode("invalid_credentials")

// Get returns one user.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user *models.User
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		user, err = tx.GetUser(ctx, id)
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("user not found")
		}
		if err != nil {
			return apperr.Internal(err, "load user")
		}
		return nil
	})
	return user, err
}

// List returns every user without credentials.
func (s *Service) List(ctx context.Context) ([]models.UserPublic, error) {
	var out []models.UserPublic
	err := s.store.InTx(ctx, func(ctx context.Context, tx store.Tx) error {
		users, err := tx.ListUsers(ctx)
		if err != nil {
			return apperr.Internal(err, "list users")
		}
		out = make([]models.UserPublic, 0, len(users))
		for i := range users {
			out = append(out, users[i].ToPublic())
		}
		return nil
	})
	return out, err
}

// AllRoles lists the platform roles.
func AllRoles() []models.Role {
	return []models.Role{
		models.RoleSuperAdmin,
		models.RoleOrganizationAdmin,
		models.RoleDepartmentalAdmin,
		models.RoleMember,
		models.RoleUser,
	}
}
