package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go-gin-event-ticketing/internal/auth"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
)

// LoginResult 登入成功回傳的 token
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type UserService interface {
	// 驗證失敗回傳 *ValidationError
	Register(ctx context.Context, params model.RegisterUserParams) (*model.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	GetByID(ctx context.Context, id int) (*model.User, error)
}

type UserServiceImpl struct {
	repo       repository.UserRepository
	tokens     *auth.TokenManager
	bcryptCost int
	validate   *validator.Validate
}

func NewUserService(repo repository.UserRepository, tokens *auth.TokenManager, bcryptCost int) UserService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserServiceImpl{
		repo:       repo,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		validate:   validator.New(),
	}
}

// validateRegistration 只接受純地址，不接受 "Name <addr>" 形式
func (s *UserServiceImpl) validateRegistration(p model.RegisterUserParams) map[string]string {
	errs := map[string]string{}

	email := strings.TrimSpace(deref(p.Email))
	if email == "" {
		errs["email"] = "email is required"
	} else if err := s.validate.Var(email, "email"); err != nil {
		errs["email"] = "email is invalid"
	}

	if strings.TrimSpace(deref(p.Username)) == "" {
		errs["username"] = "username is required"
	}

	if p.Password == nil || p.PasswordConfirm == nil || *p.Password == "" {
		errs["password"] = "password is required"
	} else if *p.Password != *p.PasswordConfirm {
		errs["password"] = "passwords do not match"
	}

	return errs
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (s *UserServiceImpl) Register(ctx context.Context, p model.RegisterUserParams) (*model.User, error) {
	if errs := s.validateRegistration(p); len(errs) > 0 {
		return nil, apperrors.NewValidationError(errs)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*p.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, &model.User{
		Username:     strings.TrimSpace(*p.Username),
		Email:        strings.ToLower(strings.TrimSpace(*p.Email)),
		PasswordHash: string(hash),
		IsOrganizer:  p.IsOrganizer,
	})
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return nil, apperrors.NewValidationError(map[string]string{"email": "email already registered"})
	case errors.Is(err, repository.ErrDuplicateUsername):
		return nil, apperrors.NewValidationError(map[string]string{"username": "username already taken"})
	case err != nil:
		return nil, err
	}
	return user, nil
}

func (s *UserServiceImpl) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	user, err := s.repo.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *UserServiceImpl) GetByID(ctx context.Context, id int) (*model.User, error) {
	return s.repo.FindByID(ctx, id)
}
