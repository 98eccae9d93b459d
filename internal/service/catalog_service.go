package service

import (
	"context"
	"errors"
	"strings"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/go-playground/validator/v10"
)

// CatalogService 場地與分類，只有主辦人可以新增
type CatalogService interface {
	CreateVenue(ctx context.Context, userID int, venue *model.Venue) (*model.Venue, error)
	ListVenues(ctx context.Context) ([]*model.Venue, error)
	GetVenue(ctx context.Context, id int) (*model.Venue, error)
	CreateCategory(ctx context.Context, userID int, category *model.Category) (*model.Category, error)
	ListCategories(ctx context.Context) ([]*model.Category, error)
}

type CatalogServiceImpl struct {
	users      repository.UserRepository
	venues     repository.VenueRepository
	categories repository.CategoryRepository
	validate   *validator.Validate
}

func NewCatalogService(
	users repository.UserRepository,
	venues repository.VenueRepository,
	categories repository.CategoryRepository,
) CatalogService {
	return &CatalogServiceImpl{
		users:      users,
		venues:     venues,
		categories: categories,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *CatalogServiceImpl) requireOrganizer(ctx context.Context, userID int) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.IsOrganizer {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *CatalogServiceImpl) CreateVenue(ctx context.Context, userID int, venue *model.Venue) (*model.Venue, error) {
	if err := s.requireOrganizer(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.check(venue); err != nil {
		return nil, err
	}
	return s.venues.Create(ctx, venue)
}

func (s *CatalogServiceImpl) ListVenues(ctx context.Context) ([]*model.Venue, error) {
	return s.venues.List(ctx)
}

func (s *CatalogServiceImpl) GetVenue(ctx context.Context, id int) (*model.Venue, error) {
	return s.venues.FindByID(ctx, id)
}

func (s *CatalogServiceImpl) CreateCategory(ctx context.Context, userID int, category *model.Category) (*model.Category, error) {
	if err := s.requireOrganizer(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.check(category); err != nil {
		return nil, err
	}

	created, err := s.categories.Create(ctx, category)
	if errors.Is(err, repository.ErrDuplicateCategory) {
		return nil, apperrors.NewValidationError(map[string]string{"name": "category already exists"})
	}
	return created, err
}

func (s *CatalogServiceImpl) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categories.List(ctx)
}

// check 將 validator 的錯誤轉成欄位訊息
func (s *CatalogServiceImpl) check(v any) error {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			fields[name] = name + " is required"
		case "max":
			fields[name] = name + " must be at most " + fe.Param() + " characters"
		case "gt":
			fields[name] = name + " must be greater than " + fe.Param()
		default:
			fields[name] = name + " is invalid"
		}
	}
	return apperrors.NewValidationError(fields)
}
