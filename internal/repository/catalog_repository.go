package repository

import (
	"context"
	"errors"
	"fmt"

	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrDuplicateCategory = errors.New("category name already exists")

type VenueRepository interface {
	Create(ctx context.Context, venue *model.Venue) (*model.Venue, error)
	List(ctx context.Context) ([]*model.Venue, error)
	FindByID(ctx context.Context, id int) (*model.Venue, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) (*model.Category, error)
	List(ctx context.Context) ([]*model.Category, error)
	FindByID(ctx context.Context, id int) (*model.Category, error)
}

type VenueRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewVenueRepository(pool *pgxpool.Pool) VenueRepository {
	return &VenueRepositoryImpl{pool: pool}
}

func scanVenue(row pgx.Row) (*model.Venue, error) {
	var venue model.Venue
	err := row.Scan(&venue.ID, &venue.Name, &venue.City, &venue.Address, &venue.Capacity, &venue.Contact)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrVenueNotFound
		}
		return nil, err
	}
	return &venue, nil
}

func (r *VenueRepositoryImpl) Create(ctx context.Context, venue *model.Venue) (*model.Venue, error) {
	query := `
		INSERT INTO venues (name, city, address, capacity, contact)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, name, city, address, capacity, contact
	`
	created, err := scanVenue(conn(ctx, r.pool).QueryRow(ctx, query,
		venue.Name, venue.City, venue.Address, venue.Capacity, venue.Contact,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create venue: %w", err)
	}
	return created, nil
}

func (r *VenueRepositoryImpl) List(ctx context.Context) ([]*model.Venue, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, city, address, capacity, contact
		FROM venues
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	venues := make([]*model.Venue, 0)
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

func (r *VenueRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Venue, error) {
	return scanVenue(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, city, address, capacity, contact
		FROM venues
		WHERE id = $1
	`, id))
}

type CategoryRepositoryImpl struct {
	pool *pgxpool.Pool
}

func NewCategoryRepository(pool *pgxpool.Pool) CategoryRepository {
	return &CategoryRepositoryImpl{pool: pool}
}

func scanCategory(row pgx.Row) (*model.Category, error) {
	var category model.Category
	err := row.Scan(&category.ID, &category.Name, &category.Description, &category.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepositoryImpl) Create(ctx context.Context, category *model.Category) (*model.Category, error) {
	query := `
		INSERT INTO categories (name, description, is_active)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, is_active
	`
	created, err := scanCategory(conn(ctx, r.pool).QueryRow(ctx, query,
		category.Name, category.Description, category.IsActive,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateCategory
		}
		return nil, fmt.Errorf("failed to create category: %w", err)
	}
	return created, nil
}

func (r *CategoryRepositoryImpl) List(ctx context.Context) ([]*model.Category, error) {
	rows, err := conn(ctx, r.pool).Query(ctx, `
		SELECT id, name, description, is_active
		FROM categories
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make([]*model.Category, 0)
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepositoryImpl) FindByID(ctx context.Context, id int) (*model.Category, error) {
	return scanCategory(conn(ctx, r.pool).QueryRow(ctx, `
		SELECT id, name, description, is_active
		FROM categories
		WHERE id = $1
	`, id))
}
