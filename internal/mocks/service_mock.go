package mocks

import (
	"context"

	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type TicketServiceMock struct {
	mock.Mock
}

func NewTicketServiceMock() *TicketServiceMock {
	return &TicketServiceMock{}
}

func (m *TicketServiceMock) Purchase(ctx context.Context, userID int, eventID uuid.UUID, req model.TicketRequest) (*model.Ticket, error) {
	args := m.Called(ctx, userID, eventID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) Edit(ctx context.Context, userID, ticketID int, req model.TicketRequest) (*model.Ticket, error) {
	args := m.Called(ctx, userID, ticketID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) Delete(ctx context.Context, userID, ticketID int) error {
	args := m.Called(ctx, userID, ticketID)
	return args.Error(0)
}

func (m *TicketServiceMock) ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) GetForUser(ctx context.Context, userID, ticketID int) (*model.Ticket, error) {
	args := m.Called(ctx, userID, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Ticket), args.Error(1)
}

func (m *TicketServiceMock) Availability(ctx context.Context, eventID uuid.UUID) (*model.Availability, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Availability), args.Error(1)
}

func (m *TicketServiceMock) RefreshAvailability(ctx context.Context, eventID int) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

type EventServiceMock struct {
	mock.Mock
}

func NewEventServiceMock() *EventServiceMock {
	return &EventServiceMock{}
}

func (m *EventServiceMock) List(ctx context.Context) ([]*model.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Event), args.Error(1)
}

func (m *EventServiceMock) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.Event, error) {
	args := m.Called(ctx, organizerID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	args := m.Called(ctx, userID, eventID, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Event), args.Error(1)
}

func (m *EventServiceMock) Delete(ctx context.Context, userID int, eventID uuid.UUID) error {
	args := m.Called(ctx, userID, eventID)
	return args.Error(0)
}

type UserServiceMock struct {
	mock.Mock
}

func NewUserServiceMock() *UserServiceMock {
	return &UserServiceMock{}
}

func (m *UserServiceMock) Register(ctx context.Context, params model.RegisterUserParams) (*model.User, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *UserServiceMock) Login(ctx context.Context, username, password string) (*service.LoginResult, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.LoginResult), args.Error(1)
}

func (m *UserServiceMock) GetByID(ctx context.Context, id int) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

type CatalogServiceMock struct {
	mock.Mock
}

func NewCatalogServiceMock() *CatalogServiceMock {
	return &CatalogServiceMock{}
}

func (m *CatalogServiceMock) CreateVenue(ctx context.Context, userID int, venue *model.Venue) (*model.Venue, error) {
	args := m.Called(ctx, userID, venue)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *CatalogServiceMock) ListVenues(ctx context.Context) ([]*model.Venue, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Venue), args.Error(1)
}

func (m *CatalogServiceMock) GetVenue(ctx context.Context, id int) (*model.Venue, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Venue), args.Error(1)
}

func (m *CatalogServiceMock) CreateCategory(ctx context.Context, userID int, category *model.Category) (*model.Category, error) {
	args := m.Called(ctx, userID, category)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Category), args.Error(1)
}

func (m *CatalogServiceMock) ListCategories(ctx context.Context) ([]*model.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Category), args.Error(1)
}

var (
	_ service.TicketService  = (*TicketServiceMock)(nil)
	_ service.EventService   = (*EventServiceMock)(nil)
	_ service.UserService    = (*UserServiceMock)(nil)
	_ service.CatalogService = (*CatalogServiceMock)(nil)
)
