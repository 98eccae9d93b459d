package mocks

import (
	"context"

	"go-gin-event-ticketing/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type AvailabilityCacheMock struct {
	mock.Mock
}

func NewAvailabilityCacheMock() *AvailabilityCacheMock {
	return &AvailabilityCacheMock{}
}

func (m *AvailabilityCacheMock) Get(ctx context.Context, eventID uuid.UUID) (*model.Availability, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Availability), args.Error(1)
}

func (m *AvailabilityCacheMock) Version(ctx context.Context, eventID uuid.UUID) (int64, error) {
	args := m.Called(ctx, eventID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *AvailabilityCacheMock) Set(ctx context.Context, availability *model.Availability, version int64) (bool, error) {
	args := m.Called(ctx, availability, version)
	return args.Bool(0), args.Error(1)
}

func (m *AvailabilityCacheMock) Invalidate(ctx context.Context, eventID uuid.UUID) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}
