package service

import (
	"context"
	"errors"
	"time"

	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventService interface {
	List(ctx context.Context) ([]*model.Event, error)
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error)
	// 只有主辦人帳號可以建立，驗證失敗回傳 *ValidationError 且不寫入
	Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.Event, error)
	// 只有該活動的主辦人可以修改，已取消的活動回傳 ErrEventLocked
	Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error)
	Delete(ctx context.Context, userID int, eventID uuid.UUID) error
}

type EventServiceImpl struct {
	tx         repository.TxManager
	repo       repository.EventRepository
	users      repository.UserRepository
	venues     repository.VenueRepository
	categories repository.CategoryRepository
	cache      cache.AvailabilityCache
	activities queue.ActivityQueue
	log        *zap.Logger
}

func NewEventService(
	tx repository.TxManager,
	repo repository.EventRepository,
	users repository.UserRepository,
	venues repository.VenueRepository,
	categories repository.CategoryRepository,
	availabilityCache cache.AvailabilityCache,
	activities queue.ActivityQueue,
) EventService {
	return &EventServiceImpl{
		tx:         tx,
		repo:       repo,
		users:      users,
		venues:     venues,
		categories: categories,
		cache:      availabilityCache,
		activities: activities,
		log:        logger.WithComponent("event_service"),
	}
}

func (s *EventServiceImpl) List(ctx context.Context) ([]*model.Event, error) {
	return s.repo.List(ctx)
}

func (s *EventServiceImpl) GetByEventID(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return s.repo.FindByEventID(ctx, eventID)
}

func (s *EventServiceImpl) Create(ctx context.Context, organizerID int, params model.CreateEventParams) (*model.Event, error) {
	organizer, err := s.users.FindByID(ctx, organizerID)
	if err != nil {
		return nil, err
	}
	if !organizer.IsOrganizer {
		return nil, apperrors.ErrForbidden
	}

	event, errs := model.NewEvent(organizerID, params)
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(errs)
	}
	errs, err = s.checkReferences(ctx, params.CategoryID, params.VenueID)
	if err != nil {
		return nil, err
	}
	if len(errs) > 0 {
		return nil, apperrors.NewValidationError(errs)
	}

	return s.repo.Create(ctx, event)
}

func (s *EventServiceImpl) Update(ctx context.Context, userID int, eventID uuid.UUID, params model.UpdateEventParams) (*model.Event, error) {
	var updated *model.Event

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.repo.FindByEventIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsOrganizedBy(userID) {
			return apperrors.ErrForbidden
		}
		if event.IsLockedForEdit() {
			return apperrors.ErrEventLocked
		}

		var categoryID, venueID *int
		if params.CategoryID.Set {
			categoryID = params.CategoryID.Value
		}
		if params.VenueID.Set {
			venueID = params.VenueID.Value
		}
		errs, err := s.checkReferences(ctx, categoryID, venueID)
		if err != nil {
			return err
		}
		if len(errs) > 0 {
			return apperrors.NewValidationError(errs)
		}

		if errs := event.ApplyUpdate(params); len(errs) > 0 {
			return apperrors.NewValidationError(errs)
		}

		updated, err = s.repo.Update(ctx, event)
		return err
	})
	if err != nil {
		return nil, err
	}

	// 狀態或容量可能改變
	s.notify(ctx, updated)
	return updated, nil
}

func (s *EventServiceImpl) Delete(ctx context.Context, userID int, eventID uuid.UUID) error {
	var deleted *model.Event

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		event, err := s.repo.FindByEventIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if !event.IsOrganizedBy(userID) {
			return apperrors.ErrForbidden
		}
		deleted = event
		return s.repo.Delete(ctx, event.ID)
	})
	if err != nil {
		return err
	}

	if err := s.cache.Invalidate(context.WithoutCancel(ctx), deleted.EventID); err != nil {
		s.log.Warn("availability cache invalidate failed", zap.String("event_id", deleted.EventID.String()), zap.Error(err))
	}
	return nil
}

// checkReferences nil 代表不檢查；查無資料轉成欄位錯誤，其他錯誤直接回傳
func (s *EventServiceImpl) checkReferences(ctx context.Context, categoryID, venueID *int) (map[string]string, error) {
	errs := map[string]string{}
	if categoryID != nil {
		_, err := s.categories.FindByID(ctx, *categoryID)
		switch {
		case errors.Is(err, apperrors.ErrCategoryNotFound):
			errs["category_id"] = "unknown category"
		case err != nil:
			return nil, err
		}
	}
	if venueID != nil {
		_, err := s.venues.FindByID(ctx, *venueID)
		switch {
		case errors.Is(err, apperrors.ErrVenueNotFound):
			errs["venue_id"] = "unknown venue"
		case err != nil:
			return nil, err
		}
	}
	return errs, nil
}

func (s *EventServiceImpl) notify(ctx context.Context, event *model.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()

	if err := s.cache.Invalidate(ctx, event.EventID); err != nil {
		s.log.Warn("availability cache invalidate failed", zap.String("event_id", event.EventID.String()), zap.Error(err))
	}

	activity := &model.TicketActivity{
		RequestID:  uuid.NewString(),
		Kind:       model.ActivityEventChanged,
		EventID:    event.ID,
		UserID:     event.OrganizerID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.activities.Publish(ctx, activity); err != nil {
		s.log.Error("failed to publish event change", zap.Int("event_id", event.ID), zap.Error(err))
	}
}
