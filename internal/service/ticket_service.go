package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-gin-event-ticketing/internal/admission"
	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/metrics"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/queue"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"
	"go-gin-event-ticketing/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// 產生的代碼與既有票券重複時最多重試次數
	maxTicketCodeAttempts = 5
	afterCommitTimeout    = 2 * time.Second
)

type TicketService interface {
	// 購票：鎖住活動列後套用 admission 規則並寫入
	Purchase(ctx context.Context, userID int, eventID uuid.UUID, req model.TicketRequest) (*model.Ticket, error)
	// 改票：只有持有人可改，彙總排除被編輯的票券本身
	Edit(ctx context.Context, userID, ticketID int, req model.TicketRequest) (*model.Ticket, error)
	Delete(ctx context.Context, userID, ticketID int) error
	ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error)
	// 非持有人讀取視為不存在
	GetForUser(ctx context.Context, userID, ticketID int) (*model.Ticket, error)
	Availability(ctx context.Context, eventID uuid.UUID) (*model.Availability, error)
	// 重新計算並寫入快取，給 worker 使用
	RefreshAvailability(ctx context.Context, eventID int) error
}

type TicketServiceImpl struct {
	tx         repository.TxManager
	events     repository.EventRepository
	tickets    repository.TicketRepository
	cache      cache.AvailabilityCache
	activities queue.ActivityQueue
	policy     admission.Policy
	log        *zap.Logger
}

func NewTicketService(
	tx repository.TxManager,
	events repository.EventRepository,
	tickets repository.TicketRepository,
	availabilityCache cache.AvailabilityCache,
	activities queue.ActivityQueue,
	policy admission.Policy,
) TicketService {
	return &TicketServiceImpl{
		tx:         tx,
		events:     events,
		tickets:    tickets,
		cache:      availabilityCache,
		activities: activities,
		policy:     policy,
		log:        logger.WithComponent("ticket_service"),
	}
}

func (s *TicketServiceImpl) Purchase(ctx context.Context, userID int, eventID uuid.UUID, r model.TicketRequest) (*model.Ticket, error) {
	var (
		event   *model.Event
		created *model.Ticket
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		event, err = s.events.FindByEventIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		req := admission.Request{
			Event:    event,
			UserID:   userID,
			Quantity: r.Quantity,
			Type:     r.Type,
		}
		decision, err := s.policy.Evaluate(ctx, req, s.tickets)
		if err != nil {
			return err
		}

		created, err = s.createWithUniqueCode(ctx, decision.Apply(req))
		return err
	})
	observeDecision(admission.OperationCreate, err)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event, model.ActivityTicketCreated, created)
	return created, nil
}

func (s *TicketServiceImpl) createWithUniqueCode(ctx context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	for attempt := 1; attempt <= maxTicketCodeAttempts; attempt++ {
		created, err := s.tickets.Create(ctx, ticket)
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, apperrors.ErrTicketCodeConflict) {
			return nil, err
		}
		s.log.Warn("ticket code collision, regenerating",
			zap.String("ticket_code", ticket.TicketCode),
			zap.Int("attempt", attempt),
		)
		ticket.TicketCode = model.GenerateTicketCode()
	}
	return nil, fmt.Errorf("generate ticket code: %w", apperrors.ErrTicketCodeConflict)
}

func (s *TicketServiceImpl) Edit(ctx context.Context, userID, ticketID int, r model.TicketRequest) (*model.Ticket, error) {
	var (
		event   *model.Event
		updated *model.Ticket
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.ownedTicket(ctx, userID, ticketID)
		if err != nil {
			return err
		}

		event, err = s.events.FindByIDForUpdate(ctx, current.EventID)
		if err != nil {
			return err
		}

		// 取得鎖之後重新讀取，避免使用鎖前被其他請求修改過的數量
		current, err = s.ownedTicket(ctx, userID, ticketID)
		if err != nil {
			return err
		}

		req := admission.Request{
			Event:    event,
			UserID:   userID,
			Existing: current,
			Quantity: r.Quantity,
			Type:     r.Type,
		}
		decision, err := s.policy.Evaluate(ctx, req, s.tickets)
		if err != nil {
			return err
		}

		updated, err = s.tickets.UpdateQuantityAndType(ctx, decision.Apply(req))
		return err
	})
	observeDecision(admission.OperationEdit, err)
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, event, model.ActivityTicketUpdated, updated)
	return updated, nil
}

func (s *TicketServiceImpl) Delete(ctx context.Context, userID, ticketID int) error {
	var (
		event   *model.Event
		deleted *model.Ticket
	)

	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		current, err := s.tickets.FindByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if !current.CanBeDeletedBy(userID) {
			return apperrors.ErrNotTicketOwner
		}

		// 與購票、改票互斥，釋放的容量立即可被下一個請求看到
		event, err = s.events.FindByIDForUpdate(ctx, current.EventID)
		if err != nil {
			return err
		}

		deleted = current
		return s.tickets.Delete(ctx, current.ID)
	})
	if err != nil {
		return err
	}

	s.afterCommit(ctx, event, model.ActivityTicketDeleted, deleted)
	return nil
}

// ownedTicket 非持有人回傳 ErrNotTicketOwner
func (s *TicketServiceImpl) ownedTicket(ctx context.Context, userID, ticketID int) (*model.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !ticket.CanBeModifiedBy(userID) {
		return nil, apperrors.ErrNotTicketOwner
	}
	return ticket, nil
}

func (s *TicketServiceImpl) ListByUser(ctx context.Context, userID int) ([]*model.Ticket, error) {
	return s.tickets.ListByUser(ctx, userID)
}

func (s *TicketServiceImpl) GetForUser(ctx context.Context, userID, ticketID int) (*model.Ticket, error) {
	ticket, err := s.tickets.FindByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if ticket.UserID != userID {
		return nil, apperrors.ErrTicketNotFound
	}

	event, err := s.events.FindByID(ctx, ticket.EventID)
	if err != nil {
		return nil, err
	}
	ticket.Event = event
	return ticket, nil
}

func (s *TicketServiceImpl) Availability(ctx context.Context, eventID uuid.UUID) (*model.Availability, error) {
	cached, err := s.cache.Get(ctx, eventID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperrors.ErrCacheMiss) {
		s.log.Warn("availability cache read failed", zap.String("event_id", eventID.String()), zap.Error(err))
	}

	return s.computeAndCache(ctx, eventID)
}

func (s *TicketServiceImpl) RefreshAvailability(ctx context.Context, eventID int) error {
	event, err := s.events.FindByID(ctx, eventID)
	if err == nil {
		_, err = s.computeAndCache(ctx, event.EventID)
	}
	// 活動已刪除，快取在刪除時已失效
	if errors.Is(err, apperrors.ErrEventNotFound) {
		return nil
	}
	return err
}

// computeAndCache 先取快取版本再讀資料庫；期間若有異動提交，版本已變，寫入會被放棄
func (s *TicketServiceImpl) computeAndCache(ctx context.Context, eventID uuid.UUID) (*model.Availability, error) {
	version, versionErr := s.cache.Version(ctx, eventID)
	if versionErr != nil {
		s.log.Warn("availability cache version read failed", zap.String("event_id", eventID.String()), zap.Error(versionErr))
	}

	event, err := s.events.FindByEventID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	sold, err := s.tickets.SoldByEvent(ctx, event.ID)
	if err != nil {
		return nil, err
	}
	availability := model.NewAvailability(event, sold)

	if versionErr != nil {
		return availability, nil
	}
	stored, err := s.cache.Set(ctx, availability, version)
	switch {
	case err != nil:
		s.log.Warn("availability cache write failed", zap.String("event_id", eventID.String()), zap.Error(err))
	case !stored:
		s.log.Debug("availability changed while computing, cache write skipped", zap.String("event_id", eventID.String()))
	}
	return availability, nil
}

// afterCommit 失效快取並通知 worker，失敗只記錄，不影響已提交的結果
func (s *TicketServiceImpl) afterCommit(ctx context.Context, event *model.Event, kind model.ActivityKind, ticket *model.Ticket) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), afterCommitTimeout)
	defer cancel()

	if err := s.cache.Invalidate(ctx, event.EventID); err != nil {
		s.log.Warn("availability cache invalidate failed", zap.String("event_id", event.EventID.String()), zap.Error(err))
	}

	activity := &model.TicketActivity{
		RequestID:  uuid.NewString(),
		Kind:       kind,
		EventID:    event.ID,
		TicketID:   ticket.ID,
		UserID:     ticket.UserID,
		OccurredAt: time.Now().UTC(),
	}
	if err := s.activities.Publish(ctx, activity); err != nil {
		s.log.Error("failed to publish ticket activity",
			zap.String("kind", string(kind)),
			zap.Int("event_id", event.ID),
			zap.Error(err),
		)
	}
}

func observeDecision(op admission.Operation, err error) {
	if err == nil {
		metrics.ObserveAdmission(string(op), metrics.OutcomeAccepted)
		return
	}
	if rejection, ok := admission.AsRejection(err); ok {
		metrics.ObserveAdmission(string(op), string(rejection.Code))
	}
}
