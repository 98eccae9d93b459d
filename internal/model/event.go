package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EventState 活動狀態類型
type EventState string

const (
	EventStateAvailable EventState = "AVAILABLE"
	EventStateCancelled EventState = "CANCELLED"
	EventStateReprogram EventState = "REPROGRAM"
	EventStateSoldOut   EventState = "SOLD_OUT"
	EventStateFinished  EventState = "FINISHED"
)

const (
	DefaultGeneralCapacity = 100
	DefaultVipCapacity     = 50
)

// EventStates 所有合法狀態，依顯示順序排列
var EventStates = []EventState{
	EventStateAvailable,
	EventStateCancelled,
	EventStateReprogram,
	EventStateSoldOut,
	EventStateFinished,
}

// IsValid 驗證狀態是否有效
func (s EventState) IsValid() bool {
	switch s {
	case EventStateAvailable, EventStateCancelled, EventStateReprogram, EventStateSoldOut, EventStateFinished:
		return true
	}
	return false
}

type Event struct {
	ID              int        `json:"id" db:"id"`
	EventID         uuid.UUID  `json:"event_id" db:"event_id"`
	Title           string     `json:"title" db:"title"`
	Description     string     `json:"description" db:"description"`
	ScheduledAt     time.Time  `json:"scheduled_at" db:"scheduled_at"`
	OrganizerID     int        `json:"organizer_id" db:"organizer_id"`
	CategoryID      *int       `json:"category_id,omitempty" db:"category_id"`
	VenueID         *int       `json:"venue_id,omitempty" db:"venue_id"`
	GeneralCapacity int        `json:"general_capacity" db:"general_capacity"`
	VipCapacity     int        `json:"vip_capacity" db:"vip_capacity"`
	State           EventState `json:"state" db:"state"`
	CreatedAt       time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at" db:"updated_at"`
}

// TotalCapacity 一般票與 VIP 票容量總和，不另外儲存
func (e *Event) TotalCapacity() int {
	return e.GeneralCapacity + e.VipCapacity
}

// CanBeBought 取消、售完、已結束的活動不可購票
func (e *Event) CanBeBought() bool {
	switch e.State {
	case EventStateCancelled, EventStateSoldOut, EventStateFinished:
		return false
	}
	return true
}

// IsLockedForEdit 已取消的活動不可再編輯
func (e *Event) IsLockedForEdit() bool {
	return e.State == EventStateCancelled
}

func (e *Event) IsOrganizedBy(userID int) bool {
	return e.OrganizerID == userID
}

// CapacityFor 回傳指定票種的容量
func (e *Event) CapacityFor(t TicketType) int {
	if t == TicketTypeVIP {
		return e.VipCapacity
	}
	return e.GeneralCapacity
}

// CreateEventParams 建立活動參數
type CreateEventParams struct {
	Title           string
	Description     string
	ScheduledAt     time.Time
	CategoryID      *int
	VenueID         *int
	GeneralCapacity *int
	VipCapacity     *int
	State           *EventState
}

// UpdateEventParams 更新活動參數：nil 表示不變更，非 nil（包含空字串）表示覆寫
type UpdateEventParams struct {
	Title           *string
	Description     *string
	ScheduledAt     *time.Time
	CategoryID      Optional[*int]
	VenueID         Optional[*int]
	GeneralCapacity *int
	VipCapacity     *int
	State           *EventState
}

func (p UpdateEventParams) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.ScheduledAt == nil &&
		!p.CategoryID.Set && !p.VenueID.Set &&
		p.GeneralCapacity == nil && p.VipCapacity == nil && p.State == nil
}

// ValidateEvent 回傳欄位錯誤，空 map 表示通過
func ValidateEvent(title, description string, state *EventState) map[string]string {
	errors := map[string]string{}

	if strings.TrimSpace(title) == "" {
		errors["title"] = "please enter a title"
	}

	if strings.TrimSpace(description) == "" {
		errors["description"] = "please enter a description"
	}

	if state != nil && !state.IsValid() {
		errors["state"] = "invalid state"
	}

	return errors
}

func validateCapacities(errors map[string]string, general, vip *int) {
	if general != nil && *general < 0 {
		errors["general_capacity"] = "capacity cannot be negative"
	}
	if vip != nil && *vip < 0 {
		errors["vip_capacity"] = "capacity cannot be negative"
	}
}

// NewEvent 驗證後建立活動，驗證失敗時回傳錯誤 map 且不建立任何物件
func NewEvent(organizerID int, p CreateEventParams) (*Event, map[string]string) {
	errors := ValidateEvent(p.Title, p.Description, p.State)
	validateCapacities(errors, p.GeneralCapacity, p.VipCapacity)
	if len(errors) > 0 {
		return nil, errors
	}

	event := &Event{
		EventID:         uuid.New(),
		Title:           p.Title,
		Description:     p.Description,
		ScheduledAt:     p.ScheduledAt.UTC(),
		OrganizerID:     organizerID,
		CategoryID:      p.CategoryID,
		VenueID:         p.VenueID,
		GeneralCapacity: DefaultGeneralCapacity,
		VipCapacity:     DefaultVipCapacity,
		State:           EventStateAvailable,
	}
	if p.GeneralCapacity != nil {
		event.GeneralCapacity = *p.GeneralCapacity
	}
	if p.VipCapacity != nil {
		event.VipCapacity = *p.VipCapacity
	}
	if p.State != nil {
		event.State = *p.State
	}
	return event, nil
}

// ApplyUpdate 將有提供的欄位合併進活動。
// 不重新檢查標題與描述是否為空，只守住狀態與容量的型別約束。
func (e *Event) ApplyUpdate(p UpdateEventParams) map[string]string {
	errors := map[string]string{}
	if p.State != nil && !p.State.IsValid() {
		errors["state"] = "invalid state"
	}
	validateCapacities(errors, p.GeneralCapacity, p.VipCapacity)
	if len(errors) > 0 {
		return errors
	}

	if p.Title != nil {
		e.Title = *p.Title
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	if p.ScheduledAt != nil {
		e.ScheduledAt = p.ScheduledAt.UTC()
	}
	if p.CategoryID.Set {
		e.CategoryID = p.CategoryID.Value
	}
	if p.VenueID.Set {
		e.VenueID = p.VenueID.Value
	}
	if p.GeneralCapacity != nil {
		e.GeneralCapacity = *p.GeneralCapacity
	}
	if p.VipCapacity != nil {
		e.VipCapacity = *p.VipCapacity
	}
	if p.State != nil {
		e.State = *p.State
	}
	return nil
}
