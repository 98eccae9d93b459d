package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TicketType 票種
type TicketType string

const (
	TicketTypeGeneral TicketType = "GENERAL"
	TicketTypeVIP     TicketType = "VIP"
)

var TicketTypes = []TicketType{TicketTypeGeneral, TicketTypeVIP}

// TicketCodeLength 票券代碼長度
const TicketCodeLength = 12

// IsValid 驗證票種是否有效
func (t TicketType) IsValid() bool {
	switch t {
	case TicketTypeGeneral, TicketTypeVIP:
		return true
	}
	return false
}

// Ticket 票券模型：某位使用者對某活動購買 N 張同票種的票
type Ticket struct {
	ID         int        `json:"id" db:"id"`
	TicketCode string     `json:"ticket_code" db:"ticket_code"`
	Quantity   int        `json:"quantity" db:"quantity"`
	Type       TicketType `json:"type" db:"type"`
	UserID     int        `json:"user_id" db:"user_id"`
	EventID    int        `json:"event_id" db:"event_id"`
	BuyDate    time.Time  `json:"buy_date" db:"buy_date"`

	Event *Event `json:"event,omitempty" db:"-"`
}

// GenerateTicketCode 產生 12 碼大寫英數代碼
func GenerateTicketCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:TicketCodeLength]
}

// CanBeModifiedBy 只有票券持有人可以修改
func (t *Ticket) CanBeModifiedBy(userID int) bool {
	return t.UserID == userID
}

// CanBeDeletedBy 只有票券持有人可以刪除
func (t *Ticket) CanBeDeletedBy(userID int) bool {
	return t.UserID == userID
}

func (t *Ticket) String() string {
	return fmt.Sprintf("%s x%d - user %d - %s", t.Type, t.Quantity, t.UserID, t.TicketCode)
}

// TicketRequest 購票或改票請求，數量保留原始字串交給 admission 檢查
type TicketRequest struct {
	Quantity string
	Type     string
}

// TypeAvailability 單一票種的容量與已售數量
type TypeAvailability struct {
	Type      TicketType `json:"type"`
	Capacity  int        `json:"capacity"`
	Sold      int        `json:"sold"`
	Remaining int        `json:"remaining"`
}

// Availability 活動剩餘容量（由票券彙總推導，不另外持久化）
type Availability struct {
	EventID       uuid.UUID          `json:"event_id"`
	State         EventState         `json:"state"`
	CanBeBought   bool               `json:"can_be_bought"`
	TotalCapacity int                `json:"total_capacity"`
	TicketsSold   int                `json:"tickets_sold"`
	Types         []TypeAvailability `json:"types"`
}

// NewAvailability 由活動與各票種已售數量組出讀取模型
func NewAvailability(event *Event, sold map[TicketType]int) *Availability {
	a := &Availability{
		EventID:       event.EventID,
		State:         event.State,
		CanBeBought:   event.CanBeBought(),
		TotalCapacity: event.TotalCapacity(),
		Types:         make([]TypeAvailability, 0, len(TicketTypes)),
	}
	for _, t := range TicketTypes {
		capacity := event.CapacityFor(t)
		remaining := capacity - sold[t]
		if remaining < 0 {
			remaining = 0
		}
		a.TicketsSold += sold[t]
		a.Types = append(a.Types, TypeAvailability{
			Type:      t,
			Capacity:  capacity,
			Sold:      sold[t],
			Remaining: remaining,
		})
	}
	return a
}
