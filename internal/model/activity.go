package model

import "time"

// ActivityKind 票券異動類型
type ActivityKind string

const (
	ActivityTicketCreated ActivityKind = "ticket_created"
	ActivityTicketUpdated ActivityKind = "ticket_updated"
	ActivityTicketDeleted ActivityKind = "ticket_deleted"
	ActivityEventChanged  ActivityKind = "event_changed"
)

// IsValid 驗證類型是否有效
func (k ActivityKind) IsValid() bool {
	switch k {
	case ActivityTicketCreated, ActivityTicketUpdated, ActivityTicketDeleted, ActivityEventChanged:
		return true
	}
	return false
}

// TicketActivity 已提交的異動，供 worker 重新計算活動剩餘容量
type TicketActivity struct {
	RequestID  string       `json:"request_id"`
	Kind       ActivityKind `json:"kind"`
	EventID    int          `json:"event_id"`
	TicketID   int          `json:"ticket_id,omitempty"`
	UserID     int          `json:"user_id,omitempty"`
	OccurredAt time.Time    `json:"occurred_at"`
}
