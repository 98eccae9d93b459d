// Package admission 決定購票與改票請求是否成立。
//
// 規則依序檢查，第一個失敗即回傳 Rejection：
// 活動狀態、主辦人自購、數量、票種、票種容量、每人上限。
// 彙總數量一律排除正在編輯的票券本身。
package admission

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go-gin-event-ticketing/internal/model"
)

// DefaultMaxTicketsPerUser 每位使用者在同一活動的預設持票上限
const DefaultMaxTicketsPerUser = 4

// Operation 區分新購票與改票
type Operation string

const (
	OperationCreate Operation = "create"
	OperationEdit   Operation = "edit"
)

// Code 拒絕原因代碼
type Code string

const (
	CodeEventNotPurchasable   Code = "event_not_purchasable"
	CodeOrganizerSelfPurchase Code = "organizer_self_purchase"
	CodeInvalidQuantity       Code = "invalid_quantity"
	CodeNonPositiveQuantity   Code = "non_positive_quantity"
	CodeInvalidTicketType     Code = "invalid_ticket_type"
	CodeNoCapacity            Code = "no_capacity"
	CodeInsufficientCapacity  Code = "insufficient_capacity"
	CodeUserCapExceeded       Code = "user_cap_exceeded"
)

// Rejection 規則拒絕，Reason 為直接回給使用者的訊息
type Rejection struct {
	Code   Code
	Reason string
}

func (r *Rejection) Error() string {
	return r.Reason
}

func reject(code Code, format string, args ...any) *Rejection {
	return &Rejection{Code: code, Reason: fmt.Sprintf(format, args...)}
}

// AsRejection 取出錯誤鏈中的 Rejection
func AsRejection(err error) (*Rejection, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}

// Tally 提供容量檢查所需的彙總。excludeTicketID 為 0 表示不排除任何票券。
type Tally interface {
	SoldByType(ctx context.Context, eventID int, ticketType model.TicketType, excludeTicketID int) (int, error)
	UserTotal(ctx context.Context, eventID, userID, excludeTicketID int) (int, error)
}

// Request 一次購票或改票請求
type Request struct {
	Event  *model.Event
	UserID int
	// Existing 改票時為被編輯的票券，新購票時為 nil
	Existing *model.Ticket
	Quantity string
	Type     string
}

func (r Request) Operation() Operation {
	if r.Existing != nil {
		return OperationEdit
	}
	return OperationCreate
}

func (r Request) excludeID() int {
	if r.Existing != nil {
		return r.Existing.ID
	}
	return 0
}

// Decision 通過檢查後要寫入的數量與票種
type Decision struct {
	Quantity int
	Type     model.TicketType
}

type Policy struct {
	MaxTicketsPerUser int
}

// NewPolicy 上限小於等於 0 時使用預設值
func NewPolicy(maxTicketsPerUser int) Policy {
	if maxTicketsPerUser <= 0 {
		maxTicketsPerUser = DefaultMaxTicketsPerUser
	}
	return Policy{MaxTicketsPerUser: maxTicketsPerUser}
}

// Evaluate 依序套用規則。
// 呼叫端須在同一個交易內先鎖住活動列，再呼叫 Evaluate 並寫入結果。
func (p Policy) Evaluate(ctx context.Context, req Request, tally Tally) (Decision, error) {
	event := req.Event

	// 1. 活動狀態
	if !event.CanBeBought() {
		return Decision{}, reject(CodeEventNotPurchasable, "cannot purchase — event is %s", event.State)
	}

	// 2. 主辦人不可購買自己的活動（僅限新購票）
	if req.Operation() == OperationCreate && event.IsOrganizedBy(req.UserID) {
		return Decision{}, reject(CodeOrganizerSelfPurchase, "organizers cannot buy tickets to their own event")
	}

	// 3. 數量
	quantity, err := strconv.Atoi(strings.TrimSpace(req.Quantity))
	if err != nil {
		return Decision{}, reject(CodeInvalidQuantity, "invalid quantity")
	}
	if quantity <= 0 {
		return Decision{}, reject(CodeNonPositiveQuantity, "quantity must be greater than zero")
	}

	// 4. 票種
	ticketType := model.TicketType(strings.TrimSpace(req.Type))
	if !ticketType.IsValid() {
		return Decision{}, reject(CodeInvalidTicketType, "invalid ticket type")
	}

	// 5. 票種容量
	sold, err := tally.SoldByType(ctx, event.ID, ticketType, req.excludeID())
	if err != nil {
		return Decision{}, fmt.Errorf("sum sold tickets: %w", err)
	}
	available := max(event.CapacityFor(ticketType)-sold, 0)
	if available == 0 {
		return Decision{}, reject(CodeNoCapacity, "no capacity available")
	}
	if quantity > available {
		return Decision{}, reject(CodeInsufficientCapacity, "insufficient capacity, only %d remaining", available)
	}

	// 6. 每人上限（不分票種）
	userTotal, err := tally.UserTotal(ctx, event.ID, req.UserID, req.excludeID())
	if err != nil {
		return Decision{}, fmt.Errorf("sum user tickets: %w", err)
	}
	if userTotal+quantity > p.limit() {
		return Decision{}, reject(CodeUserCapExceeded,
			"cannot purchase more than %d tickets for this event, you already have %d", p.limit(), userTotal)
	}

	return Decision{Quantity: quantity, Type: ticketType}, nil
}

func (p Policy) limit() int {
	if p.MaxTicketsPerUser <= 0 {
		return DefaultMaxTicketsPerUser
	}
	return p.MaxTicketsPerUser
}

// Apply 將決定寫回票券；新購票時建立新票券並產生代碼
func (d Decision) Apply(req Request) *model.Ticket {
	if req.Existing != nil {
		req.Existing.Quantity = d.Quantity
		req.Existing.Type = d.Type
		return req.Existing
	}
	return &model.Ticket{
		TicketCode: model.GenerateTicketCode(),
		Quantity:   d.Quantity,
		Type:       d.Type,
		UserID:     req.UserID,
		EventID:    req.Event.ID,
	}
}
