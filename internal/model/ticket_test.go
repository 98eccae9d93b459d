package model

import (
	"encoding/json"
	"regexp"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateTicketCode(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9A-F]{12}$`)
	seen := make(map[string]struct{})

	for i := 0; i < 1000; i++ {
		code := GenerateTicketCode()
		require.Regexp(t, pattern, code)
		seen[code] = struct{}{}
	}
	assert.Greater(t, len(seen), 990)
}

func TestTicket_Ownership(t *testing.T) {
	ticket := &Ticket{UserID: 4}

	assert.True(t, ticket.CanBeModifiedBy(4))
	assert.False(t, ticket.CanBeModifiedBy(5))
	assert.True(t, ticket.CanBeDeletedBy(4))
	assert.False(t, ticket.CanBeDeletedBy(5))
}

func TestTicketType_IsValid(t *testing.T) {
	assert.True(t, TicketTypeGeneral.IsValid())
	assert.True(t, TicketTypeVIP.IsValid())
	assert.False(t, TicketType("general").IsValid())
	assert.False(t, TicketType("").IsValid())
}

func TestNewAvailability(t *testing.T) {
	event := &Event{EventID: uuid.New(), GeneralCapacity: 10, VipCapacity: 2, State: EventStateAvailable}

	a := NewAvailability(event, map[TicketType]int{TicketTypeGeneral: 4, TicketTypeVIP: 3})

	assert.Equal(t, event.EventID, a.EventID)
	assert.True(t, a.CanBeBought)
	assert.Equal(t, 12, a.TotalCapacity)
	assert.Equal(t, 7, a.TicketsSold)
	require.Len(t, a.Types, 2)
	assert.Equal(t, TypeAvailability{Type: TicketTypeGeneral, Capacity: 10, Sold: 4, Remaining: 6}, a.Types[0])
	// 容量調低到已售數量以下時剩餘為 0
	assert.Equal(t, TypeAvailability{Type: TicketTypeVIP, Capacity: 2, Sold: 3, Remaining: 0}, a.Types[1])
}

func TestTicket_JSONOmitsEmptyEvent(t *testing.T) {
	data, err := json.Marshal(&Ticket{ID: 1, TicketCode: "ABC"})
	require.NoError(t, err)
	assert.NotContains(t, string(data), `"event"`)
}
