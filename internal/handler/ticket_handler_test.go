package handler_test

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"go-gin-event-ticketing/internal/admission"
	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/model"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPurchaseTicket(t *testing.T) {
	eventID := uuid.New()
	target := "/api/v1/events/" + eventID.String() + "/tickets"
	created := &model.Ticket{ID: 9, TicketCode: "ABCDEF012345", Quantity: 2, Type: model.TicketTypeVIP, UserID: buyerID}

	t.Run("Success - numeric quantity", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, model.TicketRequest{Quantity: "2", Type: "VIP"}).
			Return(created, nil).Once()

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": 2, "type": "VIP"}`), buyerID)

		assert.Equal(t, http.StatusCreated, w.Code)
		body := decode[model.Ticket](t, w)
		assert.Equal(t, "ABCDEF012345", body.TicketCode)
		s.tickets.AssertExpectations(t)
	})

	t.Run("Success - string quantity", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, model.TicketRequest{Quantity: "2", Type: "VIP"}).
			Return(created, nil).Once()

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": "2", "type": "VIP"}`), buyerID)

		assert.Equal(t, http.StatusCreated, w.Code)
		s.tickets.AssertExpectations(t)
	})

	t.Run("Success - form body", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, model.TicketRequest{Quantity: "abc", Type: "GENERAL"}).
			Return(created, nil).Once()

		w := s.do(t, formRequest(http.MethodPost, target, url.Values{"quantity": {"abc"}, "type": {"GENERAL"}}), buyerID)

		assert.Equal(t, http.StatusCreated, w.Code)
		s.tickets.AssertExpectations(t)
	})

	t.Run("Failed - rejection returns reason list", func(t *testing.T) {
		s := newTestServer(t)
		rejection := &admission.Rejection{Code: admission.CodeNoCapacity, Reason: "no capacity available"}
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, mock.Anything).Return(nil, rejection).Once()

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": 1, "type": "GENERAL"}`), buyerID)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		body := decode[map[string][]string](t, w)
		assert.Equal(t, []string{"no capacity available"}, body["errors"])
	})

	t.Run("Failed - event not found", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, mock.Anything).Return(nil, apperrors.ErrEventNotFound).Once()

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": 1, "type": "GENERAL"}`), buyerID)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Failed - malformed JSON", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": }`), buyerID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		s.tickets.AssertNotCalled(t, "Purchase", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Failed - invalid uuid", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, jsonRequest(http.MethodPost, "/api/v1/events/not-a-uuid/tickets", `{}`), buyerID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Failed - missing token", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": 1, "type": "GENERAL"}`), 0)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("Failed - unexpected error", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Purchase", mock.Anything, buyerID, eventID, mock.Anything).Return(nil, errors.New("db down")).Once()

		w := s.do(t, jsonRequest(http.MethodPost, target, `{"quantity": 1, "type": "GENERAL"}`), buyerID)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestEditTicket(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Edit", mock.Anything, buyerID, 5, model.TicketRequest{Quantity: "3", Type: "GENERAL"}).
			Return(&model.Ticket{ID: 5, Quantity: 3, Type: model.TicketTypeGeneral}, nil).Once()

		w := s.do(t, jsonRequest(http.MethodPut, "/api/v1/tickets/5", `{"quantity": 3, "type": "GENERAL"}`), buyerID)

		assert.Equal(t, http.StatusOK, w.Code)
		s.tickets.AssertExpectations(t)
	})

	t.Run("Failed - foreign ticket redirects to list", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Edit", mock.Anything, buyerID, 5, mock.Anything).Return(nil, apperrors.ErrNotTicketOwner).Once()

		w := s.do(t, jsonRequest(http.MethodPut, "/api/v1/tickets/5", `{"quantity": 3, "type": "GENERAL"}`), buyerID)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, handler.TicketsPath, w.Header().Get("Location"))
	})

	t.Run("Failed - invalid id", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do(t, jsonRequest(http.MethodPut, "/api/v1/tickets/abc", `{}`), buyerID)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDeleteTicket(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Delete", mock.Anything, buyerID, 5).Return(nil).Once()

		w := s.do(t, jsonRequest(http.MethodDelete, "/api/v1/tickets/5", nil), buyerID)

		assert.Equal(t, http.StatusNoContent, w.Code)
		s.tickets.AssertExpectations(t)
	})

	t.Run("Failed - foreign ticket redirects to list", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("Delete", mock.Anything, buyerID, 5).Return(apperrors.ErrNotTicketOwner).Once()

		w := s.do(t, jsonRequest(http.MethodDelete, "/api/v1/tickets/5", nil), buyerID)

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, handler.TicketsPath, w.Header().Get("Location"))
	})
}

func TestReadTickets(t *testing.T) {
	t.Run("List", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("ListByUser", mock.Anything, buyerID).
			Return([]*model.Ticket{{ID: 1}, {ID: 2}}, nil).Once()

		w := s.do(t, jsonRequest(http.MethodGet, "/api/v1/tickets", nil), buyerID)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decode[[]model.Ticket](t, w), 2)
	})

	t.Run("Get - not found", func(t *testing.T) {
		s := newTestServer(t)
		s.tickets.On("GetForUser", mock.Anything, buyerID, 7).Return(nil, apperrors.ErrTicketNotFound).Once()

		w := s.do(t, jsonRequest(http.MethodGet, "/api/v1/tickets/7", nil), buyerID)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
