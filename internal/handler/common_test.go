package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"go-gin-event-ticketing/internal/auth"
	"go-gin-event-ticketing/internal/handler"
	"go-gin-event-ticketing/internal/mocks"
	"go-gin-event-ticketing/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

const (
	buyerID     = 2
	organizerID = 1
)

type testServer struct {
	router  *gin.Engine
	tokens  *auth.TokenManager
	tickets *mocks.TicketServiceMock
	events  *mocks.EventServiceMock
	users   *mocks.UserServiceMock
	catalog *mocks.CatalogServiceMock
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	s := &testServer{
		tokens:  auth.NewTokenManager("handler-secret", time.Hour),
		tickets: mocks.NewTicketServiceMock(),
		events:  mocks.NewEventServiceMock(),
		users:   mocks.NewUserServiceMock(),
		catalog: mocks.NewCatalogServiceMock(),
	}
	s.router = handler.NewRouter(handler.RouterConfig{
		Tokens:  s.tokens,
		Auth:    handler.NewAuthHandler(s.users),
		Events:  handler.NewEventHandler(s.events, s.tickets),
		Tickets: handler.NewTicketHandler(s.tickets),
		Catalog: handler.NewCatalogHandler(s.catalog),
	})
	return s
}

func (s *testServer) token(t *testing.T, userID int, organizer bool) string {
	t.Helper()
	raw, _, err := s.tokens.Issue(&model.User{ID: userID, Username: "u", IsOrganizer: organizer})
	require.NoError(t, err)
	return raw
}

// do 送出請求；userID 為 0 時不帶 token
func (s *testServer) do(t *testing.T, req *http.Request, userID int) *httptest.ResponseRecorder {
	t.Helper()
	if userID != 0 {
		req.Header.Set("Authorization", "Bearer "+s.token(t, userID, userID == organizerID))
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(method, target string, body interface{}) *http.Request {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}
