package service_test

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go-gin-event-ticketing/internal/cache"
	"go-gin-event-ticketing/internal/model"
	"go-gin-event-ticketing/internal/repository"
	apperrors "go-gin-event-ticketing/pkg/app_errors"

	"github.com/google/uuid"
)

// memStore 記憶體版資料庫。WithTx 以互斥鎖讓交易依序執行，失敗時還原快照。
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID     int
	users      map[int]model.User
	events     map[int]model.Event
	tickets    map[int]model.Ticket
	venues     map[int]model.Venue
	categories map[int]model.Category

	// 接下來 N 次建立票券回傳代碼衝突
	codeConflicts int
	// 不為 nil 時彙總查詢回傳此錯誤
	aggregateErr error
	// 不為 nil 時場地與分類查詢回傳此錯誤
	lookupErr error
}

type inTxKey struct{}

func newMemStore() *memStore {
	return &memStore{
		users:      map[int]model.User{},
		events:     map[int]model.Event{},
		tickets:    map[int]model.Ticket{},
		venues:     map[int]model.Venue{},
		categories: map[int]model.Category{},
	}
}

func (s *memStore) id() int {
	s.nextID++
	return s.nextID
}

func (s *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(inTxKey{}) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	events := clone(s.events)
	tickets := clone(s.tickets)
	nextID := s.nextID
	s.mu.Unlock()

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		s.mu.Lock()
		s.events, s.tickets, s.nextID = events, tickets, nextID
		s.mu.Unlock()
		return err
	}
	return nil
}

func clone[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *memStore) addUser(username string, organizer bool) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := model.User{ID: s.id(), Username: username, Email: username + "@example.com", IsOrganizer: organizer}
	s.users[u.ID] = u
	return &u
}

func (s *memStore) addEvent(organizerID, general, vip int, state model.EventState) *model.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := model.Event{
		ID:              s.id(),
		EventID:         uuid.New(),
		Title:           "Event",
		Description:     "Description",
		ScheduledAt:     time.Now().Add(time.Hour).UTC(),
		OrganizerID:     organizerID,
		GeneralCapacity: general,
		VipCapacity:     vip,
		State:           state,
	}
	s.events[e.ID] = e
	return &e
}

func (s *memStore) addTicket(eventID, userID, quantity int, ticketType model.TicketType) *model.Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := model.Ticket{
		ID:         s.id(),
		TicketCode: model.GenerateTicketCode(),
		Quantity:   quantity,
		Type:       ticketType,
		UserID:     userID,
		EventID:    eventID,
		BuyDate:    time.Now().UTC(),
	}
	s.tickets[t.ID] = t
	return &t
}

func (s *memStore) ticket(id int) (model.Ticket, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tickets[id]
	return t, ok
}

func (s *memStore) sold(eventID int, ticketType model.TicketType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, t := range s.tickets {
		if t.EventID == eventID && t.Type == ticketType {
			sum += t.Quantity
		}
	}
	return sum
}

func (s *memStore) held(eventID, userID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := 0
	for _, t := range s.tickets {
		if t.EventID == eventID && t.UserID == userID {
			sum += t.Quantity
		}
	}
	return sum
}

// --- events ---

type memEvents struct{ s *memStore }

func (r memEvents) Create(_ context.Context, event *model.Event) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e := *event
	e.ID = r.s.id()
	e.CreatedAt = time.Now().UTC()
	e.UpdatedAt = e.CreatedAt
	r.s.events[e.ID] = e
	return &e, nil
}

func (r memEvents) List(_ context.Context) ([]*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	events := make([]*model.Event, 0, len(r.s.events))
	for _, e := range r.s.events {
		e := e
		events = append(events, &e)
	}
	sort.Slice(events, func(i, j int) bool { return events[i].ScheduledAt.Before(events[j].ScheduledAt) })
	return events, nil
}

func (r memEvents) FindByID(_ context.Context, id int) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	e, ok := r.s.events[id]
	if !ok {
		return nil, apperrors.ErrEventNotFound
	}
	return &e, nil
}

func (r memEvents) FindByEventID(_ context.Context, eventID uuid.UUID) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.events {
		if e.EventID == eventID {
			e := e
			return &e, nil
		}
	}
	return nil, apperrors.ErrEventNotFound
}

func (r memEvents) FindByIDForUpdate(ctx context.Context, id int) (*model.Event, error) {
	return r.FindByID(ctx, id)
}

func (r memEvents) FindByEventIDForUpdate(ctx context.Context, eventID uuid.UUID) (*model.Event, error) {
	return r.FindByEventID(ctx, eventID)
}

func (r memEvents) Update(_ context.Context, event *model.Event) (*model.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[event.ID]; !ok {
		return nil, apperrors.ErrEventNotFound
	}
	e := *event
	e.UpdatedAt = time.Now().UTC()
	r.s.events[e.ID] = e
	return &e, nil
}

func (r memEvents) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.events[id]; !ok {
		return apperrors.ErrEventNotFound
	}
	delete(r.s.events, id)
	for tid, t := range r.s.tickets {
		if t.EventID == id {
			delete(r.s.tickets, tid)
		}
	}
	return nil
}

// --- tickets ---

type memTickets struct{ s *memStore }

func (r memTickets) Create(_ context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.codeConflicts > 0 {
		r.s.codeConflicts--
		return nil, apperrors.ErrTicketCodeConflict
	}
	for _, t := range r.s.tickets {
		if t.TicketCode == ticket.TicketCode {
			return nil, apperrors.ErrTicketCodeConflict
		}
	}
	t := *ticket
	t.ID = r.s.id()
	t.BuyDate = time.Now().UTC()
	r.s.tickets[t.ID] = t
	return &t, nil
}

func (r memTickets) FindByID(_ context.Context, id int) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[id]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	return &t, nil
}

func (r memTickets) ListByUser(_ context.Context, userID int) ([]*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	tickets := make([]*model.Ticket, 0)
	for _, t := range r.s.tickets {
		if t.UserID == userID {
			t := t
			tickets = append(tickets, &t)
		}
	}
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].ID > tickets[j].ID })
	return tickets, nil
}

func (r memTickets) UpdateQuantityAndType(_ context.Context, ticket *model.Ticket) (*model.Ticket, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tickets[ticket.ID]
	if !ok {
		return nil, apperrors.ErrTicketNotFound
	}
	t.Quantity = ticket.Quantity
	t.Type = ticket.Type
	r.s.tickets[t.ID] = t
	return &t, nil
}

func (r memTickets) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.tickets[id]; !ok {
		return apperrors.ErrTicketNotFound
	}
	delete(r.s.tickets, id)
	return nil
}

func (r memTickets) SoldByType(_ context.Context, eventID int, ticketType model.TicketType, excludeTicketID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.aggregateErr != nil {
		return 0, r.s.aggregateErr
	}
	sum := 0
	for _, t := range r.s.tickets {
		if t.EventID == eventID && t.Type == ticketType && t.ID != excludeTicketID {
			sum += t.Quantity
		}
	}
	return sum, nil
}

func (r memTickets) UserTotal(_ context.Context, eventID, userID, excludeTicketID int) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.aggregateErr != nil {
		return 0, r.s.aggregateErr
	}
	sum := 0
	for _, t := range r.s.tickets {
		if t.EventID == eventID && t.UserID == userID && t.ID != excludeTicketID {
			sum += t.Quantity
		}
	}
	return sum, nil
}

func (r memTickets) SoldByEvent(_ context.Context, eventID int) (map[model.TicketType]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sold := map[model.TicketType]int{model.TicketTypeGeneral: 0, model.TicketTypeVIP: 0}
	for _, t := range r.s.tickets {
		if t.EventID == eventID {
			sold[t.Type] += t.Quantity
		}
	}
	return sold, nil
}

// --- users ---

type memUsers struct{ s *memStore }

func (r memUsers) Create(_ context.Context, user *model.User) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == user.Username {
			return nil, repository.ErrDuplicateUsername
		}
		if u.Email == user.Email {
			return nil, repository.ErrDuplicateEmail
		}
	}
	u := *user
	u.ID = r.s.id()
	r.s.users[u.ID] = u
	return &u, nil
}

func (r memUsers) FindByID(_ context.Context, id int) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	return &u, nil
}

func (r memUsers) find(match func(model.User) bool) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if match(u) {
			u := u
			return &u, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

func (r memUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Email == email })
}

func (r memUsers) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.find(func(u model.User) bool { return u.Username == username })
}

// --- catalog ---

type memVenues struct{ s *memStore }

func (r memVenues) Create(_ context.Context, venue *model.Venue) (*model.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v := *venue
	v.ID = r.s.id()
	r.s.venues[v.ID] = v
	return &v, nil
}

func (r memVenues) List(_ context.Context) ([]*model.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	venues := make([]*model.Venue, 0, len(r.s.venues))
	for _, v := range r.s.venues {
		v := v
		venues = append(venues, &v)
	}
	return venues, nil
}

func (r memVenues) FindByID(_ context.Context, id int) (*model.Venue, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.lookupErr != nil {
		return nil, r.s.lookupErr
	}
	v, ok := r.s.venues[id]
	if !ok {
		return nil, apperrors.ErrVenueNotFound
	}
	return &v, nil
}

type memCategories struct{ s *memStore }

func (r memCategories) Create(_ context.Context, category *model.Category) (*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.s.categories {
		if c.Name == category.Name {
			return nil, repository.ErrDuplicateCategory
		}
	}
	c := *category
	c.ID = r.s.id()
	r.s.categories[c.ID] = c
	return &c, nil
}

func (r memCategories) List(_ context.Context) ([]*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	categories := make([]*model.Category, 0, len(r.s.categories))
	for _, c := range r.s.categories {
		c := c
		categories = append(categories, &c)
	}
	return categories, nil
}

func (r memCategories) FindByID(_ context.Context, id int) (*model.Category, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.lookupErr != nil {
		return nil, r.s.lookupErr
	}
	c, ok := r.s.categories[id]
	if !ok {
		return nil, apperrors.ErrCategoryNotFound
	}
	return &c, nil
}

// --- availability cache ---

// memCache 記憶體版快取，版本規則與 Redis 實作相同
type memCache struct {
	mu       sync.Mutex
	entries  map[uuid.UUID]model.Availability
	versions map[uuid.UUID]int64
}

func newMemCache() *memCache {
	return &memCache{
		entries:  map[uuid.UUID]model.Availability{},
		versions: map[uuid.UUID]int64{},
	}
}

func (c *memCache) Get(_ context.Context, eventID uuid.UUID) (*model.Availability, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	a, ok := c.entries[eventID]
	if !ok {
		return nil, apperrors.ErrCacheMiss
	}
	return &a, nil
}

func (c *memCache) Version(_ context.Context, eventID uuid.UUID) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.versions[eventID], nil
}

func (c *memCache) Set(_ context.Context, availability *model.Availability, version int64) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.versions[availability.EventID] != version {
		return false, nil
	}
	c.entries[availability.EventID] = *availability
	return true, nil
}

func (c *memCache) Invalidate(_ context.Context, eventID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, eventID)
	c.versions[eventID]++
	return nil
}

// gatedTickets 第一次 SoldByEvent 讀完資料後停住，直到 release 被關閉
type gatedTickets struct {
	memTickets
	once    *sync.Once
	read    chan struct{}
	release chan struct{}
}

func newGatedTickets(s *memStore) gatedTickets {
	return gatedTickets{
		memTickets: memTickets{s},
		once:       &sync.Once{},
		read:       make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (r gatedTickets) SoldByEvent(ctx context.Context, eventID int) (map[model.TicketType]int, error) {
	sold, err := r.memTickets.SoldByEvent(ctx, eventID)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return sold, err
}

var (
	_ repository.TxManager          = (*memStore)(nil)
	_ repository.EventRepository    = memEvents{}
	_ repository.TicketRepository   = memTickets{}
	_ repository.UserRepository     = memUsers{}
	_ repository.VenueRepository    = memVenues{}
	_ repository.CategoryRepository = memCategories{}
	_ repository.TicketRepository   = gatedTickets{}
	_ cache.AvailabilityCache       = (*memCache)(nil)
)

var errBoom = errors.New("boom")
