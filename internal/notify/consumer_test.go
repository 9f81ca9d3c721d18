package notify

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/freshfold/freshfold-backend/internal/realtime"
	"github.com/freshfold/freshfold-backend/internal/requests"
	"github.com/freshfold/freshfold-backend/internal/users"
	"github.com/freshfold/freshfold-backend/pkg/db/models"
	"github.com/freshfold/freshfold-backend/pkg/enums"
	"github.com/freshfold/freshfold-backend/pkg/events"
	"github.com/freshfold/freshfold-backend/pkg/logger"
)

type stubConn struct {
	id     string
	mu     sync.Mutex
	events []string
	err    error
}

func (c *stubConn) ID() string { return c.id }

func (c *stubConn) Emit(ctx context.Context, event string, payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, event)
	return c.err
}

func (c *stubConn) emitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.events...)
}

type stubUsers struct {
	users.Repository
	byID map[uuid.UUID]*models.User
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := s.byID[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

type stubPush struct {
	mu    sync.Mutex
	sends []string
	err   error
}

func (s *stubPush) Send(ctx context.Context, token, title, body, eventName string, data map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sends = append(s.sends, eventName)
	return s.err
}

func (s *stubPush) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sends...)
}

func newConsumer(t *testing.T, registry *realtime.Registry, usersRepo users.Repository, push PushSender) *Consumer {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "notify-test"})
	consumer, err := NewConsumer(registry, usersRepo, push, nil, logg)
	if err != nil {
		t.Fatalf("NewConsumer: %v", err)
	}
	return consumer
}

func requestEvent(notices ...requests.Notice) events.Event {
	return events.Event{
		Name: requests.EventDriverAccepted,
		Payload: requests.RequestEvent{
			RequestID: uuid.New(),
			Status:    enums.RequestStatusDriverAccepted,
			Notices:   notices,
		},
	}
}

func TestHandleEmitsOverLiveSocketOnly(t *testing.T) {
	userID := uuid.New()
	token := "tok-1"
	registry := realtime.NewRegistry()
	conn := &stubConn{id: "conn-1"}
	registry.Connect(userID, conn)

	push := &stubPush{}
	usersRepo := &stubUsers{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID, PushToken: &token},
	}}
	consumer := newConsumer(t, registry, usersRepo, push)

	consumer.Handle(context.Background(), requestEvent(requests.Notice{
		UserID: userID,
		Event:  enums.NotifyEventDriverAcceptedUser,
	}))

	if got := conn.emitted(); len(got) != 1 || got[0] != enums.NotifyEventDriverAcceptedUser.String() {
		t.Fatalf("socket emits = %v, want one driver-accepted event", got)
	}
	if len(push.sent()) != 0 {
		t.Fatalf("push sent despite live socket: %v", push.sent())
	}
}

func TestHandleFallsBackToPushWithoutSocket(t *testing.T) {
	userID := uuid.New()
	token := "tok-1"
	push := &stubPush{}
	usersRepo := &stubUsers{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID, PushToken: &token},
	}}
	consumer := newConsumer(t, realtime.NewRegistry(), usersRepo, push)

	consumer.Handle(context.Background(), requestEvent(requests.Notice{
		UserID:    userID,
		Event:     enums.NotifyEventReadyForPickupUser,
		PushTitle: "Ready",
		PushBody:  "Ready for pickup",
	}))

	if got := push.sent(); len(got) != 1 || got[0] != enums.NotifyEventReadyForPickupUser.String() {
		t.Fatalf("push sends = %v, want one ready-for-pickup push", got)
	}
}

func TestHandleSkipsRecipientsWithNoChannel(t *testing.T) {
	userID := uuid.New()
	push := &stubPush{}
	usersRepo := &stubUsers{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID},
	}}
	consumer := newConsumer(t, realtime.NewRegistry(), usersRepo, push)

	consumer.Handle(context.Background(), requestEvent(requests.Notice{
		UserID: userID,
		Event:  enums.NotifyEventPickedUpUser,
	}))

	if len(push.sent()) != 0 {
		t.Fatalf("push sent to recipient with no token: %v", push.sent())
	}
}

func TestHandleSwallowsPushFailures(t *testing.T) {
	okID, failID := uuid.New(), uuid.New()
	token := "tok"
	push := &stubPush{}
	usersRepo := &stubUsers{byID: map[uuid.UUID]*models.User{
		okID:   {ID: okID, PushToken: &token},
		failID: {ID: failID, PushToken: &token},
	}}
	consumer := newConsumer(t, realtime.NewRegistry(), usersRepo, push)

	push.err = errors.New("fcm unavailable")
	consumer.Handle(context.Background(), requestEvent(
		requests.Notice{UserID: failID, Event: enums.NotifyEventDeliveredUser},
		requests.Notice{UserID: okID, Event: enums.NotifyEventDeliveredUser},
	))

	// Both deliveries were attempted; the failure stayed inside the handler.
	if got := push.sent(); len(got) != 2 {
		t.Fatalf("push attempts = %v, want 2", got)
	}
}

func TestHandleFailedEmitDoesNotFallBackToPush(t *testing.T) {
	userID := uuid.New()
	token := "tok"
	registry := realtime.NewRegistry()
	conn := &stubConn{id: "conn-1", err: errors.New("socket gone")}
	registry.Connect(userID, conn)

	push := &stubPush{}
	usersRepo := &stubUsers{byID: map[uuid.UUID]*models.User{
		userID: {ID: userID, PushToken: &token},
	}}
	consumer := newConsumer(t, registry, usersRepo, push)

	consumer.Handle(context.Background(), requestEvent(requests.Notice{
		UserID: userID,
		Event:  enums.NotifyEventOnTheWayUser,
	}))

	if len(push.sent()) != 0 {
		t.Fatalf("push sent after failed socket emit: %v", push.sent())
	}
}

func TestHandleIgnoresForeignPayloads(t *testing.T) {
	consumer := newConsumer(t, realtime.NewRegistry(), &stubUsers{byID: map[uuid.UUID]*models.User{}}, &stubPush{})
	consumer.Handle(context.Background(), events.Event{Name: "something.else", Payload: 42})
}
