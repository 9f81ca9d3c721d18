package realtime

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
)

type fakeConn struct {
	id string
}

func (f *fakeConn) ID() string { return f.id }

func (f *fakeConn) Emit(ctx context.Context, event string, payload any) error { return nil }

func TestConnectReplacesOlderConnection(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()

	first := &fakeConn{id: "conn-1"}
	second := &fakeConn{id: "conn-2"}

	reg.Connect(userID, first)
	reg.Connect(userID, second)

	got, ok := reg.Lookup(userID)
	if !ok {
		t.Fatal("expected a live connection")
	}
	if got.ID() != "conn-2" {
		t.Fatalf("expected newest connection, got %s", got.ID())
	}
}

func TestDisconnectOnlyClearsOwnConnection(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()

	first := &fakeConn{id: "conn-1"}
	second := &fakeConn{id: "conn-2"}

	reg.Connect(userID, first)
	reg.Connect(userID, second)

	// The stale connection's teardown must not clobber the newer one.
	reg.Disconnect(userID, first)
	if _, ok := reg.Lookup(userID); !ok {
		t.Fatal("stale disconnect removed the newer connection")
	}

	reg.Disconnect(userID, second)
	if _, ok := reg.Lookup(userID); ok {
		t.Fatal("expected no connection after own disconnect")
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	userID := uuid.New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		conn := &fakeConn{id: uuid.NewString()}
		wg.Add(2)
		go func() {
			defer wg.Done()
			reg.Connect(userID, conn)
		}()
		go func() {
			defer wg.Done()
			reg.Lookup(userID)
		}()
	}
	wg.Wait()
}
