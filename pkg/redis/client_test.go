package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestDriverLocationLifecycle(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	if err := client.StoreDriverLocation(ctx, "driver-1", 40.7128, -74.006, 5*time.Minute); err != nil {
		t.Fatalf("store failed: %v", err)
	}

	lat, lng, ok, err := client.GetDriverLocation(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected a cached location")
	}
	if lat != 40.7128 || lng != -74.006 {
		t.Fatalf("unexpected coordinates %v,%v", lat, lng)
	}

	if err := client.Del(ctx, client.DriverLocationKey("driver-1")); err != nil {
		t.Fatalf("del failed: %v", err)
	}
	_, _, ok, err = client.GetDriverLocation(ctx, "driver-1")
	if err != nil {
		t.Fatalf("get after delete failed: %v", err)
	}
	if ok {
		t.Fatal("expected cache miss after delete")
	}
}

func TestGetDriverLocationRejectsMalformedValue(t *testing.T) {
	ctx := context.Background()
	mock := newMockCmdable()
	client := &Client{store: mock}

	mock.data[client.DriverLocationKey("driver-1")] = "garbage"
	if _, _, _, err := client.GetDriverLocation(ctx, "driver-1"); err == nil {
		t.Fatal("expected error for malformed cached value")
	}
}

func TestKeyBuilders(t *testing.T) {
	client := &Client{}
	if got := client.CounterKey("hits"); got != "ff:counter:hits" {
		t.Fatalf("unexpected counter key %s", got)
	}
	if got := client.DriverLocationKey("driver-1"); got != "ff:driver_location:driver-1" {
		t.Fatalf("unexpected driver location key %s", got)
	}
}

type mockCmdable struct {
	data        map[string]string
	incr        map[string]int64
	expireCalls []expireCall
}

type expireCall struct {
	key string
	ttl time.Duration
}

func newMockCmdable() *mockCmdable {
	return &mockCmdable{
		data: make(map[string]string),
		incr: make(map[string]int64),
	}
}

func (m *mockCmdable) Ping(context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", nil)
}

func (m *mockCmdable) Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd {
	m.data[key] = fmt.Sprint(value)
	return redis.NewStatusResult("OK", nil)
}

func (m *mockCmdable) Get(ctx context.Context, key string) *redis.StringCmd {
	v, ok := m.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (m *mockCmdable) SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd {
	if _, exists := m.data[key]; exists {
		return redis.NewBoolResult(false, nil)
	}
	m.data[key] = fmt.Sprint(value)
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Incr(ctx context.Context, key string) *redis.IntCmd {
	m.incr[key]++
	return redis.NewIntResult(m.incr[key], nil)
}

func (m *mockCmdable) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	m.expireCalls = append(m.expireCalls, expireCall{key: key, ttl: expiration})
	return redis.NewBoolResult(true, nil)
}

func (m *mockCmdable) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	for _, key := range keys {
		delete(m.data, key)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}
