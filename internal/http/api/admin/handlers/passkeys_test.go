package handlers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/redis/go-redis/v9"
)

func exerciseCeremonyStore(t *testing.T, store ceremonyStore) {
	t.Helper()
	ctx := context.Background()
	data := webauthn.SessionData{Challenge: "c-1", UserID: []byte{0, 0, 0, 0, 0, 0, 0, 7}}

	if errPut := store.Put(ctx, "login:c-1", data); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	got, ok, errTake := store.Take(ctx, "login:c-1")
	if errTake != nil || !ok {
		t.Fatalf("take: ok=%v err=%v", ok, errTake)
	}
	if got.Challenge != "c-1" || len(got.UserID) != 8 || got.UserID[7] != 7 {
		t.Fatalf("unexpected ceremony %+v", got)
	}
	if _, ok, errTake = store.Take(ctx, "login:c-1"); errTake != nil || ok {
		t.Fatalf("second take: expected miss, got ok=%v err=%v", ok, errTake)
	}
	if _, ok, errTake = store.Take(ctx, "login:unknown"); errTake != nil || ok {
		t.Fatalf("unknown key: expected miss, got ok=%v err=%v", ok, errTake)
	}
}

func TestMemoryCeremonyStore(t *testing.T) {
	store := newMemoryCeremonyStore()
	exerciseCeremonyStore(t, store)

	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	if errPut := store.Put(context.Background(), "register:1", webauthn.SessionData{Challenge: "c-2"}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	now = now.Add(ceremonyTTL + time.Second)
	if _, ok, _ := store.Take(context.Background(), "register:1"); ok {
		t.Fatalf("expected expired ceremony to be gone")
	}

	if errPut := store.Put(context.Background(), "register:2", webauthn.SessionData{Challenge: "c-3", Expires: now.Add(-time.Second)}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if errPut := store.Put(context.Background(), "register:3", webauthn.SessionData{Challenge: "c-4"}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if _, stale := store.items["register:2"]; stale {
		t.Fatalf("expected expired entries to be pruned on put")
	}
}

func TestRedisCeremonyStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := &redisCeremonyStore{client: client, now: time.Now}
	exerciseCeremonyStore(t, store)

	if errPut := store.Put(context.Background(), "register:9", webauthn.SessionData{Challenge: "c-9"}); errPut != nil {
		t.Fatalf("put: %v", errPut)
	}
	if ttl := mr.TTL(ceremonyRedisPrefix + "register:9"); ttl <= 0 || ttl > ceremonyTTL {
		t.Fatalf("expected ttl within %s, got %s", ceremonyTTL, ttl)
	}
	mr.FastForward(ceremonyTTL + time.Second)
	if _, ok, errTake := store.Take(context.Background(), "register:9"); errTake != nil || ok {
		t.Fatalf("expected expired ceremony to be gone, got ok=%v err=%v", ok, errTake)
	}
}
