package repositories

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestRedisSessionStore_SetGetClear(t *testing.T) {
	url := os.Getenv("VIDRATE_REDIS_URL")
	if url == "" {
		t.Skip("set VIDRATE_REDIS_URL to run redis integration tests")
	}
	ctx := context.Background()

	client, err := OpenRedis(ctx, url)
	if err != nil {
		t.Fatalf("open redis: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	store := NewRedisSessionStore(client, "test-"+uuid.NewString(), time.Minute)

	if _, ok, err := store.Get(ctx, "token"); err != nil || ok {
		t.Fatalf("expected empty store, got ok=%v err=%v", ok, err)
	}
	if err := store.Set(ctx, "token", "T1"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Set(ctx, "username", "alice"); err != nil {
		t.Fatalf("set username: %v", err)
	}

	value, ok, err := store.Get(ctx, "token")
	if err != nil || !ok || value != "T1" {
		t.Fatalf("expected T1, got %q ok=%v err=%v", value, ok, err)
	}

	ttl, err := client.TTL(ctx, store.key("token")).Result()
	if err != nil || ttl <= 0 {
		t.Fatalf("expected positive ttl, got %v err=%v", ttl, err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "username"); ok {
		t.Fatal("expected username cleared")
	}
}

func TestRedisSessionStoreKeys(t *testing.T) {
	store := NewRedisSessionStore(nil, "", 0)
	if got := store.key("token"); got != "vidrate:session:default:token" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := store.indexKey(); got != "vidrate:session:default:keys" {
		t.Fatalf("unexpected index key %q", got)
	}
}

func TestOpenRedisRejectsBadURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url"); err == nil {
		t.Fatal("expected parse error")
	}
}
