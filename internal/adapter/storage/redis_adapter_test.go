package storage

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		addr = "localhost:6379"
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	return rdb
}

func TestSetIdempotency(t *testing.T) {
	rdb := getRedisClient(t)
	defer rdb.Close()

	ctx := context.Background()
	adapter := NewRedisAdapter(rdb)
	key := "order:test-user:" + uuid.NewString()
	defer rdb.Del(ctx, key)

	ok, err := adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("SetIdempotency failed: %v", err)
	}
	if !ok {
		t.Error("expected first claim to succeed")
	}

	ok, err = adapter.SetIdempotency(ctx, key)
	if err != nil {
		t.Fatalf("SetIdempotency failed: %v", err)
	}
	if ok {
		t.Error("expected second claim to fail")
	}
}
