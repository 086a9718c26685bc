package cache

import (
	"context"
	"testing"
)

func TestNewRedisCacheRejectsBadURL(t *testing.T) {
	if _, err := NewRedisCache(context.Background(), "not-a-redis-url"); err == nil {
		t.Fatalf("NewRedisCache() expected error for bad url")
	}
}
