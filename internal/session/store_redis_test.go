package session_test

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-lms/internal/session"
)

func TestRedisStore_UnreachableHost(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping unreachable host test in short mode")
	}

	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:59999",
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer client.Close()

	s := session.NewRedisStore(client, "", time.Hour)
	if _, err := s.Load(t.Context()); err == nil {
		t.Fatal("Load() should return error for unreachable host")
	}
	if err := s.Save(t.Context(), "tok"); err == nil {
		t.Fatal("Save() should return error for unreachable host")
	}
}
