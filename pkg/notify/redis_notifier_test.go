package notify

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func TestRedisNotifierAppendsToStream(t *testing.T) {
	srv := miniredis.RunT(t)
	n, err := NewRedisNotifier(RedisNotifierConfig{Addr: srv.Addr()})
	if err != nil {
		t.Fatalf("new notifier: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.Notify(ctx, "user-1", "offer_received", "you received an offer"); err != nil {
		t.Fatalf("notify: %v", err)
	}

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	entries, err := client.XRange(ctx, "revendo:notifications", "-", "+").Result()
	if err != nil {
		t.Fatalf("xrange: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}
	values := entries[0].Values
	if values["target"] != "user-1" || values["subject"] != "offer_received" {
		t.Fatalf("unexpected stream values: %+v", values)
	}
}

func TestRedisNotifierRequiresAddr(t *testing.T) {
	if _, err := NewRedisNotifier(RedisNotifierConfig{}); err == nil {
		t.Fatalf("expected error for missing addr")
	}
}

func TestMemoryNotifierRecords(t *testing.T) {
	n := NewMemoryNotifier()
	if err := n.Notify(context.Background(), "user-1", "subject", "body"); err != nil {
		t.Fatalf("notify: %v", err)
	}
	sent := n.Sent()
	if len(sent) != 1 || sent[0].Target != "user-1" || sent[0].Body != "body" {
		t.Fatalf("unexpected recorded notifications: %+v", sent)
	}
}
