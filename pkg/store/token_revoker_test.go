package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
)

func TestMemoryTokenRevoker(t *testing.T) {
	r := NewMemoryTokenRevoker()

	if revoked, err := r.IsRevoked("token-a"); err != nil || revoked {
		t.Fatalf("fresh token revoked=%v err=%v", revoked, err)
	}
	if err := r.Revoke("token-a", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := r.IsRevoked("token-a"); err != nil || !revoked {
		t.Fatalf("revoked token revoked=%v err=%v", revoked, err)
	}
	// Zero TTL revocations are dropped; the token is already expired.
	if err := r.Revoke("token-b", 0); err != nil {
		t.Fatalf("revoke zero ttl: %v", err)
	}
	if revoked, _ := r.IsRevoked("token-b"); revoked {
		t.Fatalf("zero-ttl token should not be tracked")
	}
}

func TestRedisTokenRevoker(t *testing.T) {
	redis := miniredis.RunT(t)
	r := NewRedisTokenRevoker(redis.Addr(), "")

	if err := r.Revoke("token-a", time.Minute); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if revoked, err := r.IsRevoked("token-a"); err != nil || !revoked {
		t.Fatalf("revoked token revoked=%v err=%v", revoked, err)
	}
	redis.FastForward(2 * time.Minute)
	if revoked, err := r.IsRevoked("token-a"); err != nil || revoked {
		t.Fatalf("expired revocation revoked=%v err=%v", revoked, err)
	}
}
