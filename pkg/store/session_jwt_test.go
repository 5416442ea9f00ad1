package store

import (
	"testing"
	"time"
)

func newHSStore(t *testing.T, revoker TokenRevoker, opts JWTOptions) *JWTSessionStore {
	t.Helper()
	if opts.Secret == "" {
		opts.Secret = "test-secret"
	}
	if opts.TTL == 0 {
		opts.TTL = time.Minute
	}
	s, err := NewJWTSessionStore(opts, revoker)
	if err != nil {
		t.Fatalf("new jwt session store: %v", err)
	}
	return s
}

func TestJWTSessionStoreRoundTrip(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{})

	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if token == "" {
		t.Fatalf("expected token")
	}
	userID, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if !ok || userID != "user-1" {
		t.Fatalf("unexpected verify result: ok=%v userID=%q", ok, userID)
	}
}

func TestJWTSessionStoreRequiresSecret(t *testing.T) {
	if _, err := NewJWTSessionStore(JWTOptions{}, nil); err == nil {
		t.Fatalf("expected error for missing secret")
	}
}

func TestJWTSessionStoreRejectsForeignSecret(t *testing.T) {
	signing := newHSStore(t, nil, JWTOptions{Secret: "secret-a"})
	verify := newHSStore(t, nil, JWTOptions{Secret: "secret-b"})

	token, err := signing.NewSession("user-claim")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := verify.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected signature mismatch to fail")
	}
}

func TestJWTSessionStoreEnforcesAudience(t *testing.T) {
	signing := newHSStore(t, nil, JWTOptions{Audience: "aud-a"})
	verify := newHSStore(t, nil, JWTOptions{Audience: "aud-b"})

	token, err := signing.NewSession("user-claim")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := verify.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected audience mismatch to fail")
	}
}

func TestJWTSessionStoreEnforcesIssuer(t *testing.T) {
	signing := newHSStore(t, nil, JWTOptions{Issuer: "issuer-a"})
	verify := newHSStore(t, nil, JWTOptions{Issuer: "issuer-b"})

	token, err := signing.NewSession("user-claim")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := verify.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected issuer mismatch to fail")
	}
}

func TestJWTSessionStoreExpiry(t *testing.T) {
	s := newHSStore(t, nil, JWTOptions{
		TTL:    -2 * time.Minute,
		Leeway: time.Millisecond,
	})
	// Negative TTL falls back to the default in the constructor, so sign
	// an expired token through a store with minimal leeway instead.
	if s.ttl != 15*time.Minute {
		t.Fatalf("negative ttl not defaulted, got %v", s.ttl)
	}

	expired := newHSStore(t, nil, JWTOptions{Leeway: time.Millisecond})
	expired.ttl = -2 * time.Minute
	token, err := expired.NewSession("user-expired")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, _, err := expired.GetUserIDByToken(token); err == nil {
		t.Fatalf("expected expired token to fail")
	}
}

func TestJWTSessionStoreRevocation(t *testing.T) {
	revoker := NewMemoryTokenRevoker()
	s := newHSStore(t, revoker, JWTOptions{})

	token, err := s.NewSession("user-revoke")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err == nil || ok {
		t.Fatalf("expected revoked token to fail, ok=%v err=%v", ok, err)
	}
}
