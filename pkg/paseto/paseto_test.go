package pasetotoken

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldz/fieldz_backend/config"
)

func newTestManager(t *testing.T, keys Keys, ttl time.Duration) *Manager {
	t.Helper()
	m, err := New(Config{Mode: keys.Mode, Issuer: "fieldz", Audience: "fieldz-clients", AccessTTL: ttl}, keys)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndVerify(t *testing.T) {
	for _, keys := range []Keys{NewLocalKeys(), NewPublicKeys()} {
		t.Run(string(keys.Mode), func(t *testing.T) {
			m := newTestManager(t, keys, time.Minute)
			sub := Subject{UserID: uuid.New(), SessionID: uuid.New(), Role: "club"}

			tok, err := m.IssueAccess(sub)
			if err != nil {
				t.Fatalf("issue: %v", err)
			}
			claims, err := m.Verify(tok)
			if err != nil {
				t.Fatalf("verify: %v", err)
			}
			if claims.Type != TokenTypeAccess || claims.UserID != sub.UserID || claims.SessionID != sub.SessionID || claims.Role != "club" {
				t.Fatalf("unexpected claims %+v", claims)
			}

			refresh, err := m.IssueRefresh(sub)
			if err != nil {
				t.Fatalf("issue refresh: %v", err)
			}
			rc, err := m.Verify(refresh)
			if err != nil || rc.Type != TokenTypeRefresh {
				t.Fatalf("refresh verify: %v %+v", err, rc)
			}
		})
	}
}

func TestVerifyRejects(t *testing.T) {
	m := newTestManager(t, NewLocalKeys(), time.Minute)
	other := newTestManager(t, NewLocalKeys(), time.Minute)

	tok, err := other.IssueAccess(Subject{UserID: uuid.New(), SessionID: uuid.New(), Role: "player"})
	if err != nil {
		t.Fatal(err)
	}
	var invalid ErrInvalidToken
	if _, err := m.Verify(tok); !errors.As(err, &invalid) {
		t.Fatalf("foreign key: expected ErrInvalidToken, got %v", err)
	}
	if _, err := m.Verify("v4.local.garbage"); !errors.As(err, &invalid) {
		t.Fatalf("garbage: expected ErrInvalidToken, got %v", err)
	}
}

func TestKeysFromConfig(t *testing.T) {
	local := NewLocalKeys()
	pub := NewPublicKeys()
	otherPub := NewPublicKeys()

	tests := []struct {
		name     string
		cfg      config.PasetoConfig
		wantKey  string // config key named in the error, "" for success
		canIssue bool
	}{
		{"local", config.PasetoConfig{Mode: "local", LocalKeyHex: local.Symmetric.ExportHex()}, "", true},
		{"local missing key", config.PasetoConfig{Mode: "local"}, "local_key_hex", false},
		{"local bad hex", config.PasetoConfig{Mode: "local", LocalKeyHex: "zz"}, "local_key_hex", false},
		{"public secret only", config.PasetoConfig{Mode: "public", SecretKeyHex: pub.Secret.ExportHex()}, "", true},
		{"public verify only", config.PasetoConfig{Mode: "public", PublicKeyHex: pub.Public.ExportHex()}, "", false},
		{"public mismatched pair", config.PasetoConfig{Mode: "public", SecretKeyHex: pub.Secret.ExportHex(), PublicKeyHex: otherPub.Public.ExportHex()}, "public_key_hex", false},
		{"public without keys", config.PasetoConfig{Mode: "public"}, "secret_key_hex", false},
		{"unknown mode", config.PasetoConfig{Mode: "jwt"}, "mode", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			keys, err := KeysFromConfig(tt.cfg)
			if tt.wantKey != "" {
				var cfgErr ErrConfig
				if !errors.As(err, &cfgErr) || cfgErr.Key != tt.wantKey {
					t.Fatalf("error = %v, want ErrConfig for %s", err, tt.wantKey)
				}
				return
			}
			if err != nil {
				t.Fatalf("KeysFromConfig: %v", err)
			}
			if keys.CanIssue() != tt.canIssue {
				t.Errorf("CanIssue() = %v, want %v", keys.CanIssue(), tt.canIssue)
			}
		})
	}
}

func TestVerifyTokenType(t *testing.T) {
	m := newTestManager(t, NewLocalKeys(), time.Minute)
	sub := Subject{UserID: uuid.New(), SessionID: uuid.New(), Role: "club"}

	access, _ := m.IssueAccess(sub)
	refresh, _ := m.IssueRefresh(sub)

	if _, err := m.VerifyAccess(access); err != nil {
		t.Fatalf("VerifyAccess(access): %v", err)
	}
	if _, err := m.VerifyRefresh(refresh); err != nil {
		t.Fatalf("VerifyRefresh(refresh): %v", err)
	}
	if _, err := m.VerifyAccess(refresh); !errors.Is(err, ErrWrongType) {
		t.Errorf("VerifyAccess(refresh) error = %v, want ErrWrongType", err)
	}
	if _, err := m.VerifyRefresh(access); !errors.Is(err, ErrWrongType) {
		t.Errorf("VerifyRefresh(access) error = %v, want ErrWrongType", err)
	}

	noSession, _ := m.IssueAccess(Subject{UserID: uuid.New(), Role: "player"})
	var invalid ErrInvalidToken
	if _, err := m.VerifyAccess(noSession); !errors.As(err, &invalid) {
		t.Errorf("token without session: error = %v", err)
	}
}

func TestVerifyExpired(t *testing.T) {
	m := newTestManager(t, NewLocalKeys(), time.Millisecond)
	tok, err := m.IssueAccess(Subject{UserID: uuid.New(), SessionID: uuid.New(), Role: "player"})
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	_, err = m.Verify(tok)
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("error = %v, want ErrExpired", err)
	}
	var invalid ErrInvalidToken
	if !errors.As(err, &invalid) {
		t.Fatalf("expired token error %v is not an ErrInvalidToken", err)
	}
}
