package middleware_test

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"testing"

	"github.com/aretw0/waypoint/pkg/adapters/memory"
	"github.com/aretw0/waypoint/pkg/domain"
	"github.com/aretw0/waypoint/pkg/persistence/middleware"
	"github.com/aretw0/waypoint/pkg/ports"
)

func generateKey(t *testing.T) []byte {
	t.Helper()
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func encrypted(t *testing.T, next ports.StateStore, active []byte, fallback ...[]byte) ports.StateStore {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
	if err != nil {
		t.Fatalf("NewEncryptionMiddleware: %v", err)
	}
	return mw(next)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlying := memory.NewStore()
	secure := encrypted(t, underlying, generateKey(t))

	ctx := context.Background()
	original := domain.NewSession("s1", "prompt", domain.NewState(map[string]any{"secret": "my-secret-sauce"}))
	original.History = []string{"check_safety", "decide_mode"}
	original.Turn = 3

	if err := secure.Save(ctx, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlying.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if stored.State.Has("secret") {
		t.Fatal("Expected secret to be hidden")
	}
	if !stored.State.Has(middleware.EnvelopeKey) {
		t.Fatal("Expected envelope key in state")
	}
	if len(stored.History) != 0 {
		t.Fatalf("Expected history to be hidden, got %v", stored.History)
	}
	if stored.Node != "prompt" || stored.Turn != 3 {
		t.Fatalf("Expected node and turn in the clear, got %q %d", stored.Node, stored.Turn)
	}

	loaded, err := secure.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	if v, _ := loaded.State.String("secret"); v != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", v)
	}
	if len(loaded.History) != 2 {
		t.Errorf("Expected history restored, got %v", loaded.History)
	}

	ids, err := secure.List(ctx)
	if err != nil || len(ids) != 1 {
		t.Fatalf("List: %v %v", ids, err)
	}
	if err := secure.Delete(ctx, "s1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := secure.Load(ctx, "s1"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlying := memory.NewStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)
	ctx := context.Background()

	secureOld := encrypted(t, underlying, oldKey)
	if err := secureOld.Save(ctx, domain.NewSession("s1", "prompt", domain.NewState(map[string]any{"data": "old"}))); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureNew := encrypted(t, underlying, newKey, oldKey)
	loaded, err := secureNew.Load(ctx, "s1")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if v, _ := loaded.State.String("data"); v != "old" {
		t.Errorf("Decryption with fallback key failed, got %q", v)
	}

	loaded.State = loaded.State.With("data", "new")
	if err := secureNew.Save(ctx, loaded); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureOld.Load(ctx, "s1"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_RejectsPlainSession(t *testing.T) {
	underlying := memory.NewStore()
	ctx := context.Background()
	if err := underlying.Save(ctx, domain.NewSession("plain", "prompt", domain.State{})); err != nil {
		t.Fatal(err)
	}

	if _, err := encrypted(t, underlying, generateKey(t)).Load(ctx, "plain"); err == nil {
		t.Fatal("Expected plain session to be rejected")
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")})
	if !errors.Is(err, middleware.ErrInvalidKey) {
		t.Fatalf("Expected ErrInvalidKey, got %v", err)
	}

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if !errors.Is(err, middleware.ErrInvalidKey) {
		t.Fatalf("Expected ErrInvalidKey for fallback, got %v", err)
	}
}

func TestParseKey(t *testing.T) {
	key := generateKey(t)
	got, err := middleware.ParseKey(base64.StdEncoding.EncodeToString(key))
	if err != nil {
		t.Fatalf("ParseKey: %v", err)
	}
	if string(got) != string(key) {
		t.Fatal("ParseKey returned a different key")
	}

	if _, err := middleware.ParseKey("not base64!"); err == nil {
		t.Error("Expected decode error")
	}
	if _, err := middleware.ParseKey(base64.StdEncoding.EncodeToString([]byte("short"))); !errors.Is(err, middleware.ErrInvalidKey) {
		t.Errorf("Expected ErrInvalidKey, got %v", err)
	}
}
