package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newSessionStoreTest(t *testing.T, retention time.Duration) (*Store, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewStore(rdb, "ng", retention)
	return store, mr, func() {
		rdb.Close()
		mr.Close()
	}
}

func TestSaveGetDelete(t *testing.T) {
	store, _, done := newSessionStoreTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	cred := &Credential{
		ClientID:  "client-1",
		Token:     "tok",
		SavedAt:   time.Now().Unix(),
		ExpiresAt: time.Now().Add(time.Hour).Unix(),
	}
	if err := store.Save(ctx, cred); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "client-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Token != "tok" || got.ClientID != "client-1" || got.ExpiresAt != cred.ExpiresAt {
		t.Fatalf("unexpected credential: %+v", got)
	}

	if err := store.Delete(ctx, "client-1"); err != nil {
		t.Fatalf("first delete: %v", err)
	}
	if err := store.Delete(ctx, "client-1"); err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if _, err := store.Get(ctx, "client-1"); !errors.Is(err, ErrCredentialNotFound) {
		t.Fatalf("expected ErrCredentialNotFound, got %v", err)
	}
}

func TestRecordOutlivesTokenByRetention(t *testing.T) {
	store, mr, done := newSessionStoreTest(t, 10*time.Minute)
	defer done()
	ctx := context.Background()

	creds := store.For("client-1")
	if err := creds.SaveToken(ctx, "tok", time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("save token: %v", err)
	}

	mr.FastForward(5 * time.Minute)
	token, err := creds.LoadToken(ctx)
	if err != nil || token != "tok" {
		t.Fatalf("token should survive inside retention window: %q, %v", token, err)
	}

	mr.FastForward(10 * time.Minute)
	token, err = creds.LoadToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("token should be gone after retention window: %q, %v", token, err)
	}
}

func TestClientCredentialsClearAndMissing(t *testing.T) {
	store, _, done := newSessionStoreTest(t, 0)
	defer done()
	ctx := context.Background()

	creds := store.For("client-2")
	token, err := creds.LoadToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("missing credential should load empty: %q, %v", token, err)
	}

	if err := creds.SaveToken(ctx, "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("save token: %v", err)
	}
	if err := creds.ClearToken(ctx); err != nil {
		t.Fatalf("clear token: %v", err)
	}
	if token, _ := creds.LoadToken(ctx); token != "" {
		t.Fatalf("token survived clear: %q", token)
	}
}

func TestCorruptRecordIsDropped(t *testing.T) {
	store, mr, done := newSessionStoreTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := mr.Set(store.key("client-3"), "\x01\x00"); err != nil {
		t.Fatalf("seed corrupt record: %v", err)
	}
	if _, err := store.Get(ctx, "client-3"); !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}

	token, err := store.For("client-3").LoadToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("corrupt record should load empty: %q, %v", token, err)
	}
	if mr.Exists(store.key("client-3")) {
		t.Fatal("corrupt record should be deleted")
	}
}

func TestRedisDownIsWrapped(t *testing.T) {
	store, mr, done := newSessionStoreTest(t, time.Minute)
	defer done()
	mr.Close()

	_, err := store.Get(context.Background(), "client-1")
	if !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable, got %v", err)
	}
	if _, err := store.Ping(context.Background()); !errors.Is(err, ErrRedisUnavailable) {
		t.Fatalf("expected ErrRedisUnavailable from ping, got %v", err)
	}
}

func TestDecodeRejectsTrailingBytes(t *testing.T) {
	data, err := Encode(&Credential{Token: "abc", SavedAt: 1, ExpiresAt: 2})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(append(data, 0)); !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected ErrCorruptCredential, got %v", err)
	}
	if _, err := Decode([]byte{9}); !errors.Is(err, ErrCorruptCredential) {
		t.Fatalf("expected unknown version to be ErrCorruptCredential, got %v", err)
	}
}

func TestUnknownVersionRecordIsDropped(t *testing.T) {
	store, mr, done := newSessionStoreTest(t, time.Minute)
	defer done()
	ctx := context.Background()

	if err := mr.Set(store.key("client-4"), "\x09\x00\x00"); err != nil {
		t.Fatalf("seed record: %v", err)
	}
	token, err := store.For("client-4").LoadToken(ctx)
	if err != nil || token != "" {
		t.Fatalf("unknown-version record should load empty: %q, %v", token, err)
	}
	if mr.Exists(store.key("client-4")) {
		t.Fatal("unknown-version record should be deleted")
	}
}
