package authstore

import (
	"errors"
	"sync"
	"testing"
	"time"
)

func TestRegistryReusesStores(t *testing.T) {
	var built int
	r := NewRegistry(func(clientID string) (*Store, error) {
		built++
		return New(NewMemoryCredentials(""), testValidator(), WithClientID(clientID))
	})

	a1, err := r.Get("a")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	a2, _ := r.Get("a")
	b, _ := r.Get("b")

	if a1 != a2 || a1 == b || built != 2 || r.Len() != 2 {
		t.Fatalf("unexpected registry state: built=%d len=%d", built, r.Len())
	}

	r.Forget("a")
	a3, _ := r.Get("a")
	if a3 == a1 {
		t.Fatal("Forget must drop the cached store")
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry(func(string) (*Store, error) { return nil, errors.New("boom") })
	if _, err := r.Get(""); err == nil {
		t.Fatal("empty client id must fail")
	}
	if _, err := r.Get("a"); err == nil {
		t.Fatal("factory error must propagate")
	}
	if r.Len() != 0 {
		t.Fatal("failed builds must not be cached")
	}

	if _, err := NewRegistry(nil).Get("a"); err == nil {
		t.Fatal("nil factory must fail")
	}
}

func TestRegistrySweep(t *testing.T) {
	now := testNow
	r := NewRegistry(func(string) (*Store, error) {
		return New(NewMemoryCredentials(""), testValidator())
	})
	r.now = func() time.Time { return now }

	_, _ = r.Get("old")
	now = now.Add(time.Hour)
	_, _ = r.Get("fresh")

	if removed := r.Sweep(30 * time.Minute); removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 left, got %d", r.Len())
	}
}

func TestRegistryConcurrentGet(t *testing.T) {
	r := NewRegistry(func(string) (*Store, error) {
		return New(NewMemoryCredentials(""), testValidator())
	})

	stores := make([]*Store, 32)
	var wg sync.WaitGroup
	for i := range stores {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			stores[i], _ = r.Get("shared")
		}(i)
	}
	wg.Wait()

	for _, s := range stores {
		if s != stores[0] {
			t.Fatal("concurrent Get must return one store")
		}
	}
}
