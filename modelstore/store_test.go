package modelstore

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestInMemoryArtifactStoreAdd(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryArtifactStore()

	first := testArtifact()
	if err := store.Add(ctx, first); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if first.ID == uuid.Nil {
		t.Error("Add() should assign an ID")
	}
	if first.Version != 1 {
		t.Errorf("Version = %d, want 1", first.Version)
	}
	if first.CreatedAt.IsZero() {
		t.Error("Add() should set CreatedAt")
	}

	second := testArtifact()
	second.Version = 99
	if err := store.Add(ctx, second); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if second.Version != 2 {
		t.Errorf("Version = %d, want 2", second.Version)
	}

	other := testArtifact()
	other.Name = "other-model"
	if err := store.Add(ctx, other); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}
	if other.Version != 1 {
		t.Errorf("versions are per name: got %d, want 1", other.Version)
	}
}

func TestInMemoryArtifactStoreAddRejectsInvalid(t *testing.T) {
	store := NewInMemoryArtifactStore()
	a := testArtifact()
	a.Coefficients = nil

	if err := store.Add(context.Background(), a); err == nil {
		t.Fatal("Add() should reject an invalid artifact")
	}
	list, _ := store.List(context.Background())
	if len(list) != 0 {
		t.Errorf("expected empty store, got %d artifacts", len(list))
	}
}

func TestInMemoryArtifactStoreGet(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryArtifactStore()

	a := testArtifact()
	if err := store.Add(ctx, a); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	got, err := store.Get(ctx, a.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != a.Name || got.Version != a.Version {
		t.Errorf("Get() = %+v, want %+v", got, a)
	}

	got.Coefficients[0] = 42
	again, _ := store.Get(ctx, a.ID)
	if again.Coefficients[0] == 42 {
		t.Error("Get() should return a copy")
	}

	_, err = store.Get(ctx, uuid.New())
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestInMemoryArtifactStoreActivation(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryArtifactStore()

	if _, err := store.GetActive(ctx, "insurance-charges"); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}

	v1 := testArtifact()
	v1.Active = true
	if err := store.Add(ctx, v1); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	v2 := testArtifact()
	v2.Active = true
	if err := store.Add(ctx, v2); err != nil {
		t.Fatalf("Add() failed: %v", err)
	}

	active, err := store.GetActive(ctx, "insurance-charges")
	if err != nil {
		t.Fatalf("GetActive() failed: %v", err)
	}
	if active.ID != v2.ID {
		t.Errorf("active = v%d, want v2", active.Version)
	}

	if err := store.Activate(ctx, v1.ID); err != nil {
		t.Fatalf("Activate() failed: %v", err)
	}
	active, _ = store.GetActive(ctx, "insurance-charges")
	if active.ID != v1.ID {
		t.Errorf("active = v%d, want v1", active.Version)
	}

	list, _ := store.List(ctx)
	count := 0
	for _, a := range list {
		if a.Active {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected exactly one active artifact, got %d", count)
	}

	if err := store.Activate(ctx, uuid.New()); !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

func TestInMemoryArtifactStoreListOrder(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryArtifactStore()

	for _, name := range []string{"zeta", "alpha", "zeta", "alpha", "alpha"} {
		a := testArtifact()
		a.Name = name
		if err := store.Add(ctx, a); err != nil {
			t.Fatalf("Add() failed: %v", err)
		}
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() failed: %v", err)
	}

	want := []struct {
		name    string
		version int
	}{{"alpha", 1}, {"alpha", 2}, {"alpha", 3}, {"zeta", 1}, {"zeta", 2}}
	if len(list) != len(want) {
		t.Fatalf("len(List()) = %d, want %d", len(list), len(want))
	}
	for i, w := range want {
		if list[i].Name != w.name || list[i].Version != w.version {
			t.Errorf("List()[%d] = %s v%d, want %s v%d", i, list[i].Name, list[i].Version, w.name, w.version)
		}
	}
}

func TestInMemoryArtifactStoreConcurrentAdd(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryArtifactStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Add(ctx, testArtifact()); err != nil {
				t.Errorf("Add() failed: %v", err)
			}
		}()
	}
	wg.Wait()

	list, _ := store.List(ctx)
	seen := make(map[int]bool)
	for _, a := range list {
		if seen[a.Version] {
			t.Errorf("version %d assigned twice", a.Version)
		}
		seen[a.Version] = true
	}
	if len(seen) != 20 {
		t.Errorf("expected 20 versions, got %d", len(seen))
	}
}
