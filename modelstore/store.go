package modelstore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrArtifactNotFound is returned when no artifact matches a lookup.
var ErrArtifactNotFound = errors.New("artifact not found")

// ArtifactStore persists model artifacts. Versions are assigned per name
// and at most one version of a name is active.
type ArtifactStore interface {
	// Add validates a, assigns its ID, version and creation time, and
	// stores it. An active artifact deactivates the other versions.
	Add(ctx context.Context, a *Artifact) error

	// Get retrieves an artifact by ID
	Get(ctx context.Context, id uuid.UUID) (*Artifact, error)

	// GetActive retrieves the active version of name
	GetActive(ctx context.Context, name string) (*Artifact, error)

	// List returns every artifact ordered by name, then version
	List(ctx context.Context) ([]*Artifact, error)

	// Activate makes id the active version of its name
	Activate(ctx context.Context, id uuid.UUID) error
}

// InMemoryArtifactStore implements ArtifactStore using an in-memory map.
type InMemoryArtifactStore struct {
	artifacts map[uuid.UUID]*Artifact
	mu        sync.RWMutex
}

// NewInMemoryArtifactStore creates an empty in-memory store.
func NewInMemoryArtifactStore() *InMemoryArtifactStore {
	return &InMemoryArtifactStore{
		artifacts: make(map[uuid.UUID]*Artifact),
	}
}

func (s *InMemoryArtifactStore) Add(_ context.Context, a *Artifact) error {
	if err := ValidateArtifact(a); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	version := 0
	for _, existing := range s.artifacts {
		if existing.Name == a.Name && existing.Version > version {
			version = existing.Version
		}
	}

	a.ID = uuid.New()
	a.Version = version + 1
	a.CreatedAt = time.Now().UTC()
	if a.Active {
		s.deactivate(a.Name)
	}
	s.artifacts[a.ID] = clone(a)
	return nil
}

func (s *InMemoryArtifactStore) Get(_ context.Context, id uuid.UUID) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.artifacts[id]
	if !ok {
		return nil, fmt.Errorf("artifact %s: %w", id, ErrArtifactNotFound)
	}
	return clone(a), nil
}

func (s *InMemoryArtifactStore) GetActive(_ context.Context, name string) (*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.artifacts {
		if a.Name == name && a.Active {
			return clone(a), nil
		}
	}
	return nil, fmt.Errorf("no active artifact named %s: %w", name, ErrArtifactNotFound)
}

func (s *InMemoryArtifactStore) List(_ context.Context) ([]*Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := make([]*Artifact, 0, len(s.artifacts))
	for _, a := range s.artifacts {
		list = append(list, clone(a))
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].Version < list[j].Version
	})
	return list, nil
}

func (s *InMemoryArtifactStore) Activate(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.artifacts[id]
	if !ok {
		return fmt.Errorf("artifact %s: %w", id, ErrArtifactNotFound)
	}
	s.deactivate(a.Name)
	a.Active = true
	return nil
}

// deactivate must be called with mu held.
func (s *InMemoryArtifactStore) deactivate(name string) {
	for _, a := range s.artifacts {
		if a.Name == name {
			a.Active = false
		}
	}
}

func clone(a *Artifact) *Artifact {
	c := *a
	c.FeatureNames = slices.Clone(a.FeatureNames)
	c.Coefficients = slices.Clone(a.Coefficients)
	return &c
}
