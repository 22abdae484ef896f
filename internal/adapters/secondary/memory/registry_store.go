package memory

import (
	"context"
	"sync"
	"sync/atomic"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

// modelEntry holds the committed snapshot of one model. Writers take the
// one-slot semaphore, clone the snapshot, mutate the clone and swap it in;
// readers only ever load a complete snapshot.
type modelEntry struct {
	writer chan struct{}
	snap   atomic.Pointer[domain.VersionSet]
}

type registryStore struct {
	mu     sync.RWMutex
	models map[string]*modelEntry
	order  []string
}

// NewRegistryStore returns an in-process RegistryStore.
func NewRegistryStore() ports.RegistryStore {
	return &registryStore{models: make(map[string]*modelEntry)}
}

func (s *registryStore) CreateModel(ctx context.Context, model *domain.RegisteredModel, fn ports.MutateFunc) (*domain.VersionSet, error) {
	set := domain.NewVersionSet(model).Clone()
	if fn != nil {
		if err := fn(set); err != nil {
			return nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.models[model.ModelID]; exists {
		return nil, domain.ErrModelIDConflict
	}
	e := &modelEntry{writer: make(chan struct{}, 1)}
	e.snap.Store(set)
	s.models[model.ModelID] = e
	s.order = append(s.order, model.ModelID)

	return set.Clone(), nil
}

func (s *registryStore) Update(ctx context.Context, modelID string, fn ports.MutateFunc) (*domain.VersionSet, error) {
	e, err := s.entry(modelID)
	if err != nil {
		return nil, err
	}

	select {
	case e.writer <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-e.writer }()

	next := e.snap.Load().Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.snap.Store(next)

	return next.Clone(), nil
}

func (s *registryStore) Get(ctx context.Context, modelID string) (*domain.VersionSet, error) {
	e, err := s.entry(modelID)
	if err != nil {
		return nil, err
	}
	return e.snap.Load().Clone(), nil
}

func (s *registryStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.RegisteredModel, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := len(s.order)
	models := []*domain.RegisteredModel{}
	for i := filter.Offset; i < total && (filter.Limit <= 0 || len(models) < filter.Limit); i++ {
		models = append(models, s.models[s.order[i]].snap.Load().Summary())
	}
	return models, total, nil
}

func (s *registryStore) entry(modelID string) (*modelEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.models[modelID]
	if !ok {
		return nil, domain.ErrModelNotFound
	}
	return e, nil
}
