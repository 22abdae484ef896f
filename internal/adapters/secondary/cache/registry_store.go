package cache

import (
	"context"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	log "github.com/sirupsen/logrus"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

// registryStore keeps committed version set snapshots in front of another
// RegistryStore. Writes go through to the backing store and replace the cached
// snapshot only after they commit.
//
// Every write bumps the model's generation. A read fills the cache only if the
// generation it observed before loading is still current, so a slow reader
// never overwrites a snapshot stored by a write that committed meanwhile.
type registryStore struct {
	next  ports.RegistryStore
	cache *gocache.Cache

	mu          sync.Mutex
	generations map[string]uint64
}

// NewRegistryStore wraps next with a TTL snapshot cache.
func NewRegistryStore(next ports.RegistryStore, ttl time.Duration) ports.RegistryStore {
	return &registryStore{
		next:        next,
		cache:       gocache.New(ttl, 2*ttl),
		generations: make(map[string]uint64),
	}
}

func (s *registryStore) CreateModel(ctx context.Context, model *domain.RegisteredModel, fn ports.MutateFunc) (*domain.VersionSet, error) {
	set, err := s.next.CreateModel(ctx, model, fn)
	if err != nil {
		return nil, err
	}
	s.store(model.ModelID, set)
	return set, nil
}

func (s *registryStore) Update(ctx context.Context, modelID string, fn ports.MutateFunc) (*domain.VersionSet, error) {
	set, err := s.next.Update(ctx, modelID, fn)
	if err != nil {
		// The outcome of a failed write is unknown (e.g. commit timed out).
		s.store(modelID, nil)
		return nil, err
	}
	s.store(modelID, set)
	return set, nil
}

func (s *registryStore) Get(ctx context.Context, modelID string) (*domain.VersionSet, error) {
	if cached, found := s.cache.Get(modelID); found {
		if set, ok := cached.(*domain.VersionSet); ok {
			log.WithField("model_id", modelID).Debug("version set cache hit")
			return set.Clone(), nil
		}
		log.WithField("model_id", modelID).Error("wrong type in version set cache")
	}

	s.mu.Lock()
	gen := s.generations[modelID]
	s.mu.Unlock()

	set, err := s.next.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.generations[modelID] == gen {
		s.cache.SetDefault(modelID, set.Clone())
	} else {
		log.WithField("model_id", modelID).Debug("version set changed while loading, not caching")
	}
	s.mu.Unlock()
	return set, nil
}

// store records a write: it bumps the generation and caches set, or evicts
// the entry when set is nil.
func (s *registryStore) store(modelID string, set *domain.VersionSet) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.generations[modelID]++
	if set == nil {
		s.cache.Delete(modelID)
		return
	}
	s.cache.SetDefault(modelID, set.Clone())
}

func (s *registryStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.RegisteredModel, int, error) {
	return s.next.List(ctx, filter)
}
