package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

type endpointRepo struct {
	mu        sync.RWMutex
	endpoints map[uuid.UUID]*domain.Endpoint
}

func NewEndpointRepository() ports.EndpointRepository {
	return &endpointRepo{endpoints: make(map[uuid.UUID]*domain.Endpoint)}
}

func (r *endpointRepo) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.endpoints[endpoint.ID] = cloneEndpoint(endpoint)
	return nil
}

func (r *endpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.endpoints[id]
	if !ok {
		return nil, domain.ErrEndpointNotFound
	}
	return cloneEndpoint(e), nil
}

func (r *endpointRepo) Update(ctx context.Context, endpoint *domain.Endpoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.endpoints[endpoint.ID]; !ok {
		return domain.ErrEndpointNotFound
	}
	r.endpoints[endpoint.ID] = cloneEndpoint(endpoint)
	return nil
}

func cloneEndpoint(e *domain.Endpoint) *domain.Endpoint {
	c := *e
	c.DeployedModels = make([]*domain.DeployedModel, len(e.DeployedModels))
	for i, dm := range e.DeployedModels {
		d := *dm
		c.DeployedModels[i] = &d
	}
	return &c
}
