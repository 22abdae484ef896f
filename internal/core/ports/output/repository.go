package ports

import (
	"context"

	"github.com/google/uuid"

	"model-version-registry/internal/core/domain"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type ListFilter struct {
	Limit  int
	Offset int
}

// Clamp returns the filter actually applied: a non-positive limit becomes
// DefaultPageSize, limits above MaxPageSize are capped and negative offsets
// start at zero.
func (f ListFilter) Clamp() ListFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// MutateFunc edits a version set in place. Returning an error aborts the
// write and nothing is committed.
type MutateFunc func(set *domain.VersionSet) error

// RegistryStore persists version sets. Writers on the same model are
// serialised and every write is committed all-or-nothing; readers see either
// the state before or after a write, never a partial one.
type RegistryStore interface {
	// CreateModel creates the model and applies fn to its empty version set in
	// the same commit. Fails with domain.ErrModelIDConflict if the id exists.
	CreateModel(ctx context.Context, model *domain.RegisteredModel, fn MutateFunc) (*domain.VersionSet, error)

	// Update applies fn to the current version set of modelID under the
	// model's write lock. Fails with domain.ErrModelNotFound.
	Update(ctx context.Context, modelID string, fn MutateFunc) (*domain.VersionSet, error)

	Get(ctx context.Context, modelID string) (*domain.VersionSet, error)
	List(ctx context.Context, filter ListFilter) ([]*domain.RegisteredModel, int, error)
}

type EndpointRepository interface {
	Create(ctx context.Context, endpoint *domain.Endpoint) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error)
	Update(ctx context.Context, endpoint *domain.Endpoint) error
}
