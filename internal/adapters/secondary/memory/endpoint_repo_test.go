package memory

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-version-registry/internal/core/domain"
)

func TestEndpointRepository(t *testing.T) {
	repo := NewEndpointRepository()
	ctx := context.Background()

	endpoint := &domain.Endpoint{
		ID:          uuid.New(),
		DisplayName: "churn",
		DeployedModels: []*domain.DeployedModel{{
			ID:          uuid.New(),
			ServingName: "churn-v1",
		}},
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, repo.Create(ctx, endpoint))

	// Mutating the caller's copy does not leak into the store.
	endpoint.DeployedModels[0].Ready = true

	got, err := repo.GetByID(ctx, endpoint.ID)
	require.NoError(t, err)
	assert.False(t, got.DeployedModels[0].Ready)

	got.DeployedModels[0].Ready = true
	require.NoError(t, repo.Update(ctx, got))

	got, err = repo.GetByID(ctx, endpoint.ID)
	require.NoError(t, err)
	assert.True(t, got.DeployedModels[0].Ready)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrEndpointNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &domain.Endpoint{ID: uuid.New()}), domain.ErrEndpointNotFound)
}
