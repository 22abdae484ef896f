package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

type endpointRepo struct {
	pool *pgxpool.Pool
}

func NewEndpointRepository(pool *pgxpool.Pool) ports.EndpointRepository {
	return &endpointRepo{pool: pool}
}

func (r *endpointRepo) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	deployedJSON, err := json.Marshal(endpoint.DeployedModels)
	if err != nil {
		return fmt.Errorf("marshal deployed models: %w", err)
	}

	query := `
		INSERT INTO endpoint (id, display_name, deployed_models, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`
	_, err = r.pool.Exec(ctx, query,
		endpoint.ID, endpoint.DisplayName, deployedJSON, endpoint.CreatedAt, endpoint.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("create endpoint: %w", err)
	}
	return nil
}

func (r *endpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	query := `
		SELECT id, display_name, deployed_models, created_at, updated_at
		FROM endpoint
		WHERE id = $1
	`
	e := &domain.Endpoint{}
	var deployedJSON []byte
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.DisplayName, &deployedJSON, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEndpointNotFound
		}
		return nil, fmt.Errorf("get endpoint by id: %w", err)
	}

	e.DeployedModels = []*domain.DeployedModel{}
	if len(deployedJSON) > 0 {
		if err := json.Unmarshal(deployedJSON, &e.DeployedModels); err != nil {
			return nil, fmt.Errorf("unmarshal deployed models: %w", err)
		}
	}
	return e, nil
}

func (r *endpointRepo) Update(ctx context.Context, endpoint *domain.Endpoint) error {
	deployedJSON, err := json.Marshal(endpoint.DeployedModels)
	if err != nil {
		return fmt.Errorf("marshal deployed models: %w", err)
	}

	result, err := r.pool.Exec(ctx, `
		UPDATE endpoint
		SET display_name=$1, deployed_models=$2, updated_at=$3
		WHERE id=$4
	`, endpoint.DisplayName, deployedJSON, endpoint.UpdatedAt, endpoint.ID)
	if err != nil {
		return fmt.Errorf("update endpoint: %w", err)
	}
	if result.RowsAffected() == 0 {
		return domain.ErrEndpointNotFound
	}
	return nil
}
