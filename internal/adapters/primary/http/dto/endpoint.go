package dto

import (
	"time"

	"github.com/google/uuid"

	"model-version-registry/internal/core/domain"
)

// DeployModelRequest deploys one version of a model. Model accepts a model id
// or resource name, optionally suffixed with "@version-or-alias".
type DeployModelRequest struct {
	Model       string `json:"model" binding:"required"`
	Version     string `json:"version"`
	DisplayName string `json:"display_name"`
}

type PredictRequest struct {
	Instances []interface{} `json:"instances" binding:"required"`
}

type DeployedModelResponse struct {
	ID             uuid.UUID `json:"id"`
	Model          string    `json:"model"`
	ModelVersionID string    `json:"model_version_id"`
	ServingName    string    `json:"serving_name"`
	URL            string    `json:"url"`
	Ready          bool      `json:"ready"`
	Error          string    `json:"error,omitempty"`
	DeployedAt     string    `json:"deployed_at"`
}

type EndpointResponse struct {
	ID             uuid.UUID               `json:"id"`
	DisplayName    string                  `json:"display_name"`
	DeployedModels []DeployedModelResponse `json:"deployed_models"`
	CreatedAt      string                  `json:"created_at"`
	UpdatedAt      string                  `json:"updated_at"`
}

type PredictResponse struct {
	Predictions     []interface{} `json:"predictions"`
	DeployedModelID uuid.UUID     `json:"deployed_model_id"`
	Model           string        `json:"model"`
	ModelVersionID  string        `json:"model_version_id"`
}

func ToEndpointResponse(e *domain.Endpoint) EndpointResponse {
	deployed := make([]DeployedModelResponse, 0, len(e.DeployedModels))
	for _, dm := range e.DeployedModels {
		deployed = append(deployed, DeployedModelResponse{
			ID:             dm.ID,
			Model:          dm.ModelResourceName,
			ModelVersionID: dm.VersionID,
			ServingName:    dm.ServingName,
			URL:            dm.URL,
			Ready:          dm.Ready,
			Error:          dm.Error,
			DeployedAt:     dm.DeployedAt.Format(time.RFC3339),
		})
	}
	return EndpointResponse{
		ID:             e.ID,
		DisplayName:    e.DisplayName,
		DeployedModels: deployed,
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      e.UpdatedAt.Format(time.RFC3339),
	}
}

func ToPredictResponse(r *domain.PredictResponse) PredictResponse {
	predictions := r.Predictions
	if predictions == nil {
		predictions = []interface{}{}
	}
	return PredictResponse{
		Predictions:     predictions,
		DeployedModelID: r.DeployedModelID,
		Model:           r.ModelResourceName,
		ModelVersionID:  r.ModelVersionID,
	}
}
