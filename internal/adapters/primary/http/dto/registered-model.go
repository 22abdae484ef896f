package dto

import (
	"time"

	"model-version-registry/internal/core/domain"
)

type RegisteredModelResponse struct {
	ModelID          string            `json:"model_id"`
	ResourceName     string            `json:"resource_name"`
	DisplayName      string            `json:"display_name"`
	Labels           map[string]string `json:"labels"`
	VersionCount     int               `json:"version_count"`
	DefaultVersionID string            `json:"default_version_id"`
	CreatedAt        string            `json:"created_at"`
	UpdatedAt        string            `json:"updated_at"`
}

type ListRegisteredModelsResponse struct {
	Items      []RegisteredModelResponse `json:"items"`
	Total      int                       `json:"total"`
	PageSize   int                       `json:"page_size"`
	NextOffset int                       `json:"next_offset"`
}

func ToRegisteredModelResponse(m *domain.RegisteredModel) RegisteredModelResponse {
	labels := m.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	return RegisteredModelResponse{
		ModelID:          m.ModelID,
		ResourceName:     m.ResourceName,
		DisplayName:      m.DisplayName,
		Labels:           labels,
		VersionCount:     m.VersionCount,
		DefaultVersionID: m.DefaultVersionID,
		CreatedAt:        m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        m.UpdatedAt.Format(time.RFC3339),
	}
}
