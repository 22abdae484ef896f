package dto

import (
	"time"

	"model-version-registry/internal/core/domain"
)

// UploadModelRequest registers an artifact as a new model, or as the next
// version of parent_model when that is set.
type UploadModelRequest struct {
	ModelID            string            `json:"model_id"`
	ParentModel        string            `json:"parent_model"`
	DisplayName        string            `json:"display_name"`
	ArtifactURI        string            `json:"artifact_uri" binding:"required"`
	VersionDescription string            `json:"version_description"`
	VersionAliases     []string          `json:"version_aliases"`
	IsDefaultVersion   *bool             `json:"is_default_version"`
	ModelFramework     string            `json:"model_framework"`
	Labels             map[string]string `json:"labels"`
}

type UpdateModelVersionRequest struct {
	VersionDescription *string `json:"version_description" binding:"required"`
}

type VersionAliasesRequest struct {
	Aliases []string `json:"aliases" binding:"required,min=1"`
}

type ModelVersionResponse struct {
	ModelID             string            `json:"model_id"`
	ResourceName        string            `json:"resource_name"`
	DisplayName         string            `json:"display_name"`
	VersionID           string            `json:"version_id"`
	VersionResourceName string            `json:"version_resource_name"`
	VersionDescription  string            `json:"version_description"`
	VersionAliases      []string          `json:"version_aliases"`
	IsDefaultVersion    bool              `json:"is_default_version"`
	URI                 string            `json:"uri"`
	ModelFramework      string            `json:"model_framework"`
	Labels              map[string]string `json:"labels"`
	CreatedAt           string            `json:"created_at"`
	UpdatedAt           string            `json:"updated_at"`
}

type ListModelVersionsResponse struct {
	Items      []ModelVersionResponse `json:"items"`
	Total      int                    `json:"total"`
	PageSize   int                    `json:"page_size"`
	NextOffset int                    `json:"next_offset"`
}

func ToNewVersion(req *UploadModelRequest) domain.NewVersion {
	return domain.NewVersion{
		ArtifactURI:    req.ArtifactURI,
		Description:    req.VersionDescription,
		Aliases:        req.VersionAliases,
		IsDefault:      req.IsDefaultVersion,
		ModelFramework: req.ModelFramework,
		Labels:         req.Labels,
	}
}

func ToModelVersionResponse(m *domain.RegisteredModel, v *domain.ModelVersion) ModelVersionResponse {
	aliases := v.Aliases
	if aliases == nil {
		aliases = []string{}
	}
	labels := v.Labels
	if labels == nil {
		labels = map[string]string{}
	}
	return ModelVersionResponse{
		ModelID:             m.ModelID,
		ResourceName:        m.ResourceName,
		DisplayName:         m.DisplayName,
		VersionID:           v.VersionID,
		VersionResourceName: domain.VersionResourceName(m.ResourceName, v.VersionID),
		VersionDescription:  v.Description,
		VersionAliases:      aliases,
		IsDefaultVersion:    v.IsDefault,
		URI:                 v.ArtifactURI,
		ModelFramework:      v.ModelFramework,
		Labels:              labels,
		CreatedAt:           v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           v.UpdatedAt.Format(time.RFC3339),
	}
}
