package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Endpoint groups the versions deployed for online prediction.
type Endpoint struct {
	ID             uuid.UUID        `json:"id"`
	DisplayName    string           `json:"display_name"`
	DeployedModels []*DeployedModel `json:"deployed_models"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// DeployedModel is one model version served behind an endpoint.
type DeployedModel struct {
	ID                uuid.UUID `json:"id"`
	ModelID           string    `json:"model_id"`
	ModelResourceName string    `json:"model_resource_name"`
	VersionID         string    `json:"version_id"`
	ServingName       string    `json:"serving_name"`
	Namespace         string    `json:"namespace"`
	ExternalID        string    `json:"external_id"`
	URL               string    `json:"url"`
	Ready             bool      `json:"ready"`
	Error             string    `json:"error,omitempty"`
	DeployedAt        time.Time `json:"deployed_at"`
}

// ReadyModel returns the first deployed model able to serve traffic.
func (e *Endpoint) ReadyModel() *DeployedModel {
	for _, dm := range e.DeployedModels {
		if dm.Ready && dm.URL != "" {
			return dm
		}
	}
	return nil
}

// PredictResponse mirrors the online prediction response: the predictions and
// which model version produced them.
type PredictResponse struct {
	Predictions       []interface{} `json:"predictions"`
	DeployedModelID   uuid.UUID     `json:"deployed_model_id"`
	ModelResourceName string        `json:"model"`
	ModelVersionID    string        `json:"model_version_id"`
}

// ServingName derives a DNS-1123 name for the serving resource of one
// deployment. The deployed model id suffix keeps names distinct when a version
// is deployed to several endpoints.
func ServingName(modelID, versionID string, deployedModelID uuid.UUID) string {
	suffix := "-v" + versionID + "-" + deployedModelID.String()[:8]
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r == '_':
			return '-'
		default:
			return -1
		}
	}, strings.ToLower(modelID))

	name = strings.TrimLeft(name, "-")
	if name == "" || name[0] < 'a' || name[0] > 'z' {
		name = "m" + name
	}
	if limit := 63 - len(suffix); len(name) > limit {
		name = name[:limit]
	}
	return strings.TrimRight(name, "-") + suffix
}
