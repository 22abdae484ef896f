package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

type EndpointService struct {
	repo      ports.EndpointRepository
	store     ports.RegistryStore
	kserve    ports.KServeClient
	predictor ports.PredictionClient
	namespace string
}

func NewEndpointService(
	repo ports.EndpointRepository,
	store ports.RegistryStore,
	kserve ports.KServeClient,
	predictor ports.PredictionClient,
	namespace string,
) *EndpointService {
	return &EndpointService{
		repo:      repo,
		store:     store,
		kserve:    kserve,
		predictor: predictor,
		namespace: namespace,
	}
}

type DeployRequest struct {
	Model       string // model id or resource name, optionally with "@selector"
	Selector    string // version id or alias; empty means the default version
	DisplayName string
}

// Deploy serves one model version behind a new endpoint.
func (s *EndpointService) Deploy(ctx context.Context, req DeployRequest) (*domain.Endpoint, error) {
	if s.kserve == nil || !s.kserve.IsAvailable() {
		return nil, domain.ErrServingNotAvailable
	}

	modelID, selector, err := domain.ParseModelRef(req.Model)
	if err != nil {
		return nil, err
	}
	if req.Selector != "" {
		selector = req.Selector
	}

	set, err := s.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	version, err := set.Resolve(selector)
	if err != nil {
		return nil, err
	}

	deployedModelID := uuid.New()
	name := domain.ServingName(modelID, version.VersionID, deployedModelID)
	deployment, err := s.kserve.Deploy(ctx, s.namespace, name, set.Model, version)
	if err != nil {
		return nil, fmt.Errorf("deploy %s: %w", domain.VersionResourceName(set.Model.ResourceName, version.VersionID), err)
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = modelID + "-v" + version.VersionID
	}

	now := time.Now()
	endpoint := &domain.Endpoint{
		ID:          uuid.New(),
		DisplayName: displayName,
		DeployedModels: []*domain.DeployedModel{{
			ID:                deployedModelID,
			ModelID:           modelID,
			ModelResourceName: set.Model.ResourceName,
			VersionID:         version.VersionID,
			ServingName:       name,
			Namespace:         s.namespace,
			ExternalID:        deployment.ExternalID,
			URL:               deployment.URL,
			Ready:             deployment.Ready,
			DeployedAt:        now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, endpoint); err != nil {
		// Best effort: do not leave an orphaned InferenceService behind.
		if uerr := s.kserve.Undeploy(ctx, s.namespace, name); uerr != nil {
			log.WithError(uerr).WithField("serving_name", name).Warn("rollback of kserve deployment failed")
		}
		return nil, err
	}
	return endpoint, nil
}

// Get returns the endpoint after refreshing the status of deployed models that
// are not ready yet.
func (s *EndpointService) Get(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	endpoint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.kserve == nil || !s.kserve.IsAvailable() {
		return endpoint, nil
	}

	changed := false
	for _, dm := range endpoint.DeployedModels {
		if dm.Ready {
			continue
		}
		status, err := s.kserve.GetStatus(ctx, dm.Namespace, dm.ServingName)
		if err != nil {
			log.WithError(err).WithField("serving_name", dm.ServingName).Warn("refresh deployment status failed")
			continue
		}
		if status.Ready != dm.Ready || status.URL != dm.URL || status.Error != dm.Error {
			dm.Ready, dm.URL, dm.Error = status.Ready, status.URL, status.Error
			changed = true
		}
	}

	if changed {
		endpoint.UpdatedAt = time.Now()
		if err := s.repo.Update(ctx, endpoint); err != nil {
			return nil, err
		}
	}
	return endpoint, nil
}

// Predict forwards instances to the endpoint's ready deployed model and
// reports which model version answered.
func (s *EndpointService) Predict(ctx context.Context, id uuid.UUID, instances []interface{}) (*domain.PredictResponse, error) {
	if len(instances) == 0 {
		return nil, domain.ErrEmptyInstances
	}

	endpoint, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	dm := endpoint.ReadyModel()
	if dm == nil {
		return nil, domain.ErrEndpointNotReady
	}

	predictions, err := s.predictor.Predict(ctx, dm.URL, dm.ServingName, instances)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPredictionFailed, err)
	}

	return &domain.PredictResponse{
		Predictions:       predictions,
		DeployedModelID:   dm.ID,
		ModelResourceName: dm.ModelResourceName,
		ModelVersionID:    dm.VersionID,
	}, nil
}

// Undeploy removes every deployed model from the endpoint.
func (s *EndpointService) Undeploy(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	endpoint, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.kserve == nil || !s.kserve.IsAvailable() {
		return nil, domain.ErrServingNotAvailable
	}

	for _, dm := range endpoint.DeployedModels {
		if err := s.kserve.Undeploy(ctx, dm.Namespace, dm.ServingName); err != nil {
			return nil, err
		}
	}
	endpoint.DeployedModels = []*domain.DeployedModel{}
	endpoint.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, endpoint); err != nil {
		return nil, err
	}
	return endpoint, nil
}
