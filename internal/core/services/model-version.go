package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

type RegistryOptions struct {
	Project            string
	Location           string
	FirstVersionPolicy domain.FirstVersionPolicy
	WriteTimeout       time.Duration
}

type ModelVersionService struct {
	store ports.RegistryStore
	opts  RegistryOptions
	now   func() time.Time
}

func NewModelVersionService(store ports.RegistryStore, opts RegistryOptions) *ModelVersionService {
	if opts.FirstVersionPolicy == "" {
		opts.FirstVersionPolicy = domain.FirstVersionForceDefault
	}
	return &ModelVersionService{store: store, opts: opts, now: time.Now}
}

// UploadRequest registers an artifact either as the first version of a new
// model (ModelID, generated when empty) or as the next version of ParentModel.
type UploadRequest struct {
	ModelID     string
	ParentModel string
	DisplayName string
	Labels      map[string]string
	Version     domain.NewVersion
}

// VersionResult pairs a version with the summary of its model as committed.
type VersionResult struct {
	Model   *domain.RegisteredModel
	Version *domain.ModelVersion
}

func (s *ModelVersionService) Upload(ctx context.Context, req UploadRequest) (*VersionResult, error) {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	var versionID string
	appendVersion := func(set *domain.VersionSet) error {
		v, err := set.Append(req.Version, s.opts.FirstVersionPolicy, s.now())
		if err != nil {
			return err
		}
		versionID = v.VersionID
		return nil
	}

	var (
		set *domain.VersionSet
		err error
	)
	if req.ParentModel != "" {
		parentID, selector, perr := domain.ParseModelRef(req.ParentModel)
		if perr != nil {
			return nil, perr
		}
		// A parent names a model, not one of its versions.
		if selector != "" {
			return nil, fmt.Errorf("%w: parent model %q names a version", domain.ErrInvalidResourceName, req.ParentModel)
		}
		set, err = s.store.Update(ctx, parentID, appendVersion)
	} else {
		model, merr := s.newModel(req)
		if merr != nil {
			return nil, merr
		}
		set, err = s.store.CreateModel(ctx, model, appendVersion)
	}
	if err != nil {
		return nil, writeError(err)
	}

	version, err := set.Resolve(versionID)
	if err != nil {
		return nil, err
	}
	return &VersionResult{Model: set.Summary(), Version: version}, nil
}

// GetVersion looks a version up by model reference and selector (version id
// or alias). The reference may carry its own "@selector"; an explicit
// selector argument wins.
func (s *ModelVersionService) GetVersion(ctx context.Context, ref, selector string) (*domain.RegisteredModel, *domain.ModelVersion, error) {
	modelID, refSelector, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, nil, err
	}
	if selector == "" {
		selector = refSelector
	}

	set, err := s.store.Get(ctx, modelID)
	if err != nil {
		return nil, nil, err
	}
	version, err := set.Resolve(selector)
	if err != nil {
		return nil, nil, err
	}
	return set.Summary(), version, nil
}

func (s *ModelVersionService) GetModel(ctx context.Context, ref string) (*domain.RegisteredModel, error) {
	modelID, _, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, err
	}
	set, err := s.store.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return set.Summary(), nil
}

func (s *ModelVersionService) ListModels(ctx context.Context, filter ports.ListFilter) ([]*domain.RegisteredModel, int, error) {
	return s.store.List(ctx, filter.Clamp())
}

// ListVersions returns a page of the model's versions in version order.
func (s *ModelVersionService) ListVersions(
	ctx context.Context,
	ref string,
	filter ports.ListFilter,
) (*domain.RegisteredModel, []*domain.ModelVersion, int, error) {
	modelID, _, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, nil, 0, err
	}
	set, err := s.store.Get(ctx, modelID)
	if err != nil {
		return nil, nil, 0, err
	}

	filter = filter.Clamp()
	total := len(set.Versions)
	if filter.Offset >= total {
		return set.Summary(), []*domain.ModelVersion{}, total, nil
	}
	end := filter.Offset + filter.Limit
	if end > total {
		end = total
	}
	return set.Summary(), set.Versions[filter.Offset:end], total, nil
}

func (s *ModelVersionService) AddAliases(ctx context.Context, ref, selector string, aliases []string) (*VersionResult, error) {
	return s.mutateVersion(ctx, ref, selector, func(set *domain.VersionSet, sel string) (*domain.ModelVersion, error) {
		return set.AddAliases(sel, aliases, s.now())
	})
}

func (s *ModelVersionService) RemoveAliases(ctx context.Context, ref, selector string, aliases []string) (*VersionResult, error) {
	return s.mutateVersion(ctx, ref, selector, func(set *domain.VersionSet, sel string) (*domain.ModelVersion, error) {
		return set.RemoveAliases(sel, aliases, s.now())
	})
}

func (s *ModelVersionService) UpdateDescription(ctx context.Context, ref, selector, description string) (*VersionResult, error) {
	return s.mutateVersion(ctx, ref, selector, func(set *domain.VersionSet, sel string) (*domain.ModelVersion, error) {
		return set.SetDescription(sel, description, s.now())
	})
}

func (s *ModelVersionService) mutateVersion(
	ctx context.Context,
	ref, selector string,
	edit func(set *domain.VersionSet, selector string) (*domain.ModelVersion, error),
) (*VersionResult, error) {
	modelID, refSelector, err := domain.ParseModelRef(ref)
	if err != nil {
		return nil, err
	}
	if selector == "" {
		selector = refSelector
	}

	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	// Aliases may move during the edit, so the version is re-found by id afterwards.
	var versionID string
	set, err := s.store.Update(ctx, modelID, func(set *domain.VersionSet) error {
		v, err := edit(set, selector)
		if err != nil {
			return err
		}
		versionID = v.VersionID
		return nil
	})
	if err != nil {
		return nil, writeError(err)
	}
	version, err := set.Resolve(versionID)
	if err != nil {
		return nil, err
	}
	return &VersionResult{Model: set.Summary(), Version: version}, nil
}

func (s *ModelVersionService) newModel(req UploadRequest) (*domain.RegisteredModel, error) {
	modelID := req.ModelID
	if modelID == "" {
		modelID = uuid.New().String()
	}
	if err := domain.ValidateModelID(modelID); err != nil {
		return nil, err
	}

	displayName := req.DisplayName
	if displayName == "" {
		displayName = modelID
	}
	labels := req.Labels
	if labels == nil {
		labels = make(map[string]string)
	}

	now := s.now()
	return &domain.RegisteredModel{
		ModelID:      modelID,
		ResourceName: domain.ModelResourceName(s.opts.Project, s.opts.Location, modelID),
		DisplayName:  displayName,
		Labels:       labels,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (s *ModelVersionService) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.opts.WriteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.opts.WriteTimeout)
}

// writeError marks deadline failures as retryable.
func writeError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrRegistryTimeout, err)
	}
	return err
}
