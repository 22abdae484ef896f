package testutil

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"model-version-registry/internal/core/domain"
	"model-version-registry/internal/core/ports/output"
)

// MockRegistryStore is a mock of RegistryStore. Calls to CreateModel and
// Update run the mutate function against the set returned by the expectation,
// so tests exercise the real domain rules.
type MockRegistryStore struct {
	mock.Mock
}

func (m *MockRegistryStore) CreateModel(ctx context.Context, model *domain.RegisteredModel, fn ports.MutateFunc) (*domain.VersionSet, error) {
	args := m.Called(ctx, model)
	if err := args.Error(1); err != nil {
		return nil, err
	}
	set := domain.NewVersionSet(model)
	if fn != nil {
		if err := fn(set); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (m *MockRegistryStore) Update(ctx context.Context, modelID string, fn ports.MutateFunc) (*domain.VersionSet, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	set := args.Get(0).(*domain.VersionSet).Clone()
	if err := fn(set); err != nil {
		return nil, err
	}
	return set, args.Error(1)
}

func (m *MockRegistryStore) Get(ctx context.Context, modelID string) (*domain.VersionSet, error) {
	args := m.Called(ctx, modelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.VersionSet), args.Error(1)
}

func (m *MockRegistryStore) List(ctx context.Context, filter ports.ListFilter) ([]*domain.RegisteredModel, int, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Int(1), args.Error(2)
	}
	return args.Get(0).([]*domain.RegisteredModel), args.Int(1), args.Error(2)
}

// MockEndpointRepo is a mock of EndpointRepository.
type MockEndpointRepo struct {
	mock.Mock
}

func (m *MockEndpointRepo) Create(ctx context.Context, endpoint *domain.Endpoint) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

func (m *MockEndpointRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Endpoint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Endpoint), args.Error(1)
}

func (m *MockEndpointRepo) Update(ctx context.Context, endpoint *domain.Endpoint) error {
	args := m.Called(ctx, endpoint)
	return args.Error(0)
}

// MockKServeClient is a mock of KServeClient.
type MockKServeClient struct {
	mock.Mock
}

func (m *MockKServeClient) Deploy(
	ctx context.Context,
	namespace, name string,
	model *domain.RegisteredModel,
	version *domain.ModelVersion,
) (*ports.KServeDeployment, error) {
	args := m.Called(ctx, namespace, name, model, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.KServeDeployment), args.Error(1)
}

func (m *MockKServeClient) Undeploy(ctx context.Context, namespace, name string) error {
	args := m.Called(ctx, namespace, name)
	return args.Error(0)
}

func (m *MockKServeClient) GetStatus(ctx context.Context, namespace, name string) (*ports.KServeStatus, error) {
	args := m.Called(ctx, namespace, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.KServeStatus), args.Error(1)
}

func (m *MockKServeClient) IsAvailable() bool {
	args := m.Called()
	return args.Bool(0)
}

// MockPredictionClient is a mock of PredictionClient.
type MockPredictionClient struct {
	mock.Mock
}

func (m *MockPredictionClient) Predict(ctx context.Context, url, servingName string, instances []interface{}) ([]interface{}, error) {
	args := m.Called(ctx, url, servingName, instances)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]interface{}), args.Error(1)
}

var (
	_ ports.RegistryStore      = (*MockRegistryStore)(nil)
	_ ports.EndpointRepository = (*MockEndpointRepo)(nil)
	_ ports.KServeClient       = (*MockKServeClient)(nil)
	_ ports.PredictionClient   = (*MockPredictionClient)(nil)
)

// ServingNameWithPrefix matches serving names generated for the given
// model-version prefix (e.g. "churn-v1"), whatever their per-deployment suffix.
func ServingNameWithPrefix(prefix string) interface{} {
	return mock.MatchedBy(func(name string) bool {
		return strings.HasPrefix(name, prefix+"-")
	})
}
