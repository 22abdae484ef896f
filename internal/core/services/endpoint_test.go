package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/runtime/schema"
	dynamicfake "k8s.io/client-go/dynamic/fake"

	kserveadapter "model-version-registry/internal/adapters/secondary/kserve"
	"model-version-registry/internal/adapters/secondary/memory"
	"model-version-registry/internal/core/domain"
	"model-version-registry/internal/core/ports/output"
	"model-version-registry/internal/testutil"
)

type endpointFixture struct {
	store     ports.RegistryStore
	versions  *ModelVersionService
	repo      ports.EndpointRepository
	kserve    *testutil.MockKServeClient
	predictor *testutil.MockPredictionClient
	svc       *EndpointService
}

func newEndpointFixture(t *testing.T) *endpointFixture {
	t.Helper()
	store := memory.NewRegistryStore()
	f := &endpointFixture{
		store:     store,
		versions:  NewModelVersionService(store, RegistryOptions{Project: "p", Location: "l", WriteTimeout: time.Second}),
		repo:      memory.NewEndpointRepository(),
		kserve:    new(testutil.MockKServeClient),
		predictor: new(testutil.MockPredictionClient),
	}
	f.svc = NewEndpointService(f.repo, f.store, f.kserve, f.predictor, "model-serving")

	_, err := f.versions.Upload(context.Background(), UploadRequest{
		ModelID: "churn",
		Version: domain.NewVersion{ArtifactURI: "gs://a/1", Aliases: []string{"alias1", "alias2"}},
	})
	require.NoError(t, err)
	return f
}

func TestEndpointService_DeployAndPredict(t *testing.T) {
	f := newEndpointFixture(t)
	ctx := context.Background()

	f.kserve.On("IsAvailable").Return(true)
	f.kserve.On("Deploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1"), mock.Anything, mock.MatchedBy(func(v *domain.ModelVersion) bool {
		return v.VersionID == "1"
	})).Return(&ports.KServeDeployment{ExternalID: "uid-1", URL: "http://churn-v1", Ready: true}, nil)

	endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "projects/p/locations/l/models/churn"})
	require.NoError(t, err)
	require.Len(t, endpoint.DeployedModels, 1)
	assert.Equal(t, "churn-v1", endpoint.DisplayName)
	assert.Equal(t, "1", endpoint.DeployedModels[0].VersionID)

	instances := []interface{}{[]interface{}{1.0, 2.0}}
	f.predictor.On("Predict", mock.Anything, "http://churn-v1", endpoint.DeployedModels[0].ServingName, instances).Return([]interface{}{0.7}, nil)

	resp, err := f.svc.Predict(ctx, endpoint.ID, instances)
	require.NoError(t, err)
	assert.Equal(t, "1", resp.ModelVersionID)
	assert.Equal(t, "projects/p/locations/l/models/churn", resp.ModelResourceName)
	assert.Equal(t, endpoint.DeployedModels[0].ID, resp.DeployedModelID)
	assert.Equal(t, []interface{}{0.7}, resp.Predictions)
}

func TestEndpointService_DeploySelectsVersion(t *testing.T) {
	f := newEndpointFixture(t)
	ctx := context.Background()

	isDefault := false
	_, err := f.versions.Upload(ctx, UploadRequest{
		ParentModel: "churn",
		Version:     domain.NewVersion{ArtifactURI: "gs://a/2", Aliases: []string{"candidate"}, IsDefault: &isDefault},
	})
	require.NoError(t, err)

	f.kserve.On("IsAvailable").Return(true)
	f.kserve.On("Deploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v2"), mock.Anything, mock.Anything).
		Return(&ports.KServeDeployment{}, nil)

	endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn@candidate", DisplayName: "canary"})
	require.NoError(t, err)
	assert.Equal(t, "canary", endpoint.DisplayName)
	assert.Equal(t, "2", endpoint.DeployedModels[0].VersionID)
	assert.False(t, endpoint.DeployedModels[0].Ready)
}

func TestEndpointService_Deploy_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("serving disabled", func(t *testing.T) {
		f := newEndpointFixture(t)
		f.kserve.On("IsAvailable").Return(false)
		_, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
		assert.ErrorIs(t, err, domain.ErrServingNotAvailable)
	})

	t.Run("no serving client", func(t *testing.T) {
		f := newEndpointFixture(t)
		svc := NewEndpointService(f.repo, f.store, nil, f.predictor, "model-serving")
		_, err := svc.Deploy(ctx, DeployRequest{Model: "churn"})
		assert.ErrorIs(t, err, domain.ErrServingNotAvailable)
	})

	t.Run("unknown version", func(t *testing.T) {
		f := newEndpointFixture(t)
		f.kserve.On("IsAvailable").Return(true)
		_, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn", Selector: "9"})
		assert.ErrorIs(t, err, domain.ErrVersionNotFound)
		f.kserve.AssertNotCalled(t, "Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("kserve failure", func(t *testing.T) {
		f := newEndpointFixture(t)
		f.kserve.On("IsAvailable").Return(true)
		f.kserve.On("Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("admission webhook denied"))
		_, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "projects/p/locations/l/models/churn@1")
	})
}

func TestEndpointService_DeploySameVersionTwice(t *testing.T) {
	f := newEndpointFixture(t)
	ctx := context.Background()

	isvcGVR := schema.GroupVersionResource{Group: "serving.kserve.io", Version: "v1beta1", Resource: "inferenceservices"}
	dyn := dynamicfake.NewSimpleDynamicClientWithCustomListKinds(
		runtime.NewScheme(),
		map[schema.GroupVersionResource]string{isvcGVR: "InferenceServiceList"},
	)
	svc := NewEndpointService(f.repo, f.store, kserveadapter.NewKServeClientFromDynamic(dyn, "model-serving"), f.predictor, "model-serving")

	first, err := svc.Deploy(ctx, DeployRequest{Model: "churn"})
	require.NoError(t, err)
	second, err := svc.Deploy(ctx, DeployRequest{Model: "churn"})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "1", second.DeployedModels[0].VersionID)
	firstName := first.DeployedModels[0].ServingName
	secondName := second.DeployedModels[0].ServingName
	assert.NotEqual(t, firstName, secondName)

	list, err := dyn.Resource(isvcGVR).Namespace("model-serving").List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	assert.Len(t, list.Items, 2)

	// Undeploying one endpoint leaves the other deployment in place.
	_, err = svc.Undeploy(ctx, first.ID)
	require.NoError(t, err)
	list, err = dyn.Resource(isvcGVR).Namespace("model-serving").List(ctx, metav1.ListOptions{})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)
	assert.Equal(t, secondName, list.Items[0].GetName())
}

func TestEndpointService_Deploy_RollsBackOnRepoFailure(t *testing.T) {
	f := newEndpointFixture(t)
	repo := new(testutil.MockEndpointRepo)
	svc := NewEndpointService(repo, f.store, f.kserve, f.predictor, "model-serving")

	f.kserve.On("IsAvailable").Return(true)
	f.kserve.On("Deploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1"), mock.Anything, mock.Anything).
		Return(&ports.KServeDeployment{ExternalID: "uid-1"}, nil)
	f.kserve.On("Undeploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1")).Return(nil)
	repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := svc.Deploy(context.Background(), DeployRequest{Model: "churn"})
	assert.Error(t, err)
	f.kserve.AssertCalled(t, "Undeploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1"))
}

func TestEndpointService_GetRefreshesStatus(t *testing.T) {
	f := newEndpointFixture(t)
	ctx := context.Background()

	f.kserve.On("IsAvailable").Return(true)
	f.kserve.On("Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.KServeDeployment{ExternalID: "uid-1"}, nil)
	f.kserve.On("GetStatus", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1")).
		Return(&ports.KServeStatus{Ready: true, URL: "http://churn-v1"}, nil).Once()

	endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, endpoint.ID)
	require.NoError(t, err)
	assert.True(t, got.DeployedModels[0].Ready)
	assert.Equal(t, "http://churn-v1", got.DeployedModels[0].URL)

	// A ready deployment is not polled again.
	got, err = f.svc.Get(ctx, endpoint.ID)
	require.NoError(t, err)
	assert.True(t, got.DeployedModels[0].Ready)
	f.kserve.AssertNumberOfCalls(t, "GetStatus", 1)
}

func TestEndpointService_Predict_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("empty instances", func(t *testing.T) {
		f := newEndpointFixture(t)
		_, err := f.svc.Predict(ctx, uuid.New(), nil)
		assert.ErrorIs(t, err, domain.ErrEmptyInstances)
	})

	t.Run("unknown endpoint", func(t *testing.T) {
		f := newEndpointFixture(t)
		_, err := f.svc.Predict(ctx, uuid.New(), []interface{}{1})
		assert.ErrorIs(t, err, domain.ErrEndpointNotFound)
	})

	t.Run("not ready", func(t *testing.T) {
		f := newEndpointFixture(t)
		f.kserve.On("IsAvailable").Return(true)
		f.kserve.On("Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&ports.KServeDeployment{}, nil)
		f.kserve.On("GetStatus", mock.Anything, mock.Anything, mock.Anything).
			Return(&ports.KServeStatus{Ready: false}, nil)

		endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
		require.NoError(t, err)
		_, err = f.svc.Predict(ctx, endpoint.ID, []interface{}{1})
		assert.ErrorIs(t, err, domain.ErrEndpointNotReady)
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newEndpointFixture(t)
		f.kserve.On("IsAvailable").Return(true)
		f.kserve.On("Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&ports.KServeDeployment{Ready: true, URL: "http://churn-v1"}, nil)
		f.predictor.On("Predict", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(nil, errors.New("predict returned 500"))

		endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
		require.NoError(t, err)
		_, err = f.svc.Predict(ctx, endpoint.ID, []interface{}{1})
		assert.ErrorIs(t, err, domain.ErrPredictionFailed)
	})
}

func TestEndpointService_Undeploy(t *testing.T) {
	f := newEndpointFixture(t)
	ctx := context.Background()

	f.kserve.On("IsAvailable").Return(true)
	f.kserve.On("Deploy", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&ports.KServeDeployment{Ready: true, URL: "http://churn-v1"}, nil)
	f.kserve.On("Undeploy", mock.Anything, "model-serving", testutil.ServingNameWithPrefix("churn-v1")).Return(nil)

	endpoint, err := f.svc.Deploy(ctx, DeployRequest{Model: "churn"})
	require.NoError(t, err)

	endpoint, err = f.svc.Undeploy(ctx, endpoint.ID)
	require.NoError(t, err)
	assert.Empty(t, endpoint.DeployedModels)

	_, err = f.svc.Predict(ctx, endpoint.ID, []interface{}{1})
	assert.ErrorIs(t, err, domain.ErrEndpointNotReady)
}
