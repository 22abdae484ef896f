package memory

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-version-registry/internal/core/domain"
	ports "model-version-registry/internal/core/ports/output"
)

func newModel(id string) *domain.RegisteredModel {
	now := time.Now()
	return &domain.RegisteredModel{
		ModelID:      id,
		ResourceName: domain.ModelResourceName("p", "l", id),
		DisplayName:  id,
		Labels:       map[string]string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func appendVersion(nv domain.NewVersion) func(*domain.VersionSet) error {
	return func(set *domain.VersionSet) error {
		_, err := set.Append(nv, domain.FirstVersionForceDefault, time.Now())
		return err
	}
}

func TestRegistryStore_CreateAndGet(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	set, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1"}))
	require.NoError(t, err)
	require.Len(t, set.Versions, 1)

	got, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.Equal(t, "1", got.Default().VersionID)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestRegistryStore_CreateModel_Conflict(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1"}))
	require.NoError(t, err)

	_, err = store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/2"}))
	assert.ErrorIs(t, err, domain.ErrModelIDConflict)

	set, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.Len(t, set.Versions, 1)
}

func TestRegistryStore_CreateModel_FailedMutationCreatesNothing(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{}))
	assert.ErrorIs(t, err, domain.ErrMissingArtifactURI)

	_, err = store.Get(ctx, "churn")
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestRegistryStore_Update_AllOrNothing(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1", Aliases: []string{"stable"}}))
	require.NoError(t, err)

	boom := errors.New("boom")
	_, err = store.Update(ctx, "churn", func(set *domain.VersionSet) error {
		if _, err := set.Append(domain.NewVersion{ArtifactURI: "gs://a/2"}, domain.FirstVersionForceDefault, time.Now()); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	set, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.Len(t, set.Versions, 1)
	assert.Equal(t, "1", set.Default().VersionID)
}

func TestRegistryStore_Update_NotFound(t *testing.T) {
	store := NewRegistryStore()
	_, err := store.Update(context.Background(), "missing", appendVersion(domain.NewVersion{ArtifactURI: "gs://a"}))
	assert.ErrorIs(t, err, domain.ErrModelNotFound)
}

func TestRegistryStore_GetReturnsCopy(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1"}))
	require.NoError(t, err)

	set, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	set.Versions[0].Aliases = append(set.Versions[0].Aliases, "tampered")

	again, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.False(t, again.Versions[0].HasAlias("tampered"))
}

func TestRegistryStore_ConcurrentAppendsAreDense(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1"}))
	require.NoError(t, err)

	const writers = 50
	ids := make(chan string, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			isDefault := false
			set, err := store.Update(ctx, "churn", func(set *domain.VersionSet) error {
				v, err := set.Append(domain.NewVersion{
					ArtifactURI: "gs://a/" + strconv.Itoa(i),
					IsDefault:   &isDefault,
				}, domain.FirstVersionForceDefault, time.Now())
				if err != nil {
					return err
				}
				ids <- v.VersionID
				return nil
			})
			assert.NoError(t, err)
			assert.NotNil(t, set)
		}(i)
	}
	wg.Wait()
	close(ids)

	var got []int
	for id := range ids {
		n, _ := strconv.Atoi(id)
		got = append(got, n)
	}
	sort.Ints(got)
	for i, n := range got {
		assert.Equal(t, i+2, n)
	}

	set, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.Len(t, set.Versions, writers+1)
	assert.Equal(t, "1", set.Default().VersionID)
}

func TestRegistryStore_Update_WaitsForWriterUntilDeadline(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	_, err := store.CreateModel(ctx, newModel("churn"), appendVersion(domain.NewVersion{ArtifactURI: "gs://a/1"}))
	require.NoError(t, err)

	holding := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.Update(ctx, "churn", func(set *domain.VersionSet) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding

	waitCtx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
	defer cancel()
	_, err = store.Update(waitCtx, "churn", appendVersion(domain.NewVersion{ArtifactURI: "gs://a/2"}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	<-done

	set, err := store.Get(ctx, "churn")
	require.NoError(t, err)
	assert.Len(t, set.Versions, 1)
}

func TestRegistryStore_List(t *testing.T) {
	store := NewRegistryStore()
	ctx := context.Background()

	for _, id := range []string{"a-model", "b-model", "c-model"} {
		_, err := store.CreateModel(ctx, newModel(id), appendVersion(domain.NewVersion{ArtifactURI: "gs://" + id}))
		require.NoError(t, err)
	}

	models, total, err := store.List(ctx, ports.ListFilter{Limit: 2, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, models, 2)
	assert.Equal(t, "b-model", models[0].ModelID)
	assert.Equal(t, 1, models[0].VersionCount)
	assert.Equal(t, "1", models[0].DefaultVersionID)
}
