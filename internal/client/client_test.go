package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-version-registry/internal/adapters/primary/http/dto"
)

func TestClient_Upload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/model-registry/models", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"version_id":"1","resource_name":"projects/p/locations/l/models/churn","version_aliases":["default"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second)
	resp, err := c.Upload(context.Background(), &dto.UploadModelRequest{ModelID: "churn", ArtifactURI: "gs://a/1"})
	require.NoError(t, err)
	assert.Equal(t, "1", resp.VersionID)
	assert.Equal(t, []string{"default"}, resp.VersionAliases)
}

func TestClient_GetVersionQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/model-registry/model_version", r.URL.Path)
		assert.Equal(t, "projects/p/locations/l/models/churn@2", r.URL.Query().Get("name"))
		assert.Equal(t, "", r.URL.Query().Get("version"))
		_, _ = w.Write([]byte(`{"version_id":"2"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	resp, err := c.GetVersion(context.Background(), "projects/p/locations/l/models/churn@2", "")
	require.NoError(t, err)
	assert.Equal(t, "2", resp.VersionID)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"registry write timed out, retry later"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.AddAliases(context.Background(), "churn", "1", []string{"stable"})

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.StatusCode)
	assert.Equal(t, "registry write timed out, retry later", apiErr.Message)
	assert.True(t, apiErr.Retryable())
}

func TestClient_APIErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.GetEndpoint(context.Background(), "abc")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "bad gateway", apiErr.Message)
	assert.False(t, apiErr.Retryable())
}
