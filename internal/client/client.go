package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"model-version-registry/internal/adapters/primary/http/dto"
)

const apiPrefix = "/api/v1/model-registry"

// APIError is a non-2xx answer from the registry server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("registry returned %d: %s", e.StatusCode, e.Message)
}

// Retryable reports whether the server asked the caller to retry.
func (e *APIError) Retryable() bool {
	return e.StatusCode == http.StatusServiceUnavailable
}

type Client struct {
	httpClient *http.Client
	baseURL    string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *Client) Upload(ctx context.Context, req *dto.UploadModelRequest) (*dto.ModelVersionResponse, error) {
	var out dto.ModelVersionResponse
	if err := c.do(ctx, http.MethodPost, "/models", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetVersion resolves a model id or resource name, optionally carrying
// "@selector", through the lookup-by-name route.
func (c *Client) GetVersion(ctx context.Context, name, version string) (*dto.ModelVersionResponse, error) {
	q := url.Values{}
	q.Set("name", name)
	if version != "" {
		q.Set("version", version)
	}
	var out dto.ModelVersionResponse
	if err := c.do(ctx, http.MethodGet, "/model_version?"+q.Encode(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListVersions(ctx context.Context, modelID string, limit, offset int) (*dto.ListModelVersionsResponse, error) {
	path := fmt.Sprintf("/models/%s/versions?limit=%d&offset=%d", url.PathEscape(modelID), limit, offset)
	var out dto.ListModelVersionsResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AddAliases(ctx context.Context, modelID, selector string, aliases []string) (*dto.ModelVersionResponse, error) {
	return c.editAliases(ctx, modelID, selector, "add", aliases)
}

func (c *Client) RemoveAliases(ctx context.Context, modelID, selector string, aliases []string) (*dto.ModelVersionResponse, error) {
	return c.editAliases(ctx, modelID, selector, "remove", aliases)
}

func (c *Client) editAliases(ctx context.Context, modelID, selector, action string, aliases []string) (*dto.ModelVersionResponse, error) {
	path := fmt.Sprintf("/models/%s/versions/%s/aliases/%s", url.PathEscape(modelID), url.PathEscape(selector), action)
	var out dto.ModelVersionResponse
	if err := c.do(ctx, http.MethodPost, path, &dto.VersionAliasesRequest{Aliases: aliases}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Deploy(ctx context.Context, req *dto.DeployModelRequest) (*dto.EndpointResponse, error) {
	var out dto.EndpointResponse
	if err := c.do(ctx, http.MethodPost, "/endpoints", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetEndpoint(ctx context.Context, id string) (*dto.EndpointResponse, error) {
	var out dto.EndpointResponse
	if err := c.do(ctx, http.MethodGet, "/endpoints/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Predict(ctx context.Context, endpointID string, instances []interface{}) (*dto.PredictResponse, error) {
	var out dto.PredictResponse
	path := "/endpoints/" + url.PathEscape(endpointID) + "/predict"
	if err := c.do(ctx, http.MethodPost, path, &dto.PredictRequest{Instances: instances}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	target := c.baseURL + apiPrefix + path
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return fmt.Errorf("create registry request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.WithFields(log.Fields{
		"method": method,
		"url":    target,
	}).Debug("sending request to registry")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Error string `json:"error"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) != nil || apiErr.Error == "" {
			apiErr.Error = strings.TrimSpace(string(raw))
		}
		return &APIError{StatusCode: resp.StatusCode, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode registry response: %w", err)
	}
	return nil
}
