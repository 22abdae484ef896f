package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"model-version-registry/internal/config"
	ports "model-version-registry/internal/core/ports/output"
)

type predictionClient struct {
	client *http.Client
}

// NewPredictionClient creates a client for the KServe v1 prediction protocol.
func NewPredictionClient(cfg *config.PredictorConfig) ports.PredictionClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &predictionClient{
		client: &http.Client{Timeout: timeout},
	}
}

type predictRequest struct {
	Instances []interface{} `json:"instances"`
}

type predictResponse struct {
	Predictions []interface{} `json:"predictions"`
}

func (c *predictionClient) Predict(ctx context.Context, baseURL, servingName string, instances []interface{}) ([]interface{}, error) {
	body, err := json.Marshal(predictRequest{Instances: instances})
	if err != nil {
		return nil, fmt.Errorf("marshal predict request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/models/%s:predict", strings.TrimRight(baseURL, "/"), servingName)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create predict request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	log.WithFields(log.Fields{
		"url":       url,
		"instances": len(instances),
	}).Debug("sending prediction request")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("predict request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("predict returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode predict response: %w", err)
	}
	if out.Predictions == nil {
		out.Predictions = []interface{}{}
	}
	return out.Predictions, nil
}
