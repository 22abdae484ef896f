package ports

import "context"

// PredictionClient sends an online prediction request to a serving URL.
type PredictionClient interface {
	Predict(ctx context.Context, url, servingName string, instances []interface{}) ([]interface{}, error)
}
