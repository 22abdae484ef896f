package domain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestServingName(t *testing.T) {
	id := uuid.MustParse("3f2a9c1e-0000-4000-8000-000000000000")

	assert.Equal(t, "churn-v1-3f2a9c1e", ServingName("churn", "1", id))
	assert.Equal(t, "churn-model-v12-3f2a9c1e", ServingName("churn_model", "12", id))
	assert.Equal(t, "m42-v1-3f2a9c1e", ServingName("42", "1", id))

	long := ServingName(strings.Repeat("a", 128), "7", id)
	assert.LessOrEqual(t, len(long), 63)
	assert.True(t, strings.HasSuffix(long, "-v7-3f2a9c1e"))

	// Each deployment of the same version gets its own name.
	assert.NotEqual(t, ServingName("churn", "1", uuid.New()), ServingName("churn", "1", uuid.New()))
}

func TestEndpoint_ReadyModel(t *testing.T) {
	e := &Endpoint{DeployedModels: []*DeployedModel{
		{ServingName: "pending", Ready: false, URL: "http://pending"},
		{ServingName: "no-url", Ready: true},
		{ServingName: "ready", Ready: true, URL: "http://ready"},
	}}
	assert.Equal(t, "ready", e.ReadyModel().ServingName)

	assert.Nil(t, (&Endpoint{}).ReadyModel())
}
