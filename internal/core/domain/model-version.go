package domain

import (
	"strconv"
	"strings"
	"time"
)

// KServe supported model frameworks
// See: https://kserve.github.io/website/docs/model-serving/predictive-inference/frameworks/overview
var SupportedFrameworks = map[string]bool{
	"sklearn":     true,
	"xgboost":     true,
	"tensorflow":  true,
	"pytorch":     true,
	"onnx":        true,
	"triton":      true,
	"lightgbm":    true,
	"paddle":      true,
	"mlflow":      true,
	"huggingface": true,
	"pmml":        true,
}

func ValidateModelFramework(framework string) error {
	if framework == "" {
		return nil
	}
	if !SupportedFrameworks[strings.ToLower(framework)] {
		return ErrUnsupportedFramework
	}
	return nil
}

// ModelVersion is one immutable upload of a model artifact. Only aliases,
// description and the default flag change after creation.
type ModelVersion struct {
	ModelID        string            `json:"model_id"`
	VersionID      string            `json:"version_id"`
	Description    string            `json:"description"`
	Aliases        []string          `json:"aliases"`
	IsDefault      bool              `json:"is_default"`
	ArtifactURI    string            `json:"artifact_uri"`
	ModelFramework string            `json:"model_framework"`
	Labels         map[string]string `json:"labels"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (v *ModelVersion) HasAlias(alias string) bool {
	for _, a := range v.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// Number returns the numeric form of VersionID, or 0 if it is malformed.
func (v *ModelVersion) Number() int {
	n, err := strconv.Atoi(v.VersionID)
	if err != nil {
		return 0
	}
	return n
}

// VersionResourceName is {resource_name}@{version_id}.
func VersionResourceName(resourceName, versionID string) string {
	return resourceName + "@" + versionID
}

func (v *ModelVersion) clone() *ModelVersion {
	c := *v
	c.Aliases = append([]string{}, v.Aliases...)
	c.Labels = make(map[string]string, len(v.Labels))
	for k, val := range v.Labels {
		c.Labels[k] = val
	}
	return &c
}

func (v *ModelVersion) removeAlias(alias string) {
	kept := v.Aliases[:0]
	for _, a := range v.Aliases {
		if a != alias {
			kept = append(kept, a)
		}
	}
	v.Aliases = kept
}

// pinDefaultAlias moves the reserved alias to the end of the alias list.
func (v *ModelVersion) pinDefaultAlias() {
	v.removeAlias(DefaultAlias)
	v.Aliases = append(v.Aliases, DefaultAlias)
}
