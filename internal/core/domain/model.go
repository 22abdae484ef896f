package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultAlias is held by exactly one version of every model: the default one.
const DefaultAlias = "default"

var modelIDPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,127}$`)

// ValidateModelID checks a caller supplied model id.
func ValidateModelID(modelID string) error {
	if !modelIDPattern.MatchString(modelID) {
		return ErrInvalidModelID
	}
	return nil
}

// RegisteredModel is the logical model shared by all of its versions.
type RegisteredModel struct {
	ModelID      string            `json:"model_id"`
	ResourceName string            `json:"resource_name"`
	DisplayName  string            `json:"display_name"`
	Labels       map[string]string `json:"labels"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	// Computed fields
	VersionCount     int    `json:"version_count"`
	DefaultVersionID string `json:"default_version_id,omitempty"`
}

// ModelResourceName builds projects/{project}/locations/{location}/models/{model_id}.
func ModelResourceName(project, location, modelID string) string {
	return fmt.Sprintf("projects/%s/locations/%s/models/%s", project, location, modelID)
}

// ParseModelRef accepts a bare model id or a full model resource name, either
// optionally followed by "@selector", and returns the model id and selector.
func ParseModelRef(ref string) (modelID, selector string, err error) {
	name := ref
	if i := strings.LastIndex(ref, "@"); i >= 0 {
		name, selector = ref[:i], ref[i+1:]
		if selector == "" {
			return "", "", ErrInvalidResourceName
		}
	}

	if strings.Contains(name, "/") {
		parts := strings.Split(name, "/")
		if len(parts) != 6 || parts[0] != "projects" || parts[2] != "locations" || parts[4] != "models" {
			return "", "", ErrInvalidResourceName
		}
		name = parts[5]
	}

	if err := ValidateModelID(name); err != nil {
		return "", "", err
	}
	return name, selector, nil
}
