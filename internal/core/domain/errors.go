package domain

import "errors"

// ============================================================================
// Model Registry Errors
// ============================================================================

// Not found errors
var (
	ErrModelNotFound   = errors.New("registered model not found")
	ErrVersionNotFound = errors.New("model version not found")
)

// Conflict errors
var (
	ErrModelIDConflict = errors.New("model with this id already exists")
	ErrAliasConflict   = errors.New("alias is already used by another version of this model")
)

// Validation errors
var (
	ErrInvalidModelID            = errors.New("model id must match [a-z0-9][a-z0-9_-]{0,127}")
	ErrInvalidAlias              = errors.New("alias must match [a-z][a-zA-Z0-9-]{0,126}[a-z0-9]")
	ErrReservedAlias             = errors.New("alias 'default' can only be set on the default version")
	ErrCannotRemoveDefaultAlias  = errors.New("alias 'default' cannot be removed; set another version as default instead")
	ErrFirstVersionMustBeDefault = errors.New("the first version of a model must be the default version")
	ErrMissingArtifactURI        = errors.New("artifact uri is required")
	ErrUnsupportedFramework      = errors.New("unsupported model framework")
	ErrInvalidResourceName       = errors.New("invalid model resource name")
	ErrInvalidFirstVersionPolicy = errors.New("invalid first version policy")
)

// Retryable errors
var (
	ErrRegistryTimeout = errors.New("registry write timed out, retry later")
)

// ============================================================================
// Endpoint Errors
// ============================================================================

var (
	ErrEndpointNotFound    = errors.New("endpoint not found")
	ErrEndpointNotReady    = errors.New("endpoint has no ready deployed model")
	ErrServingNotAvailable = errors.New("serving backend is not configured")
	ErrEmptyInstances      = errors.New("at least one prediction instance is required")
	ErrPredictionFailed    = errors.New("prediction request failed")
	ErrServingNameConflict = errors.New("serving resource with this name already exists")
)
