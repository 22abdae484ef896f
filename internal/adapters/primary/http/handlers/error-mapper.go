package handlers

import (
	"errors"
	"net/http"

	"model-version-registry/internal/core/domain"

	"github.com/gin-gonic/gin"
)

func mapDomainError(c *gin.Context, err error) {
	switch {
	// Not found errors
	case errors.Is(err, domain.ErrModelNotFound),
		errors.Is(err, domain.ErrVersionNotFound),
		errors.Is(err, domain.ErrEndpointNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	// Conflict errors
	case errors.Is(err, domain.ErrModelIDConflict),
		errors.Is(err, domain.ErrAliasConflict),
		errors.Is(err, domain.ErrEndpointNotReady),
		errors.Is(err, domain.ErrServingNameConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	// Bad request / validation errors
	case errors.Is(err, domain.ErrInvalidModelID),
		errors.Is(err, domain.ErrInvalidAlias),
		errors.Is(err, domain.ErrReservedAlias),
		errors.Is(err, domain.ErrCannotRemoveDefaultAlias),
		errors.Is(err, domain.ErrFirstVersionMustBeDefault),
		errors.Is(err, domain.ErrMissingArtifactURI),
		errors.Is(err, domain.ErrUnsupportedFramework),
		errors.Is(err, domain.ErrInvalidResourceName),
		errors.Is(err, domain.ErrEmptyInstances):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	// Service unavailable errors
	case errors.Is(err, domain.ErrRegistryTimeout),
		errors.Is(err, domain.ErrServingNotAvailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})

	case errors.Is(err, domain.ErrPredictionFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

	default:
		// The cause stays out of the response; the request log records it.
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
