package handlers

import (
	"model-version-registry/internal/core/services"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	versionSvc  *services.ModelVersionService
	endpointSvc *services.EndpointService
}

func New(
	versionSvc *services.ModelVersionService,
	endpointSvc *services.EndpointService,
) *Handler {
	return &Handler{
		versionSvc:  versionSvc,
		endpointSvc: endpointSvc,
	}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	// Registered Models
	r.POST("/models", h.UploadModel)
	r.GET("/models", h.ListModels)
	r.GET("/models/:model_id", h.GetModel)

	// Model Versions (nested under model)
	r.GET("/models/:model_id/versions", h.ListModelVersions)
	r.GET("/models/:model_id/versions/:selector", h.GetModelVersion)
	r.PATCH("/models/:model_id/versions/:selector", h.UpdateModelVersion)
	r.POST("/models/:model_id/versions/:selector/aliases/add", h.AddVersionAliases)
	r.POST("/models/:model_id/versions/:selector/aliases/remove", h.RemoveVersionAliases)

	// Model Versions (by resource name)
	r.GET("/model_version", h.FindModelVersion)

	// Endpoints
	r.POST("/endpoints", h.DeployModel)
	r.GET("/endpoints/:id", h.GetEndpoint)
	r.POST("/endpoints/:id/predict", h.Predict)
	r.POST("/endpoints/:id/undeploy", h.UndeployModel)
}
