package handlers

import (
	"net/http"
	"strconv"

	"model-version-registry/internal/adapters/primary/http/dto"
	"model-version-registry/internal/core/ports/output"
	"model-version-registry/internal/core/services"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) UploadModel(c *gin.Context) {
	var req dto.UploadModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.versionSvc.Upload(c.Request.Context(), services.UploadRequest{
		ModelID:     req.ModelID,
		ParentModel: req.ParentModel,
		DisplayName: req.DisplayName,
		Labels:      req.Labels,
		Version:     dto.ToNewVersion(&req),
	})
	if err != nil {
		log.WithError(err).WithFields(log.Fields{
			"model_id":     req.ModelID,
			"parent_model": req.ParentModel,
		}).Error("upload model failed")
		mapDomainError(c, err)
		return
	}

	log.WithFields(log.Fields{
		"resource_name": result.Model.ResourceName,
		"version_id":    result.Version.VersionID,
		"is_default":    result.Version.IsDefault,
	}).Info("model version registered")

	c.JSON(http.StatusCreated, dto.ToModelVersionResponse(result.Model, result.Version))
}

func (h *Handler) ListModels(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.ListFilter{Limit: limit, Offset: offset}.Clamp()
	models, total, err := h.versionSvc.ListModels(c.Request.Context(), filter)
	if err != nil {
		log.WithError(err).Error("list models failed")
		mapDomainError(c, err)
		return
	}

	items := make([]dto.RegisteredModelResponse, 0, len(models))
	for _, m := range models {
		items = append(items, dto.ToRegisteredModelResponse(m))
	}

	c.JSON(http.StatusOK, dto.ListRegisteredModelsResponse{
		Items:      items,
		Total:      total,
		PageSize:   filter.Limit,
		NextOffset: filter.Offset + len(items),
	})
}

func (h *Handler) GetModel(c *gin.Context) {
	model, err := h.versionSvc.GetModel(c.Request.Context(), c.Param("model_id"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToRegisteredModelResponse(model))
}

func (h *Handler) ListModelVersions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	filter := ports.ListFilter{Limit: limit, Offset: offset}.Clamp()
	model, versions, total, err := h.versionSvc.ListVersions(c.Request.Context(), c.Param("model_id"), filter)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	items := make([]dto.ModelVersionResponse, 0, len(versions))
	for _, v := range versions {
		items = append(items, dto.ToModelVersionResponse(model, v))
	}

	c.JSON(http.StatusOK, dto.ListModelVersionsResponse{
		Items:      items,
		Total:      total,
		PageSize:   filter.Limit,
		NextOffset: filter.Offset + len(items),
	})
}

func (h *Handler) GetModelVersion(c *gin.Context) {
	model, version, err := h.versionSvc.GetVersion(c.Request.Context(), c.Param("model_id"), c.Param("selector"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(model, version))
}

// FindModelVersion resolves ?name=projects/.../models/{id}[@selector], with an
// optional ?version= overriding the selector.
func (h *Handler) FindModelVersion(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name query parameter is required"})
		return
	}

	model, version, err := h.versionSvc.GetVersion(c.Request.Context(), name, c.Query("version"))
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(model, version))
}

func (h *Handler) UpdateModelVersion(c *gin.Context) {
	var req dto.UpdateModelVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.versionSvc.UpdateDescription(
		c.Request.Context(), c.Param("model_id"), c.Param("selector"), *req.VersionDescription,
	)
	if err != nil {
		log.WithError(err).Error("update model version failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(result.Model, result.Version))
}

func (h *Handler) AddVersionAliases(c *gin.Context) {
	var req dto.VersionAliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.versionSvc.AddAliases(c.Request.Context(), c.Param("model_id"), c.Param("selector"), req.Aliases)
	if err != nil {
		log.WithError(err).WithField("aliases", req.Aliases).Error("add version aliases failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(result.Model, result.Version))
}

func (h *Handler) RemoveVersionAliases(c *gin.Context) {
	var req dto.VersionAliasesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.versionSvc.RemoveAliases(c.Request.Context(), c.Param("model_id"), c.Param("selector"), req.Aliases)
	if err != nil {
		log.WithError(err).WithField("aliases", req.Aliases).Error("remove version aliases failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToModelVersionResponse(result.Model, result.Version))
}
