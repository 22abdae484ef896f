package handlers

import (
	"net/http"

	"model-version-registry/internal/adapters/primary/http/dto"
	"model-version-registry/internal/core/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

func (h *Handler) DeployModel(c *gin.Context) {
	var req dto.DeployModelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	endpoint, err := h.endpointSvc.Deploy(c.Request.Context(), services.DeployRequest{
		Model:       req.Model,
		Selector:    req.Version,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		log.WithError(err).WithField("model", req.Model).Error("deploy model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEndpointResponse(endpoint))
}

func (h *Handler) GetEndpoint(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endpoint id"})
		return
	}

	endpoint, err := h.endpointSvc.Get(c.Request.Context(), id)
	if err != nil {
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEndpointResponse(endpoint))
}

func (h *Handler) Predict(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endpoint id"})
		return
	}

	var req dto.PredictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.endpointSvc.Predict(c.Request.Context(), id, req.Instances)
	if err != nil {
		log.WithError(err).WithField("endpoint_id", id).Error("predict failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToPredictResponse(resp))
}

func (h *Handler) UndeployModel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid endpoint id"})
		return
	}

	endpoint, err := h.endpointSvc.Undeploy(c.Request.Context(), id)
	if err != nil {
		log.WithError(err).WithField("endpoint_id", id).Error("undeploy model failed")
		mapDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToEndpointResponse(endpoint))
}
