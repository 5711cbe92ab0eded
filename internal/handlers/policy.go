package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/services"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type PolicyHandler struct {
	log           *logger.Logger
	policyService services.PolicyService
}

func NewPolicyHandler(log *logger.Logger, policyService services.PolicyService) *PolicyHandler {
	return &PolicyHandler{
		log:           log.With("handler", "PolicyHandler"),
		policyService: policyService,
	}
}

func (h *PolicyHandler) GetGlobal(c *gin.Context) {
	policy, err := h.policyService.GetGlobal(c.Request.Context())
	if err != nil {
		h.log.Error("Get global policy failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_policy_failed", err)
		return
	}
	RespondOK(c, gin.H{"policy": policy})
}

func (h *PolicyHandler) UpdateGlobal(c *gin.Context) {
	var policy types.GlobalPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	updated, err := h.policyService.UpdateGlobal(c.Request.Context(), &policy)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPolicy) {
			RespondError(c, http.StatusBadRequest, "invalid_policy", err)
			return
		}
		h.log.Error("Update global policy failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "update_policy_failed", err)
		return
	}
	RespondOK(c, gin.H{"policy": updated})
}

func (h *PolicyHandler) GetPlantPolicy(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	policy, err := h.policyService.GetPlantPolicy(c.Request.Context(), plantID)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "policy_not_found", err)
			return
		}
		h.log.Error("Get plant policy failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusInternalServerError, "load_policy_failed", err)
		return
	}
	RespondOK(c, gin.H{"policy": policy})
}

func (h *PolicyHandler) UpsertPlantPolicy(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	var policy types.PlantPolicy
	if err := c.ShouldBindJSON(&policy); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	policy.PlantID = plantID
	updated, err := h.policyService.UpsertPlantPolicy(c.Request.Context(), &policy)
	if err != nil {
		if errors.Is(err, services.ErrInvalidPolicy) {
			RespondError(c, http.StatusBadRequest, "invalid_policy", err)
			return
		}
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "plant_not_found", err)
			return
		}
		h.log.Error("Upsert plant policy failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusInternalServerError, "update_policy_failed", err)
		return
	}
	RespondOK(c, gin.H{"policy": updated})
}

func (h *PolicyHandler) DeletePlantPolicy(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	if err := h.policyService.DeletePlantPolicy(c.Request.Context(), plantID); err != nil {
		h.log.Error("Delete plant policy failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusInternalServerError, "delete_policy_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
