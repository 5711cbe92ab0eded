package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/plantpal-backend/internal/logger"
	"github.com/yungbote/plantpal-backend/internal/repos"
	"github.com/yungbote/plantpal-backend/internal/services"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type ActivityHandler struct {
	log             *logger.Logger
	activityService services.ActivityService
}

func NewActivityHandler(log *logger.Logger, activityService services.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		log:             log.With("handler", "ActivityHandler"),
		activityService: activityService,
	}
}

func (h *ActivityHandler) Log(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	var req struct {
		Category    types.Category `json:"category"`
		PerformedAt *time.Time     `json:"performed_at"`
		Note        string         `json:"note"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	activity := &types.CareActivity{
		PlantID:  plantID,
		Category: req.Category,
		Note:     req.Note,
	}
	if req.PerformedAt != nil {
		activity.PerformedAt = *req.PerformedAt
	}
	created, err := h.activityService.Log(c.Request.Context(), activity)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "plant_not_found", err)
			return
		}
		h.log.Error("Log activity failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusBadRequest, "log_activity_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": created})
}

func (h *ActivityHandler) List(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	activities, err := h.activityService.ListByPlant(c.Request.Context(), plantID, limit)
	if err != nil {
		h.log.Error("List activities failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusInternalServerError, "load_activities_failed", err)
		return
	}
	RespondOK(c, gin.H{"activities": activities})
}
