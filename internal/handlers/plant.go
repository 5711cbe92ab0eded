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

type PlantHandler struct {
	log          *logger.Logger
	plantService services.PlantService
}

func NewPlantHandler(log *logger.Logger, plantService services.PlantService) *PlantHandler {
	return &PlantHandler{
		log:          log.With("handler", "PlantHandler"),
		plantService: plantService,
	}
}

func (h *PlantHandler) Create(c *gin.Context) {
	var req struct {
		Name     string `json:"name"`
		Species  string `json:"species"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	plant, err := h.plantService.Create(c.Request.Context(), &types.Plant{
		Name:     req.Name,
		Species:  req.Species,
		Location: req.Location,
	})
	if err != nil {
		h.log.Error("Create plant failed", "error", err)
		RespondError(c, http.StatusBadRequest, "create_plant_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"plant": plant})
}

func (h *PlantHandler) List(c *gin.Context) {
	plants, err := h.plantService.List(c.Request.Context())
	if err != nil {
		h.log.Error("List plants failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "load_plants_failed", err)
		return
	}
	RespondOK(c, gin.H{"plants": plants})
}

func (h *PlantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	plant, err := h.plantService.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "plant_not_found", err)
			return
		}
		h.log.Error("Get plant failed", "error", err, "plant_id", id)
		RespondError(c, http.StatusInternalServerError, "load_plant_failed", err)
		return
	}
	RespondOK(c, gin.H{"plant": plant})
}

func (h *PlantHandler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	var req struct {
		Name     string `json:"name"`
		Species  string `json:"species"`
		Location string `json:"location"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	plant, err := h.plantService.Update(c.Request.Context(), &types.Plant{
		ID:       id,
		Name:     req.Name,
		Species:  req.Species,
		Location: req.Location,
	})
	if err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "plant_not_found", err)
			return
		}
		h.log.Error("Update plant failed", "error", err, "plant_id", id)
		RespondError(c, http.StatusBadRequest, "update_plant_failed", err)
		return
	}
	RespondOK(c, gin.H{"plant": plant})
}

func (h *PlantHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	if err := h.plantService.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "plant_not_found", err)
			return
		}
		h.log.Error("Delete plant failed", "error", err, "plant_id", id)
		RespondError(c, http.StatusInternalServerError, "delete_plant_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}
