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
	"github.com/yungbote/plantpal-backend/internal/scheduling"
	"github.com/yungbote/plantpal-backend/internal/services"
	"github.com/yungbote/plantpal-backend/internal/types"
)

type NotificationHandler struct {
	log                 *logger.Logger
	notificationService services.NotificationService
}

func NewNotificationHandler(log *logger.Logger, notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		log:                 log.With("handler", "NotificationHandler"),
		notificationService: notificationService,
	}
}

func (h *NotificationHandler) ListForPlant(c *gin.Context) {
	plantID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_plant_id", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	notifications, err := h.notificationService.ListForPlant(c.Request.Context(), plantID, limit)
	if err != nil {
		h.log.Error("List notifications failed", "error", err, "plant_id", plantID)
		RespondError(c, http.StatusInternalServerError, "load_notifications_failed", err)
		return
	}
	RespondOK(c, gin.H{"notifications": notifications})
}

func (h *NotificationHandler) Cancel(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_notification_id", err)
		return
	}
	if err := h.notificationService.Cancel(c.Request.Context(), id); err != nil {
		if errors.Is(err, repos.ErrNotFound) {
			RespondError(c, http.StatusNotFound, "notification_not_found", err)
			return
		}
		h.log.Error("Cancel notification failed", "error", err, "notification_id", id)
		RespondError(c, http.StatusInternalServerError, "cancel_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Evaluate triggers a full scheduling pass on demand and returns the decisions.
func (h *NotificationHandler) Evaluate(c *gin.Context) {
	decisions, err := h.notificationService.EvaluateAll(c.Request.Context())
	if err != nil {
		h.log.Error("Evaluation failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "evaluate_failed", err)
		return
	}
	RespondOK(c, gin.H{"decisions": decisions})
}

// Outcome is the HTTP fallback for transport callbacks, mirroring what the
// redis outcome listener consumes.
func (h *NotificationHandler) Outcome(c *gin.Context) {
	var req struct {
		Handle       string            `json:"handle"`
		Kind         string            `json:"kind"`
		At           *time.Time        `json:"at"`
		Transient    bool              `json:"transient"`
		ErrorMessage string            `json:"error_message"`
		Interaction  types.Interaction `json:"interaction"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	if req.Handle == "" {
		RespondError(c, http.StatusBadRequest, "missing_handle", nil)
		return
	}
	outcome := scheduling.Outcome{
		Kind:         scheduling.OutcomeKind(req.Kind),
		Transient:    req.Transient,
		ErrorMessage: req.ErrorMessage,
		Interaction:  req.Interaction,
	}
	if req.At != nil {
		outcome.At = *req.At
	}
	if err := h.notificationService.HandleOutcome(c.Request.Context(), req.Handle, outcome); err != nil {
		h.log.Error("Handle outcome failed", "error", err, "handle", req.Handle)
		RespondError(c, http.StatusInternalServerError, "outcome_failed", err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}
