package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"boardsync/internal/drag"
)

// DragHandler receives gesture results from the pointer-tracking
// collaborator and forwards them to the reconciliation engine. Pointer
// mechanics (hit-testing, sensors, overlays) stay on the client side.
type DragHandler struct {
	engine *drag.Engine
}

func NewDragHandler(engine *drag.Engine) *DragHandler {
	return &DragHandler{engine: engine}
}

type DragStartRequest struct {
	CardID string `json:"card_id" binding:"required,uuid"`
}

type DragTargetRequest struct {
	ColumnID string `json:"column_id" binding:"required,uuid"`
	// CardID is empty when the drop target is the column body.
	CardID string `json:"card_id" binding:"omitempty,uuid"`
}

// DragEndRequest carries the final drop target; a missing target means
// the gesture was released outside any valid drop zone.
type DragEndRequest struct {
	Target *DragTargetRequest `json:"target"`
}

func (h *DragHandler) Start(c *gin.Context) {
	var req DragStartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cardID, err := uuid.Parse(req.CardID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return
	}

	if !h.engine.Start(cardID) {
		c.JSON(http.StatusConflict, gin.H{"error": "A drag is already in progress"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Drag started"})
}

func (h *DragHandler) Over(c *gin.Context) {
	var req DragTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	target, err := parseTarget(req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target"})
		return
	}

	h.engine.Over(target)
	c.JSON(http.StatusOK, gin.H{"message": "Preview applied"})
}

func (h *DragHandler) End(c *gin.Context) {
	var req DragEndRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Target == nil {
		h.engine.End(c.Request.Context(), nil)
		c.JSON(http.StatusOK, gin.H{"message": "Drag cancelled"})
		return
	}

	target, err := parseTarget(*req.Target)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target"})
		return
	}

	h.engine.End(c.Request.Context(), &target)
	c.JSON(http.StatusOK, gin.H{"message": "Drag applied"})
}

func parseTarget(req DragTargetRequest) (drag.Target, error) {
	columnID, err := uuid.Parse(req.ColumnID)
	if err != nil {
		return drag.Target{}, err
	}

	target := drag.Target{ColumnID: columnID}
	if req.CardID != "" {
		cardID, err := uuid.Parse(req.CardID)
		if err != nil {
			return drag.Target{}, err
		}
		target.CardID = cardID
	}
	return target, nil
}
