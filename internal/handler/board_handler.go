package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"boardsync/internal/model"
	"boardsync/internal/store"
)

// BoardHandler exposes the store's named operations to the presentation
// layer. It never touches the gateway or the board value directly.
type BoardHandler struct {
	store *store.Store
}

func NewBoardHandler(st *store.Store) *BoardHandler {
	return &BoardHandler{store: st}
}

type ColumnRequest struct {
	Title string `json:"title" binding:"required"`
}

type CardRequest struct {
	ColumnID    string `json:"column_id" binding:"required,uuid"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type CardEditRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	IsDone      bool   `json:"is_done"`
}

type CardResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	IsDone      bool   `json:"is_done"`
	Order       int    `json:"order"`
	ColumnID    string `json:"column_id"`
}

type ColumnResponse struct {
	ID    string         `json:"id"`
	Title string         `json:"title"`
	Cards []CardResponse `json:"cards"`
}

type BoardResponse struct {
	Columns []ColumnResponse `json:"columns"`
}

// GetBoard returns the current in-memory snapshot without a remote call.
func (h *BoardHandler) GetBoard(c *gin.Context) {
	c.JSON(http.StatusOK, toBoardResponse(h.store.Columns()))
}

// RefreshBoard forces a full refetch from the remote store.
func (h *BoardHandler) RefreshBoard(c *gin.Context) {
	if err := h.store.FetchBoard(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to refresh board"})
		return
	}
	c.JSON(http.StatusOK, toBoardResponse(h.store.Columns()))
}

func (h *BoardHandler) CreateColumn(c *gin.Context) {
	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.store.AddColumn(c.Request.Context(), req.Title) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Column was not created"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Column created"})
}

func (h *BoardHandler) RenameColumn(c *gin.Context) {
	columnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}

	var req ColumnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.store.RenameColumn(c.Request.Context(), columnID, req.Title) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Column was not renamed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Column renamed"})
}

func (h *BoardHandler) DeleteColumn(c *gin.Context) {
	columnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}

	h.store.DeleteColumn(c.Request.Context(), columnID)
	c.JSON(http.StatusOK, gin.H{"message": "Column deleted"})
}

func (h *BoardHandler) CreateCard(c *gin.Context) {
	var req CardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	columnID, err := uuid.Parse(req.ColumnID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid column ID format"})
		return
	}

	if !h.store.AddCard(c.Request.Context(), columnID, req.Title, req.Description) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Card was not created"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Card created"})
}

func (h *BoardHandler) EditCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return
	}

	var req CardEditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if !h.store.EditCard(c.Request.Context(), cardID, req.Title, req.IsDone, req.Description) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Card was not updated"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Card updated"})
}

func (h *BoardHandler) DeleteCard(c *gin.Context) {
	cardID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid card ID format"})
		return
	}

	h.store.DeleteCard(c.Request.Context(), cardID)
	c.JSON(http.StatusOK, gin.H{"message": "Card deleted"})
}

func toBoardResponse(columns []model.Column) BoardResponse {
	resp := BoardResponse{Columns: make([]ColumnResponse, len(columns))}
	for i, col := range columns {
		cards := make([]CardResponse, len(col.Cards))
		for j, card := range col.Cards {
			cards[j] = CardResponse{
				ID:          card.ID.String(),
				Title:       card.Title,
				Description: card.Description,
				IsDone:      card.IsDone,
				Order:       card.Order,
				ColumnID:    card.ColumnID.String(),
			}
		}
		resp.Columns[i] = ColumnResponse{
			ID:    col.ID.String(),
			Title: col.Title,
			Cards: cards,
		}
	}
	return resp
}
