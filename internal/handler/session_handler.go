package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"boardsync/internal/session"
	"boardsync/internal/store"
)

// SessionHandler switches the signed-in owner. The store listens for
// session changes and loads or discards the board accordingly.
type SessionHandler struct {
	session *session.Session
	store   *store.Store
}

func NewSessionHandler(sess *session.Session, st *store.Store) *SessionHandler {
	return &SessionHandler{session: sess, store: st}
}

type SignInRequest struct {
	Token string `json:"token" binding:"required"`
}

func (h *SessionHandler) SignIn(c *gin.Context) {
	var req SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.session.SignIn(req.Token); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed in"})
}

func (h *SessionHandler) SignOut(c *gin.Context) {
	h.session.SignOut()
	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
