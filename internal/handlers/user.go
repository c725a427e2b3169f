package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/learnloop/coursechat/internal/database"
	"github.com/learnloop/coursechat/internal/middleware"
)

type UserHandler struct {
	db *database.Database
}

func NewUserHandler(db *database.Database) *UserHandler {
	return &UserHandler{db: db}
}

// GetMe returns the caller's profile; the chat client uses it for the
// sender snapshot shown next to outgoing messages.
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	user, err := h.db.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"fullName":     user.FullName,
		"email":        user.Email,
		"profileImage": user.ProfileImage,
		"role":         user.Role,
		"createdAt":    user.CreatedAt,
		"lastSeenAt":   user.LastSeenAt,
	})
}

// UpdateMe updates the caller's display profile.
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID := c.MustGet(middleware.UserIDKey).(uint)

	var req struct {
		FullName     string `json:"fullName"`
		ProfileImage string `json:"profileImage"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.db.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	// Only the provided fields change
	if req.FullName != "" {
		user.FullName = req.FullName
	}
	if req.ProfileImage != "" {
		user.ProfileImage = req.ProfileImage
	}

	if err := h.db.UpdateUser(user); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           user.ID,
		"fullName":     user.FullName,
		"profileImage": user.ProfileImage,
	})
}
