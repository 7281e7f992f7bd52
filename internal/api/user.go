package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pantryshare/backend/internal/models"
	"github.com/pantryshare/backend/internal/service"
)

type UserHandler struct {
	authService   *service.AuthService
	followService *service.FollowService
}

func NewUserHandler(authService *service.AuthService, followService *service.FollowService) *UserHandler {
	return &UserHandler{
		authService:   authService,
		followService: followService,
	}
}

func (h *UserHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	users := public.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
	}

	me := protected.Group("/users")
	{
		me.GET("/me", h.Me)
		me.GET("/subscriptions", h.Subscriptions)
		me.POST("/:id/subscribe", h.Subscribe)
		me.DELETE("/:id/subscribe", h.Unsubscribe)
	}
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	viewerID := optionalUserID(c)
	profiles := make([]gin.H, 0, len(users))
	for i := range users {
		profiles = append(profiles, h.profileJSON(c, &users[i], viewerID))
	}
	c.JSON(http.StatusOK, gin.H{"users": profiles})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.profileJSON(c, user, optionalUserID(c)))
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	user, err := h.authService.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.profileJSON(c, user, nil))
}

func (h *UserHandler) Subscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	projection, err := h.followService.Follow(c.Request.Context(), userID, authorID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, projection)
}

func (h *UserHandler) Unsubscribe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}
	authorID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}

	if err := h.followService.Unfollow(c.Request.Context(), userID, authorID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) Subscriptions(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	projections, err := h.followService.Subscriptions(c.Request.Context(), userID, recipesLimit(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": projections})
}

func (h *UserHandler) profileJSON(c *gin.Context, user *models.User, viewerID *uuid.UUID) gin.H {
	isSubscribed := false
	if viewerID != nil && *viewerID != user.ID {
		if following, err := h.followService.IsFollowing(c.Request.Context(), *viewerID, user.ID); err == nil {
			isSubscribed = following
		}
	}
	return gin.H{
		"id":            user.ID,
		"email":         user.Email,
		"username":      user.Username,
		"first_name":    user.FirstName,
		"last_name":     user.LastName,
		"is_subscribed": isSubscribed,
	}
}
