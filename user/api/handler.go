package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "feedback-analyzer/backend/pkg/errors"
	"feedback-analyzer/backend/pkg/logger"
	"feedback-analyzer/backend/pkg/middleware"
	"feedback-analyzer/backend/user/models"
	"feedback-analyzer/backend/user/service"
)

// UserHandler exposes signup, login and profile endpoints.
type UserHandler struct {
	service *service.UserService
	log     *logger.Logger
}

func NewUserHandler(service *service.UserService, log *logger.Logger) *UserHandler {
	return &UserHandler{service: service, log: log}
}

// Signup registers a new user account.
func (h *UserHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	user, err := h.service.Signup(&req)
	if err != nil {
		c.Error(err)
		return
	}

	h.log.Info("user registered", "user_id", user.ID, "email", user.Email)
	c.JSON(http.StatusCreated, user)
}

// Login verifies credentials and returns a bearer token.
func (h *UserHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(apperrors.NewBadRequestError("INVALID_REQUEST", err.Error()))
		return
	}

	token, user, err := h.service.Login(&req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "bearer",
		"user":         user,
	})
}

// Me returns the profile of the authenticated user.
func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		c.Error(apperrors.NewUnauthorizedError("UNAUTHORIZED", "Authentication required"))
		return
	}

	user, err := h.service.GetUserByID(userID)
	if err != nil {
		c.Error(apperrors.NewNotFoundError("USER_NOT_FOUND", "User not found"))
		return
	}

	c.JSON(http.StatusOK, user.ToResponse())
}
