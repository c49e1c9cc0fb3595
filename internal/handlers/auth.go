package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/httputil"
	"github.com/inkwell-app/backend/internal/logger"
	"go.uber.org/zap"
)

// Register handles user registration
// POST /api/v1/auth/register
func (h *Handlers) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserExists):
			httputil.RespondConflict(c, "email already registered")
		case errors.Is(err, auth.ErrUsernameExists):
			httputil.RespondConflict(c, "username already taken")
		default:
			logger.Log.Error("Registration failed", zap.Error(err))
			httputil.RespondInternalError(c, "registration failed")
		}
		return
	}

	logger.Log.Info("User registered",
		zap.String("user_id", resp.User.ID),
		zap.String("username", resp.User.Username))

	c.JSON(http.StatusCreated, resp)
}

// Login handles user login
// POST /api/v1/auth/login
func (h *Handlers) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.RespondBadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(req)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound), errors.Is(err, auth.ErrInvalidCredentials):
			// Same answer for both so login doesn't leak which emails exist
			httputil.RespondUnauthorized(c, "invalid email or password")
		default:
			logger.Log.Error("Login failed", zap.Error(err))
			httputil.RespondInternalError(c, "login failed")
		}
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Logout acknowledges a logout. Tokens are stateless so there is
// nothing to revoke server-side; any open socket for the user stays
// registered until it disconnects on its own.
// POST /api/v1/auth/logout
func (h *Handlers) Logout(c *gin.Context) {
	userID, ok := httputil.GetUserIDFromContext(c)
	if !ok {
		return
	}

	logger.Log.Info("User logged out", zap.String("user_id", userID))
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// Me returns the authenticated user
// GET /api/v1/auth/me
func (h *Handlers) Me(c *gin.Context) {
	user, ok := httputil.GetUserFromContext(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}
