package auth

import (
	"errors"
	"net/http"
	"prompt-library-backend/internal/database"
	"prompt-library-backend/internal/middleware"
	"prompt-library-backend/internal/services"
	"prompt-library-backend/internal/utils"
	"prompt-library-backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	auth *services.AuthService
}

func NewHandler(auth *services.AuthService) *Handler {
	return &Handler{auth: auth}
}

func respondUnavailable(c *gin.Context, err error) bool {
	if !database.IsUnavailable(err) {
		return false
	}
	logger.Log.Warn("Database unavailable for auth request", zap.Error(err))
	c.JSON(http.StatusServiceUnavailable, utils.NewErrorResponse("Authentication is unavailable while the database is offline"))
	return true
}

// Signup godoc
// @Summary Register a new user
// @Description Create an account and return a bearer token for it
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input body auth.SignupRequest true "Signup Input"
// @Success 201 {object} utils.Response{data=auth.AuthResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/signup [post]
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.auth.Signup(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, utils.NewErrorResponse("User with this email already exists"))
			return
		}
		if respondUnavailable(c, err) {
			return
		}
		logger.Log.Error("Failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to register user"))
		return
	}

	logger.Log.Info("User registered", zap.String("user_id", result.User.ID))
	c.JSON(http.StatusCreated, utils.NewSuccessResponse(toAuthResponse(result)))
}

// Login godoc
// @Summary Log in a user
// @Description Exchange an email and password for a bearer token
// @Tags auth
// @Accept  json
// @Produce  json
// @Param   input body auth.LoginRequest true "Login Input"
// @Success 200 {object} utils.Response{data=auth.AuthResponse}
// @Failure 400 {object} utils.ErrorResponse
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/login [post]
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	result, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Invalid email or password"))
			return
		}
		if respondUnavailable(c, err) {
			return
		}
		logger.Log.Error("Failed to log in user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to log in"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(toAuthResponse(result)))
}

// Logout godoc
// @Summary Log out a user
// @Description Revoke the current token for the rest of its lifetime
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.MessageResponse
// @Failure 401 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	token, claims, ok := middleware.CurrentToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Access token required"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), token, claims); err != nil {
		logger.Log.Error("Failed to revoke token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, utils.NewErrorResponse("Failed to revoke token"))
		return
	}

	c.JSON(http.StatusOK, utils.MessageResponse{Message: "Logged out successfully"})
}

// Me godoc
// @Summary Current user
// @Description Return the account behind the bearer token
// @Tags auth
// @Produce  json
// @Security Bearer
// @Success 200 {object} utils.Response{data=auth.UserResponse}
// @Failure 401 {object} utils.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, utils.NewErrorResponse("Access token required"))
		return
	}

	c.JSON(http.StatusOK, utils.NewSuccessResponse(toUserResponse(user)))
}
