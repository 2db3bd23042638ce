package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"siteguard/models"
	"siteguard/services"
)

func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}

// SignupHandler registers a new user and opens a session.
// @Summary Sign up
// @Description Create an account and return an access and refresh token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.SignupRequest true "Account details"
// @Success 201 {object} models.Response{data=models.AuthResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /api/auth/signup [post]
func SignupHandler(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SignupRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := auth.Signup(c.Request.Context(), req, clientInfo(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusCreated, res)
	}
}

// LoginHandler handles user authentication
// @Summary Login user
// @Description Authenticate user and return an access and refresh token pair
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login credentials"
// @Success 200 {object} models.Response{data=models.AuthResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/login [post]

func LoginHandler(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := auth.Login(c.Request.Context(), req, clientInfo(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, res)
	}
}

// RefreshHandler rotates a refresh token.
// @Summary Refresh tokens
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RefreshRequest true "Refresh token"
// @Success 200 {object} models.Response{data=models.AuthResponse}
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/refresh [post]
func RefreshHandler(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.RefreshRequest
		if !bindJSON(c, &req) {
			return
		}
		res, err := auth.Refresh(c.Request.Context(), req.RefreshToken, clientInfo(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondData(c, http.StatusOK, res)
	}
}

// LogoutHandler ends the current session.
// @Summary Logout
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/logout [post]
func LogoutHandler(auth *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Logout(c.Request.Context(), c.GetString(ctxSessionID)); err != nil {
			respondError(c, err)
			return
		}
		respondMessage(c, http.StatusOK, "Logged out successfully")
	}
}

// MeHandler returns the signed-in user.
// @Summary Current user
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Response{data=models.User}
// @Failure 401 {object} models.ErrorResponse
// @Router /api/auth/me [get]
func MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := currentUser(c)
		if user == nil {
			respondError(c, errMissingToken)
			return
		}
		respondData(c, http.StatusOK, user)
	}
}
