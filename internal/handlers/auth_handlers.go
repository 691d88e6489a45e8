package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"purchase_manager_backend/internal/services"
	"purchase_manager_backend/pkg/utils"
)

const refreshCookieName = "refresh_token"

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService  services.AuthService
	cookieSecure bool
}

// NewAuthHandler creates a new AuthHandler. cookieSecure marks the refresh
// cookie Secure, which browsers only send over https.
func NewAuthHandler(as services.AuthService, cookieSecure bool) *AuthHandler {
	return &AuthHandler{authService: as, cookieSecure: cookieSecure}
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(refreshCookieName, token, maxAge, "/", "", h.cookieSecure, true)
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.LogError(err, "LoginUser: Failed to bind JSON")
		utils.RespondValidationFailed(c, "Invalid request payload", err.Error())
		return
	}

	authResp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "LoginUser: Error from authService.Login")
		return
	}
	h.setRefreshCookie(c, authResp.RefreshToken, int(utils.RefreshTokenTTL.Seconds()))
	c.JSON(http.StatusOK, gin.H{
		"message":      "Login successful",
		"user":         authResp.User,
		"access_token": authResp.AccessToken,
	})
}

// RefreshToken exchanges the refresh cookie for a new access token.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	token, err := c.Cookie(refreshCookieName)
	if err != nil || token == "" {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Refresh token required.", "missing refresh_token cookie"))
		return
	}

	authResp, err := h.authService.Refresh(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			h.setRefreshCookie(c, "", -1)
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired refresh token.", err.Error()))
			return
		}
		respondServiceError(c, err, "RefreshToken: Error from authService.Refresh")
		return
	}
	if authResp.RefreshToken != "" {
		h.setRefreshCookie(c, authResp.RefreshToken, int(utils.RefreshTokenTTL.Seconds()))
	}
	c.JSON(http.StatusOK, gin.H{"user": authResp.User, "access_token": authResp.AccessToken})
}

// LogoutUser clears the refresh cookie. Access tokens simply expire.
func (h *AuthHandler) LogoutUser(c *gin.Context) {
	h.setRefreshCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// GetCurrentUser retrieves the profile of the currently authenticated user.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor := actorFromContext(c)
	if actor.UserID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}

	user, err := h.authService.Me(c.Request.Context(), actor.UserID)
	if err != nil {
		respondServiceError(c, err, "GetCurrentUser: Error from authService.Me for userID "+utils.Int64ToStr(actor.UserID))
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword lets the caller replace their own password.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	actor := actorFromContext(c)
	if actor.UserID == 0 {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondValidationFailed(c, "Invalid request payload", err.Error())
		return
	}
	if err := h.authService.ChangePassword(c.Request.Context(), actor.UserID, req); err != nil {
		respondServiceError(c, err, "ChangePassword: Error from authService.ChangePassword")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password updated successfully"})
}
