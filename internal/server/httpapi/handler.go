// Package httpapi exposes the auth service over HTTP using gin. Routes
// live under /api/v1; token-protected endpoints go through the Bearer
// middleware in middleware.go.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/agropath/farmauth/internal/common"
	"github.com/agropath/farmauth/internal/logging"
	"github.com/agropath/farmauth/internal/server/auth"
	"github.com/agropath/farmauth/internal/server/models"
	"github.com/agropath/farmauth/internal/server/services"
	"github.com/gin-gonic/gin"
)

// SessionManager is the slice of the session service the handlers use.
type SessionManager interface {
	Login(ctx context.Context, user *models.User) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	VerifyAccess(tokenString string) (*auth.Claims, error)
	LogoutAll(ctx context.Context, userID string) error
}

// UserManager is the slice of the user service the handlers use.
type UserManager interface {
	Signup(ctx context.Context, user *models.User) (*models.User, error)
	FindByPhone(ctx context.Context, phone string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// OtpManager is the slice of the OTP service the handlers use.
type OtpManager interface {
	GenerateAndSend(ctx context.Context, phone string) error
	VerifyOtp(ctx context.Context, phone string, code string) error
}

// SignupRequest is the payload for registering a farmer.
type SignupRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Local string `json:"local"`
	Area  string `json:"area"`
	City  string `json:"city"`
}

// SendOtpRequest is the payload for requesting a login code.
type SendOtpRequest struct {
	Phone string `json:"phone" binding:"required"`
}

// VerifyOtpRequest is the payload for exchanging a login code for tokens.
type VerifyOtpRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

// RefreshRequest is the payload for rotating a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenResponse contains both access and refresh tokens.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the public view of a farmer account.
type UserResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Local string `json:"local,omitempty"`
	Area  string `json:"area,omitempty"`
	City  string `json:"city,omitempty"`
}

func userResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Phone: u.Phone, Local: u.Local, Area: u.Area, City: u.City}
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	sessions SessionManager
	users    UserManager
	otp      OtpManager
	logger   logging.Logger
}

// NewAuthHandler constructs the handler set over the given services.
func NewAuthHandler(sessions SessionManager, users UserManager, otp OtpManager, logger logging.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, users: users, otp: otp, logger: logger.With("module", "http")}
}

// Register mounts all routes on the given engine.
func (h *AuthHandler) Register(r *gin.Engine) {
	v1 := r.Group("/api/v1")
	v1.POST("/auth/signup", h.Signup)
	v1.POST("/auth/send-otp", h.SendOtp)
	v1.POST("/auth/verify-otp", h.VerifyOtp)
	v1.POST("/auth/refresh", h.Refresh)

	protected := v1.Group("")
	protected.Use(BearerMiddleware(h.sessions))
	protected.POST("/auth/logout", h.Logout)
	protected.GET("/me", h.Me)
}

// Signup registers a new farmer account.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and phone are required"})
		return
	}
	created, err := h.users.Signup(c.Request.Context(), &models.User{
		Name:  req.Name,
		Phone: req.Phone,
		Local: req.Local,
		Area:  req.Area,
		City:  req.City,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, userResponse(created))
	case errors.Is(err, common.ErrPhoneExists):
		c.JSON(http.StatusConflict, gin.H{"error": "phone number already registered"})
	default:
		h.logger.Error(c.Request.Context(), "signup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not sign up"})
	}
}

// SendOtp issues a one-time login code for a registered phone number.
func (h *AuthHandler) SendOtp(c *gin.Context) {
	var req SendOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone is required"})
		return
	}
	ctx := c.Request.Context()
	if _, err := h.users.FindByPhone(ctx, req.Phone); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error(ctx, "send-otp lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send code"})
		return
	}
	if err := h.otp.GenerateAndSend(ctx, req.Phone); err != nil {
		h.logger.Error(ctx, "send-otp failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not send code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

// VerifyOtp exchanges a valid login code for a token pair.
func (h *AuthHandler) VerifyOtp(c *gin.Context) {
	var req VerifyOtpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phone and code are required"})
		return
	}
	ctx := c.Request.Context()
	if err := h.otp.VerifyOtp(ctx, req.Phone, req.Code); err != nil {
		switch {
		case errors.Is(err, common.ErrOtpNotFound), errors.Is(err, common.ErrOtpInvalid):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
		default:
			h.logger.Error(ctx, "verify-otp failed", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not verify code"})
		}
		return
	}
	user, err := h.users.FindByPhone(ctx, req.Phone)
	if err != nil {
		h.logger.Error(ctx, "verify-otp user lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}
	pair, err := h.sessions.Login(ctx, user)
	if err != nil {
		h.logger.Error(ctx, "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log in"})
		return
	}
	c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Refresh rotates a refresh token and issues a new pair.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh token required"})
		return
	}
	ctx := c.Request.Context()
	pair, err := h.sessions.Refresh(ctx, req.RefreshToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, TokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
	case errors.Is(err, common.ErrReuseDetected):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token reuse detected"})
	case errors.Is(err, common.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "refresh token expired"})
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenNotRecognized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid refresh token"})
	default:
		h.logger.Error(ctx, "refresh failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not refresh token"})
	}
}

// Logout revokes every session of the authenticated user.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if err := h.sessions.LogoutAll(c.Request.Context(), claims.UserID); err != nil {
		h.logger.Error(c.Request.Context(), "logout failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not log out"})
		return
	}
	c.Status(http.StatusNoContent)
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := ClaimsFromContext(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}
		h.logger.Error(c.Request.Context(), "me lookup failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load profile"})
		return
	}
	c.JSON(http.StatusOK, userResponse(user))
}
