package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/transport/http/middleware"
	"github.com/neuroquarkk/authify/internal/usecase"
)

const tokenTypeBearer = "Bearer"

// AuthHandler exposes the credential lifecycle endpoints.
type AuthHandler struct {
	auth *usecase.AuthService
}

// NewAuthHandler constructs AuthHandler.
func NewAuthHandler(auth *usecase.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// RegisterRoutes binds authentication routes. The optional middleware chains
// (rate limiting) run ahead of the credential-verifying handlers.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, loginMiddlewares, resetMiddlewares []gin.HandlerFunc) {
	r.POST("/signup", h.signUp)
	r.POST("/verify-email", h.verifyEmail)
	r.POST("/resend-verification", h.resendVerification)

	loginChain := append([]gin.HandlerFunc{}, loginMiddlewares...)
	r.POST("/login", append(loginChain, h.login)...)
	r.POST("/login/tfa", h.completeTwoFactor)

	r.POST("/refresh", h.refresh)
	r.POST("/logout", h.logout)

	forgotChain := append([]gin.HandlerFunc{}, resetMiddlewares...)
	r.POST("/forgot-password", append(forgotChain, h.forgotPassword)...)
	r.POST("/reset-password", h.resetPassword)
}

func (h *AuthHandler) signUp(c *gin.Context) {
	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid signup payload"))
		return
	}

	result, err := h.auth.SignUp(c.Request.Context(), req.Email, req.Password)
	if err != nil && !errors.Is(err, usecase.ErrDeliveryFailure) {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrEmailTaken, Status: http.StatusConflict, Message: "email already registered"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet strength requirements"},
		}, http.StatusInternalServerError, "signup failed")
		return
	}

	message := "account created, check your email to verify it"
	if err != nil {
		message = "account created, but the verification email could not be delivered"
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": message,
		"user":    newUserSummary(result.User),
	})
}

func (h *AuthHandler) verifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	email, err := h.auth.VerifyEmail(c.Request.Context(), req.Token)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTokenInvalid, Status: http.StatusBadRequest, Message: "invalid or expired verification token"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "account verified",
		"email":   email,
	})
}

func (h *AuthHandler) resendVerification(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), req.Email); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrDeliveryFailure, Status: http.StatusBadGateway, Message: "verification email could not be delivered"},
		}, http.StatusInternalServerError, "resend failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the account exists, a verification email has been sent"})
}

func (h *AuthHandler) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid login payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	input := usecase.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	}
	if reqCtx.IP != "" {
		input.IP = &reqCtx.IP
	}
	if reqCtx.UserAgent != "" {
		input.UserAgent = &reqCtx.UserAgent
	}

	result, err := h.auth.Login(c.Request.Context(), input)
	if err != nil && !errors.Is(err, usecase.ErrDeliveryFailure) {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
			{Err: usecase.ErrAccountNotVerified, Status: http.StatusForbidden, Message: "account is not verified"},
		}, http.StatusInternalServerError, "login failed")
		return
	}

	if result.StepUpRequired {
		if err != nil {
			c.JSON(http.StatusBadGateway, NewErrorResponse(c, "verification code could not be delivered"))
			return
		}
		c.JSON(http.StatusOK, StepUpResponse{
			StepUpRequired: true,
			Message:        "a verification code has been sent to your email",
		})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		User:         newUserSummary(result.User),
	})
}

func (h *AuthHandler) completeTwoFactor(c *gin.Context) {
	var req TwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid verification payload"))
		return
	}

	reqCtx := middleware.GetRequestContext(c)
	var ip, userAgent *string
	if reqCtx.IP != "" {
		ip = &reqCtx.IP
	}
	if reqCtx.UserAgent != "" {
		userAgent = &reqCtx.UserAgent
	}

	result, err := h.auth.CompleteTwoFactor(c.Request.Context(), req.Email, req.Code, ip, userAgent)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidOrExpiredCode, Status: http.StatusUnauthorized, Message: "invalid or expired code"},
			{Err: usecase.ErrInvalidCredentials, Status: http.StatusUnauthorized, Message: "invalid email or password"},
		}, http.StatusInternalServerError, "verification failed")
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
		User:         newUserSummary(result.User),
	})
}

func (h *AuthHandler) refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid refresh payload"))
		return
	}

	result, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrInvalidSession, Status: http.StatusUnauthorized, Message: "session is no longer valid"},
			{Err: security.ErrExpiredCredential, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: security.ErrMalformedCredential, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
		}, http.StatusInternalServerError, "refresh failed")
		return
	}

	c.JSON(http.StatusOK, RefreshResponse{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		TokenType:    tokenTypeBearer,
	})
}

func (h *AuthHandler) logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid logout payload"))
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, req.AllDevices); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: security.ErrExpiredCredential, Status: http.StatusUnauthorized, Message: "refresh token expired"},
			{Err: security.ErrMalformedCredential, Status: http.StatusUnauthorized, Message: "invalid refresh token"},
		}, http.StatusInternalServerError, "logout failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "logged out"})
}

func (h *AuthHandler) forgotPassword(c *gin.Context) {
	var req EmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid payload"))
		return
	}

	if err := h.auth.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrDeliveryFailure, Status: http.StatusBadGateway, Message: "reset email could not be delivered"},
		}, http.StatusInternalServerError, "request failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "if the account exists, a reset email has been sent"})
}

func (h *AuthHandler) resetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid reset payload"))
		return
	}

	if err := h.auth.CompletePasswordReset(c.Request.Context(), req.Token, req.Password); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrTokenInvalid, Status: http.StatusBadRequest, Message: "invalid or expired reset token"},
			{Err: usecase.ErrWeakPassword, Status: http.StatusBadRequest, Message: "password does not meet strength requirements"},
		}, http.StatusInternalServerError, "reset failed")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "password updated, sign in with your new password"})
}
