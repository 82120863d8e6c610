package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/neuroquarkk/authify/internal/core/domain"
)

// ErrorResponse represents a generic error payload with trace ID for debugging.
type ErrorResponse struct {
	Error   string `json:"error"`
	TraceID string `json:"trace_id,omitempty"`
}

// NewErrorResponse creates an error response with trace ID from context.
func NewErrorResponse(c *gin.Context, errorMsg string) ErrorResponse {
	traceID, _ := c.Get("trace_id")
	traceIDStr, _ := traceID.(string)

	return ErrorResponse{
		Error:   errorMsg,
		TraceID: traceIDStr,
	}
}

// MessageResponse represents a simple message payload.
type MessageResponse struct {
	Message string `json:"message"`
}

// UserSummary describes the account view returned by the API.
type UserSummary struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	IsVerified         bool      `json:"is_verified"`
	IsTwoFactorEnabled bool      `json:"is_two_factor_enabled"`
	CreatedAt          time.Time `json:"created_at"`
}

func newUserSummary(user domain.User) UserSummary {
	return UserSummary{
		ID:                 user.ID,
		Email:              user.Email,
		IsVerified:         user.IsVerified,
		IsTwoFactorEnabled: user.IsTwoFactorEnabled,
		CreatedAt:          user.CreatedAt,
	}
}

// SignUpRequest defines the payload for the signup endpoint.
type SignUpRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest defines the payload for the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TwoFactorRequest finishes a step-up login with the emailed code.
type TwoFactorRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required"`
}

// LoginResponse is returned for a fully issued session.
type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	TokenType    string      `json:"token_type"`
	User         UserSummary `json:"user"`
}

// StepUpResponse is returned when a login requires a two-factor code.
type StepUpResponse struct {
	StepUpRequired bool   `json:"step_up_required"`
	Message        string `json:"message"`
}

// RefreshRequest presents a refresh token for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshResponse carries the rotated token pair.
type RefreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// LogoutRequest revokes the presented refresh token's session, or all of the
// user's sessions when AllDevices is set.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
	AllDevices   bool   `json:"all_devices"`
}

// EmailRequest carries a bare email address (resend verification, forgot password).
type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// VerifyEmailRequest redeems a verification token.
type VerifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// ResetPasswordRequest redeems a reset token with the replacement password.
type ResetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UpdateSettingsRequest carries the mutable account preferences.
type UpdateSettingsRequest struct {
	IsTwoFactorEnabled *bool `json:"is_two_factor_enabled"`
}

// DeleteAccountRequest re-verifies the password before account removal.
type DeleteAccountRequest struct {
	Password string `json:"password" binding:"required"`
}

// AuditEntryView is one audit trail record.
type AuditEntryView struct {
	ID        string    `json:"id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditPageResponse is one page of the authenticated user's audit trail.
type AuditPageResponse struct {
	Entries   []AuditEntryView `json:"entries"`
	Total     int              `json:"total"`
	Page      int              `json:"page"`
	PageCount int              `json:"page_count"`
	Limit     int              `json:"limit"`
}

// HealthResponse reports liveness information.
type HealthResponse struct {
	Status    string    `json:"status"`
	StartedAt time.Time `json:"started_at"`
}
