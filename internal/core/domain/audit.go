package domain

import "time"

// AuditAction enumerates the security-relevant actions recorded on the trail.
type AuditAction string

const (
	AuditActionLogin                   AuditAction = "login"
	AuditActionRefreshToken            AuditAction = "refresh_token"
	AuditActionLogoutSingleDevice      AuditAction = "logout_single_device"
	AuditActionLogoutAllDevices        AuditAction = "logout_all_devices"
	AuditActionTwoFactorCodeSend       AuditAction = "tfa_code_send"
	AuditActionTwoFactorVerifySuccess  AuditAction = "tfa_verify_success"
	AuditActionVerificationEmailSent   AuditAction = "verification_email_sent"
	AuditActionAccountVerified         AuditAction = "account_verified_success"
	AuditActionPasswordResetRequest    AuditAction = "password_reset_request"
	AuditActionPasswordResetSuccess    AuditAction = "password_reset_success"
	AuditActionAllSessionsRevokedReset AuditAction = "all_sessions_revoked_post_reset"
	AuditActionUserSettingsUpdate      AuditAction = "user_settings_update"
)

// AuditEntry is an immutable append-only record. The engine never mutates or
// deletes entries; each one commits in the same atomic unit as the state
// change it documents.
type AuditEntry struct {
	ID        string
	UserID    string
	Action    AuditAction
	CreatedAt time.Time
}

// AuditPage is one page of a user's audit trail ordered by creation time.
type AuditPage struct {
	Entries   []AuditEntry
	Total     int
	Page      int
	PageCount int
	Limit     int
}
