package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/core/port"
	"github.com/neuroquarkk/authify/internal/infra/logger"
	"github.com/neuroquarkk/authify/internal/infra/security"
	"github.com/neuroquarkk/authify/internal/infra/telemetry"
	"github.com/neuroquarkk/authify/internal/repository"
)

// AuthService is the credential engine's orchestrator: it composes the codec,
// hasher, session registry, step-up challenge, and single-use token services
// into the signup, login, refresh, logout, and reset flows.
type AuthService struct {
	store        port.Store
	hasher       port.PasswordHasher
	codec        *security.TokenCodec
	sessions     *SessionService
	twoFactor    *TwoFactorService
	registration *RegistrationService
	reset        *PasswordResetService
	mail         MailSender
	metrics      *telemetry.Metrics
	logger       *zap.Logger
}

// NewAuthService constructs the engine. Mail and metrics may be nil.
func NewAuthService(
	store port.Store,
	hasher port.PasswordHasher,
	codec *security.TokenCodec,
	sessions *SessionService,
	twoFactor *TwoFactorService,
	registration *RegistrationService,
	reset *PasswordResetService,
	mail MailSender,
	metrics *telemetry.Metrics,
	log *zap.Logger,
) *AuthService {
	if mail == nil {
		mail = noopMailSender{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		store:        store,
		hasher:       hasher,
		codec:        codec,
		sessions:     sessions,
		twoFactor:    twoFactor,
		registration: registration,
		reset:        reset,
		mail:         mail,
		metrics:      metrics,
		logger:       log,
	}
}

// LoginInput carries the already shape-validated login payload.
type LoginInput struct {
	Email     string
	Password  string
	IP        *string
	UserAgent *string
}

// LoginResult is either an issued session or a step-up demand; never both.
type LoginResult struct {
	StepUpRequired bool
	Email          string
	User           domain.User
	Session        *domain.Session
	AccessToken    string
	RefreshToken   string
}

// SignUp creates an unverified account and dispatches the verification email.
// A delivery failure after the committed state change surfaces as
// ErrDeliveryFailure alongside the created account.
func (s *AuthService) SignUp(ctx context.Context, email, password string) (*SignUpResult, error) {
	result, err := s.registration.SignUp(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if err := s.mail.SendVerificationLink(ctx, result.User.Email, result.Token); err != nil {
		s.logger.Warn("send verification email", zap.String("email", logger.MaskEmail(result.User.Email)), zap.Error(err))
		return result, fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	return result, nil
}

// VerifyEmail consumes a verification token, activating the account.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (string, error) {
	return s.registration.VerifyEmail(ctx, token)
}

// ResendVerification reissues the verification token for an unverified
// account and emails it. Unknown emails succeed silently.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	result, err := s.registration.ReissueVerification(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	if err := s.mail.SendVerificationLink(ctx, result.User.Email, result.Token); err != nil {
		s.logger.Warn("send verification email", zap.String("email", logger.MaskEmail(result.User.Email)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	return nil
}

// Login verifies credentials and either issues a session directly or, for
// two-factor accounts, sends a step-up code and returns without a session.
// Unknown email and wrong password resolve to the identical failure.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if email == "" || in.Password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.countLogin("invalid_credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.hasher.Verify(in.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		s.countLogin("invalid_credentials")
		return nil, ErrInvalidCredentials
	}

	if !user.IsVerified {
		s.countLogin("not_verified")
		return nil, ErrAccountNotVerified
	}

	if user.IsTwoFactorEnabled {
		code, _, err := s.twoFactor.Issue(ctx, user.ID)
		if err != nil {
			return nil, err
		}
		s.countLogin("step_up_required")

		result := &LoginResult{StepUpRequired: true, Email: user.Email}
		if err := s.mail.SendTwoFactorCode(ctx, user.Email, code); err != nil {
			s.logger.Warn("send two-factor code", zap.String("email", logger.MaskEmail(user.Email)), zap.Error(err))
			return result, fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
		}
		return result, nil
	}

	return s.issueSession(ctx, user, in.IP, in.UserAgent)
}

// CompleteTwoFactor finishes a step-up login. On a valid code it proceeds
// identically to the non-2FA branch; otherwise ErrInvalidOrExpiredCode.
func (s *AuthService) CompleteTwoFactor(ctx context.Context, email, code string, ip, userAgent *string) (*LoginResult, error) {
	user, err := s.store.Users().GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := s.twoFactor.Verify(ctx, user.ID, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		s.countLogin("invalid_code")
		return nil, ErrInvalidOrExpiredCode
	}

	return s.issueSession(ctx, user, ip, userAgent)
}

// RefreshResult carries the rotated token pair.
type RefreshResult struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Refresh validates the presented refresh token, rotates its session lineage,
// and reissues a fresh access token for the same user. A token whose session
// no longer resolves (revoked, stale after a concurrent rotation, or unknown)
// fails with ErrInvalidSession.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*RefreshResult, error) {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.FindActiveByToken(ctx, claims.UserID, refreshToken)
	if err != nil {
		return nil, err
	}

	newRefreshToken, err := s.sessions.Rotate(ctx, session)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, err
	}

	accessToken, err := s.codec.Issue(claims.UserID, security.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	if s.metrics != nil {
		s.metrics.TokenRefreshes.Inc()
	}

	return &RefreshResult{
		UserID:       claims.UserID,
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
	}, nil
}

// Logout revokes the presented refresh token's session, or every session for
// the user when allDevices is set. Revoking an already-dead token is a no-op.
func (s *AuthService) Logout(ctx context.Context, refreshToken string, allDevices bool) error {
	claims, err := s.codec.Verify(refreshToken)
	if err != nil {
		return err
	}

	if allDevices {
		_, err = s.sessions.RevokeAll(ctx, claims.UserID)
		return err
	}
	return s.sessions.RevokeOne(ctx, claims.UserID, refreshToken)
}

// RequestPasswordReset issues a reset token and emails it. Unknown emails
// succeed silently; the response is indistinguishable either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	request, err := s.reset.RequestReset(ctx, email)
	if err != nil {
		return err
	}
	if request == nil {
		return nil
	}

	if err := s.mail.SendPasswordResetLink(ctx, request.User.Email, request.Token, request.ExpiresAt); err != nil {
		s.logger.Warn("send password reset email", zap.String("email", logger.MaskEmail(request.User.Email)), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrDeliveryFailure, err)
	}

	return nil
}

// CompletePasswordReset consumes the reset token, replacing the password and
// revoking every session in one observable unit.
func (s *AuthService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	return s.reset.CompleteReset(ctx, token, newPassword)
}

// VerifyAccessToken validates an access token for the request layer's guard.
func (s *AuthService) VerifyAccessToken(token string) (*security.TokenClaims, error) {
	return s.codec.Verify(token)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User, ip, userAgent *string) (*LoginResult, error) {
	session, refreshToken, err := s.sessions.Create(ctx, user.ID, ip, userAgent)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.codec.Issue(user.ID, security.TokenKindAccess)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}

	s.countLogin("success")

	return &LoginResult{
		User:         user.Sanitized(),
		Session:      session,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func (s *AuthService) countLogin(result string) {
	if s.metrics != nil {
		s.metrics.LoginAttempts.WithLabelValues(result).Inc()
	}
}
