package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/infra/security"
)

type authFixture struct {
	store  *memStore
	codec  *security.TokenCodec
	mail   *recordingMailSender
	events *recordingEventPublisher
	svc    *AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	store := newMemStore()
	codec := newTestCodec(t)
	mail := &recordingMailSender{}
	events := &recordingEventPublisher{}
	hasher := plainHasher{}
	validator := security.DefaultPasswordValidator()

	sessions := NewSessionService(store, codec, nil)
	twoFactor := NewTwoFactorService(store, hasher, 5*time.Minute)
	verification := NewVerificationTokenService(store, time.Hour)
	resetTokens := NewPasswordResetTokenService(store, time.Hour)
	registration := NewRegistrationService(store, hasher, verification, validator, events, nil)
	reset := NewPasswordResetService(store, hasher, resetTokens, validator, events, nil)

	svc := NewAuthService(store, hasher, codec, sessions, twoFactor, registration, reset, mail, nil, nil)

	return &authFixture{
		store:  store,
		codec:  codec,
		mail:   mail,
		events: events,
		svc:    svc,
	}
}

func (f *authFixture) seedVerified(t *testing.T, email, password string, twoFactor bool) string {
	t.Helper()

	now := time.Now().UTC()
	id := "user-" + email
	seedUser(t, f.store, domain.User{
		ID:                 id,
		Email:              email,
		PasswordHash:       "hashed:" + password,
		IsVerified:         true,
		IsTwoFactorEnabled: twoFactor,
		CreatedAt:          now,
		UpdatedAt:          now,
	})
	return id
}

func TestLoginIssuesTokenPair(t *testing.T) {
	f := newAuthFixture(t)
	userID := f.seedVerified(t, "alice@example.com", "secret", false)

	result, err := f.svc.Login(context.Background(), LoginInput{Email: "Alice@Example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.StepUpRequired {
		t.Fatal("no step-up expected without two-factor")
	}
	if result.Session == nil {
		t.Fatal("expected an issued session")
	}

	claims, err := f.codec.Verify(result.AccessToken)
	if err != nil {
		t.Fatalf("access token must verify: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("access token bound to %q, want %q", claims.UserID, userID)
	}
	if _, err := f.codec.Verify(result.RefreshToken); err != nil {
		t.Fatalf("refresh token must verify: %v", err)
	}
	if !f.store.hasAudit(userID, domain.AuditActionLogin) {
		t.Fatal("expected a login audit entry")
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerified(t, "alice@example.com", "secret", false)
	ctx := context.Background()

	_, unknownErr := f.svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "secret"})
	_, wrongErr := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "not-it"})

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongErr, ErrInvalidCredentials) {
		t.Fatalf("both failures must be ErrInvalidCredentials: %v vs %v", unknownErr, wrongErr)
	}
	if unknownErr.Error() != wrongErr.Error() {
		t.Fatal("unknown email and wrong password must be textually identical")
	}
}

func TestLoginRequiresVerifiedAccount(t *testing.T) {
	f := newAuthFixture(t)
	now := time.Now().UTC()
	seedUser(t, f.store, domain.User{
		ID:           "user-1",
		Email:        "alice@example.com",
		PasswordHash: "hashed:secret",
		CreatedAt:    now,
		UpdatedAt:    now,
	})

	_, err := f.svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "secret"})
	if !errors.Is(err, ErrAccountNotVerified) {
		t.Fatalf("expected ErrAccountNotVerified, got %v", err)
	}
	if len(f.store.data.sessions) != 0 {
		t.Fatal("no session may be issued before verification")
	}
}

func TestLoginWithTwoFactorDemandsStepUp(t *testing.T) {
	f := newAuthFixture(t)
	userID := f.seedVerified(t, "alice@example.com", "secret", true)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !result.StepUpRequired {
		t.Fatal("expected a step-up demand")
	}
	if result.Session != nil || result.AccessToken != "" || result.RefreshToken != "" {
		t.Fatal("no credentials may be issued before the step-up completes")
	}
	if len(f.store.data.sessions) != 0 {
		t.Fatal("no session row may exist before the step-up completes")
	}
	if len(f.mail.twoFactorCodes) != 1 {
		t.Fatalf("expected one delivered code, got %d", len(f.mail.twoFactorCodes))
	}
	if !f.store.hasAudit(userID, domain.AuditActionTwoFactorCodeSend) {
		t.Fatal("expected a tfa_code_send audit entry")
	}

	completed, err := f.svc.CompleteTwoFactor(ctx, "alice@example.com", f.mail.twoFactorCodes[0], nil, nil)
	if err != nil {
		t.Fatalf("complete two-factor: %v", err)
	}
	if completed.Session == nil || completed.AccessToken == "" {
		t.Fatal("expected a full session after the step-up")
	}
	if completed.Session.RotationCounter != 0 {
		t.Fatalf("a fresh session starts at rotation 0, got %d", completed.Session.RotationCounter)
	}
	if !f.store.hasAudit(userID, domain.AuditActionTwoFactorVerifySuccess) {
		t.Fatal("expected a tfa_verify_success audit entry")
	}

	// The consumed code does not work a second time.
	if _, err := f.svc.CompleteTwoFactor(ctx, "alice@example.com", f.mail.twoFactorCodes[0], nil, nil); !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("a consumed code must be dead, got %v", err)
	}
}

func TestCompleteTwoFactorRejectsWrongCode(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerified(t, "alice@example.com", "secret", true)
	ctx := context.Background()

	if _, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	wrongCode := "000000"
	if f.mail.twoFactorCodes[0] == wrongCode {
		wrongCode = "111111"
	}

	_, err := f.svc.CompleteTwoFactor(ctx, "alice@example.com", wrongCode, nil, nil)
	if !errors.Is(err, ErrInvalidOrExpiredCode) {
		t.Fatalf("expected ErrInvalidOrExpiredCode, got %v", err)
	}
}

func TestRefreshRotatesTheSession(t *testing.T) {
	f := newAuthFixture(t)
	userID := f.seedVerified(t, "alice@example.com", "secret", false)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	refreshed, err := f.svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if refreshed.UserID != userID {
		t.Fatalf("refresh bound to %q, want %q", refreshed.UserID, userID)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Fatal("rotation must issue a new refresh token")
	}

	// The pre-rotation token is dead.
	if _, err := f.svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession for the stale token, got %v", err)
	}

	// The rotated one keeps working.
	if _, err := f.svc.Refresh(ctx, refreshed.RefreshToken); err != nil {
		t.Fatalf("rotated token must refresh: %v", err)
	}
}

func TestRefreshRejectsRevokedSession(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerified(t, "alice@example.com", "secret", false)
	ctx := context.Background()

	login, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := f.svc.Logout(ctx, login.RefreshToken, false); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if _, err := f.svc.Refresh(ctx, login.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession after logout, got %v", err)
	}
}

func TestLogoutAllDevices(t *testing.T) {
	f := newAuthFixture(t)
	userID := f.seedVerified(t, "alice@example.com", "secret", false)
	ctx := context.Background()

	first, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("first login: %v", err)
	}
	second, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("second login: %v", err)
	}

	if err := f.svc.Logout(ctx, first.RefreshToken, true); err != nil {
		t.Fatalf("logout all: %v", err)
	}

	if _, err := f.svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("every session must be dead, got %v", err)
	}
	if !f.store.hasAudit(userID, domain.AuditActionLogoutAllDevices) {
		t.Fatal("expected a logout_all_devices audit entry")
	}
}

func TestRefreshRejectsMalformedToken(t *testing.T) {
	f := newAuthFixture(t)

	if _, err := f.svc.Refresh(context.Background(), "not-a-jwt"); !errors.Is(err, security.ErrMalformedCredential) {
		t.Fatalf("expected ErrMalformedCredential, got %v", err)
	}
}

func TestResendVerificationUnknownEmailSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.ResendVerification(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must succeed silently: %v", err)
	}
	if len(f.mail.verificationTokens) != 0 {
		t.Fatal("no mail may be sent for an unknown email")
	}
}

func TestResendVerificationVerifiedAccountIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	f.seedVerified(t, "alice@example.com", "secret", false)

	if err := f.svc.ResendVerification(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("a verified account must succeed silently: %v", err)
	}
	if len(f.mail.verificationTokens) != 0 {
		t.Fatal("no mail may be sent to an already-verified account")
	}
	if len(f.store.data.singleUse) != 0 {
		t.Fatal("no token may be issued for an already-verified account")
	}
}

func TestRequestPasswordResetUnknownEmailSucceeds(t *testing.T) {
	f := newAuthFixture(t)

	if err := f.svc.RequestPasswordReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("unknown email must succeed silently: %v", err)
	}
	if len(f.mail.resetTokens) != 0 {
		t.Fatal("no mail may be sent for an unknown email")
	}
}

func TestSignUpSurfacesDeliveryFailureAfterCommit(t *testing.T) {
	f := newAuthFixture(t)
	f.mail.sendErr = errors.New("smtp down")

	result, err := f.svc.SignUp(context.Background(), "alice@example.com", strongPassword)
	if !errors.Is(err, ErrDeliveryFailure) {
		t.Fatalf("expected ErrDeliveryFailure, got %v", err)
	}
	if result == nil {
		t.Fatal("the committed account must accompany the delivery error")
	}
	if len(f.store.data.users) != 1 {
		t.Fatal("the account creation must survive the delivery failure")
	}
	if len(f.store.data.singleUse) != 1 {
		t.Fatal("the verification token must survive the delivery failure")
	}
}

func TestVerifyAccessTokenGuardsExpiry(t *testing.T) {
	f := newAuthFixture(t)
	userID := f.seedVerified(t, "alice@example.com", "secret", false)
	ctx := context.Background()

	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	f.codec.WithClock(func() time.Time { return issuedAt })

	login, err := f.svc.Login(ctx, LoginInput{Email: "alice@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := f.svc.VerifyAccessToken(login.AccessToken)
	if err != nil {
		t.Fatalf("fresh access token must verify: %v", err)
	}
	if claims.UserID != userID {
		t.Fatalf("claims bound to %q, want %q", claims.UserID, userID)
	}

	f.codec.WithClock(func() time.Time { return issuedAt.Add(16 * time.Minute) })
	if _, err := f.svc.VerifyAccessToken(login.AccessToken); !errors.Is(err, security.ErrExpiredCredential) {
		t.Fatalf("expected ErrExpiredCredential, got %v", err)
	}
}
