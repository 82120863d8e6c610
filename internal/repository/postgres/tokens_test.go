package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/neuroquarkk/authify/internal/core/domain"
	"github.com/neuroquarkk/authify/internal/repository"
)

func TestSingleUseTokenRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSingleUseTokenRepository(mock)

	now := time.Now().UTC()
	token := domain.SingleUseToken{
		ID:        "token-1",
		UserID:    "user-1",
		Purpose:   domain.TokenPurposeVerification,
		Token:     "opaque-value",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
	}

	mock.ExpectExec(`INSERT INTO single_use_tokens .+ ON CONFLICT \(user_id, purpose\)`).
		WithArgs(token.ID, token.UserID, token.Purpose, token.Token, token.CreatedAt, token.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Upsert(context.Background(), token); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSingleUseTokenRepository_GetByTokenNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSingleUseTokenRepository(mock)

	mock.ExpectQuery(`SELECT .+ FROM single_use_tokens`).
		WithArgs(domain.TokenPurposePasswordReset, "unknown").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.GetByToken(context.Background(), domain.TokenPurposePasswordReset, "unknown"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSingleUseTokenRepository_DeleteConsumedByRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSingleUseTokenRepository(mock)

	// The record was deleted by a concurrent consumption between our
	// SELECT and DELETE; zero matched rows must surface ErrNotFound so
	// the consume path can tell it lost the race.
	mock.ExpectExec(`DELETE FROM single_use_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "token-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a zero-row delete, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSingleUseTokenRepository_Delete(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSingleUseTokenRepository(mock)

	mock.ExpectExec(`DELETE FROM single_use_tokens`).
		WithArgs("token-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	if err := repo.Delete(context.Background(), "token-1"); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTwoFactorTokenRepository_Upsert(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTwoFactorTokenRepository(mock)

	now := time.Now().UTC()
	token := domain.TwoFactorToken{
		ID:        "tfa-1",
		UserID:    "user-1",
		CodeHash:  "encoded",
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}

	mock.ExpectExec(`INSERT INTO two_factor_tokens .+ ON CONFLICT \(user_id\)`).
		WithArgs(token.ID, token.UserID, token.CodeHash, token.CreatedAt, token.ExpiresAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Upsert(context.Background(), token); err != nil {
		t.Fatalf("Upsert returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTwoFactorTokenRepository_DeleteConsumedByRace(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewTwoFactorTokenRepository(mock)

	// A concurrent verification consumed the code first; the zero-row
	// delete must not report success or the code would be accepted twice.
	mock.ExpectExec(`DELETE FROM two_factor_tokens`).
		WithArgs("tfa-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := repo.Delete(context.Background(), "tfa-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a zero-row delete, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAuditRepository_Append(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewAuditRepository(mock)

	entry := domain.AuditEntry{
		ID:        "audit-1",
		UserID:    "user-1",
		Action:    domain.AuditActionLogin,
		CreatedAt: time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO audit_logs`).
		WithArgs(entry.ID, entry.UserID, entry.Action, entry.CreatedAt).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Append(context.Background(), entry); err != nil {
		t.Fatalf("Append returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
