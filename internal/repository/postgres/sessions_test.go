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

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	createdAt := time.Now().UTC()
	ip := "198.51.100.10"
	session := domain.Session{
		ID:        "session-1",
		UserID:    "user-1",
		TokenHash: "hash-1",
		IP:        &ip,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}

	mock.ExpectExec(`INSERT INTO sessions`).
		WithArgs(
			session.ID,
			session.UserID,
			session.TokenHash,
			session.RotationCounter,
			session.Revoked,
			ip,
			nil,
			session.CreatedAt,
			session.UpdatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_Rotate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectQuery(`UPDATE sessions`).
		WithArgs("hash-new", at, "session-1", false, "hash-old").
		WillReturnRows(pgxmock.NewRows([]string{"rotation_counter"}).AddRow(int64(3)))

	counter, err := repo.Rotate(context.Background(), "session-1", "hash-old", "hash-new", at)
	if err != nil {
		t.Fatalf("Rotate returned error: %v", err)
	}
	if counter != 3 {
		t.Fatalf("expected rotation counter 3, got %d", counter)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RotateRaceLoser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectQuery(`UPDATE sessions`).
		WithArgs("hash-new", at, "session-1", false, "hash-stale").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.Rotate(context.Background(), "session-1", "hash-stale", "hash-new", at); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale hash, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RevokeAllForUser(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE sessions`).
		WithArgs(true, at, false, "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))

	count, err := repo.RevokeAllForUser(context.Background(), "user-1", at)
	if err != nil {
		t.Fatalf("RevokeAllForUser returned error: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 revoked sessions, got %d", count)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_RevokeOneZeroRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE sessions`).
		WithArgs(true, at, false, "hash-unknown", "user-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	if err := repo.RevokeOne(context.Background(), "user-1", "hash-unknown", at); err != nil {
		t.Fatalf("RevokeOne on unknown hash should be a no-op, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
