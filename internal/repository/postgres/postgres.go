package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/neuroquarkk/authify/internal/core/port"
)

type pgExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// pgBeginner is the pool-level surface: statement execution plus the ability
// to open a transaction. Both pgxpool.Pool and pgxmock pools satisfy it.
type pgBeginner interface {
	pgExecutor
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store implements port.Store on PostgreSQL. Plain reads run against the
// pool; WithinTx hands the closure a repository set bound to one transaction.
type Store struct {
	db  pgBeginner
	set repoSet
}

type repoSet struct {
	users     *UserRepository
	sessions  *SessionRepository
	singleUse *SingleUseTokenRepository
	twoFactor *TwoFactorTokenRepository
	audit     *AuditRepository
}

func (s repoSet) Users() port.UserRepository                     { return s.users }
func (s repoSet) Sessions() port.SessionRepository               { return s.sessions }
func (s repoSet) SingleUseTokens() port.SingleUseTokenRepository { return s.singleUse }
func (s repoSet) TwoFactorTokens() port.TwoFactorTokenRepository { return s.twoFactor }
func (s repoSet) Audit() port.AuditRepository                    { return s.audit }

func (s repoSet) withTx(tx pgx.Tx) repoSet {
	return repoSet{
		users:     s.users.WithTx(tx),
		sessions:  s.sessions.WithTx(tx),
		singleUse: s.singleUse.WithTx(tx),
		twoFactor: s.twoFactor.WithTx(tx),
		audit:     s.audit.WithTx(tx),
	}
}

// NewStore wires all repositories over the provided pool.
func NewStore(db pgBeginner) *Store {
	return &Store{
		db: db,
		set: repoSet{
			users:     NewUserRepository(db),
			sessions:  NewSessionRepository(db),
			singleUse: NewSingleUseTokenRepository(db),
			twoFactor: NewTwoFactorTokenRepository(db),
			audit:     NewAuditRepository(db),
		},
	}
}

func (s *Store) Users() port.UserRepository                     { return s.set.users }
func (s *Store) Sessions() port.SessionRepository               { return s.set.sessions }
func (s *Store) SingleUseTokens() port.SingleUseTokenRepository { return s.set.singleUse }
func (s *Store) TwoFactorTokens() port.TwoFactorTokenRepository { return s.set.twoFactor }
func (s *Store) Audit() port.AuditRepository                    { return s.set.audit }

// WithinTx runs fn inside one transaction. Any error from fn rolls the unit
// back and is returned unchanged.
func (s *Store) WithinTx(ctx context.Context, fn func(r port.RepositorySet) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(s.set.withTx(tx)); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback tx: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

var _ port.Store = (*Store)(nil)

// isUniqueViolation reports whether err is a PostgreSQL unique constraint failure.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func joinColumns(cols []string) string {
	return strings.Join(cols, ", ")
}
