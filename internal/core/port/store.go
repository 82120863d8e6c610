package port

import "context"

// RepositorySet groups the repositories over the persisted entities.
type RepositorySet interface {
	Users() UserRepository
	Sessions() SessionRepository
	SingleUseTokens() SingleUseTokenRepository
	TwoFactorTokens() TwoFactorTokenRepository
	Audit() AuditRepository
}

// Transactor runs a group of repository calls as one atomic unit of work.
// The closure receives transaction-scoped repositories; returning an error
// rolls the whole unit back. Locking is scoped to the lifetime of one call
// and the store serializes concurrent attempts on the same row.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(r RepositorySet) error) error
}

// Store is the full persistence surface consumed by the engine: plain reads
// run against the pool-backed RepositorySet, mutations paired with audit
// writes run through WithinTx.
type Store interface {
	RepositorySet
	Transactor
}
