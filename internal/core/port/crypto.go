package port

// PasswordHasher hashes and verifies secrets using the configured algorithm.
// The engine uses it for account passwords and for step-up codes; the hash is
// the only persisted representation of either.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext string, encoded string) (bool, error)
}
