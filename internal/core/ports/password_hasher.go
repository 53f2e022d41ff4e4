package ports

// PasswordHasher isolates the core from a specific hash algorithm.
//
// Hash is salted internally, so two calls with the same plaintext produce
// different outputs; Verify is the only meaningful comparison.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)

	// Verify fails closed: a malformed hash reports false, never an error.
	Verify(plaintext, hash string) bool
}
