// Package password is the credential store: salted one-way hashing and
// verification of login passwords. Both functions are pure and safe for
// concurrent use.
package password

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// Hash returns a salted bcrypt hash of the password. Two calls with the
// same input produce different strings that both verify against it.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches the stored hash. Any mismatch or
// malformed hash yields false; it never panics on untrusted input.
func Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
