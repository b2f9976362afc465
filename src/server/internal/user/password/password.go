package password

import (
	"github.com/cockroachdb/errors"
	"golang.org/x/crypto/bcrypt"
)

// cost is fixed by policy - bumping it only affects newly stored digests,
// existing ones carry their own cost factor
const cost = bcrypt.DefaultCost

func Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), cost)
	if err != nil {
		return "", errors.Wrap(err, "Failed to hash password")
	}

	return string(digest), nil
}

// Verify reports whether plaintext matches the stored digest. A malformed
// digest fails closed: the answer is false, never an error or a panic.
func Verify(plaintext string, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	return err == nil
}
