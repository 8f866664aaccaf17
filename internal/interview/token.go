package interview

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// newToken produces the short URL-safe identifier shared with the client.
// Encoding the 16 random bytes of a v4 UUID keeps the full 122 bits of
// entropy in 22 characters, so random collisions are operationally
// improbable; CreateInterview still collision-checks before inserting.
func newToken() string {
	id := uuid.New()
	return base64.RawURLEncoding.EncodeToString(id[:])
}
