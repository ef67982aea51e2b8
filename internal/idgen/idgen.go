// Package idgen mints opaque short player id strings. Grounded in
// world.AllocateEntityID's "use shorter ids first to save on wire bytes"
// policy, generalized from a uint32 numeric id to a base32 string (spec.md
// calls for "an opaque short string", not a fixed-width integer) and using
// github.com/gofrs/uuid as the entropy source instead of math/rand, since
// player ids are handed to untrusted clients and should not be predictable
// from a low-entropy PRNG seed the way a purely cosmetic entity id can be.
package idgen

import (
	"encoding/base32"
	"fmt"

	"github.com/gofrs/uuid"
)

const maxAttempts = 10

// shortEncoding is unpadded base32 (no '=' filler), keeping ids compact and
// URL/JSON-safe.
var shortEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// New mints an id not already reported as in-use by used, growing the
// candidate's length on each collision (starting at 4 chars, capped at 16)
// the same way AllocateEntityID grows its hex-digit count, and panicking
// after maxAttempts as the teacher's allocator does — a real collision
// storm at any of these lengths indicates a caller bug, not bad luck.
func New(used func(id string) bool) string {
	for attempt := 0; attempt < maxAttempts; attempt++ {
		length := attempt + 4
		if length > 16 {
			length = 16
		}

		id := shortID(length)
		if id != "" && !used(id) {
			return id
		}
	}
	panic("idgen: could not find unique id in " + fmt.Sprint(maxAttempts) + " tries")
}

// shortID returns a random id string truncated to length characters of
// base32-encoded UUID entropy.
func shortID(length int) string {
	u, err := uuid.NewV4()
	if err != nil {
		return ""
	}
	encoded := shortEncoding.EncodeToString(u.Bytes())
	if length > len(encoded) {
		length = len(encoded)
	}
	return encoded[:length]
}
