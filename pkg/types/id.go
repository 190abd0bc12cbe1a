package types

import "github.com/oklog/ulid/v2"

// GenerateID returns a prefixed ULID. Make() draws entropy from
// crypto/rand and panics only if the reader fails.
func GenerateID(prefix string) string {
	return prefix + "_" + ulid.Make().String()
}
