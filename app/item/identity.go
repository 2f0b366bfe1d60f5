package item

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const identitySeparator = "_"

// Identity is the ordered list of record fields hashed into an item id.
// Every adapter declares one; fields with empty values are skipped.
type Identity []string

// Of returns the hex SHA-256 digest of the named values joined in order.
func (id Identity) Of(values map[string]string) string {
	parts := make([]string, 0, len(id))
	for _, name := range id {
		if v := values[name]; v != "" {
			parts = append(parts, v)
		}
	}
	return Digest(strings.Join(parts, identitySeparator))
}

func Digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}
