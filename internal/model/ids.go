package model

import (
	"crypto/rand"
	"encoding/base32"
	"strings"
)

// NewID returns prefix-<suffix> where suffix is 8 chars of base32 (lowercase, no padding).
//
// NewID panics if the system random source fails. Since Go 1.24 crypto/rand.Read never
// returns an error and crashes the program itself instead, so there is nothing for callers to handle.
func NewID(prefix string) string {
	var b [5]byte // 40 bits -> 8 base32 chars
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	enc := base32.StdEncoding.WithPadding(base32.NoPadding)
	return prefix + "-" + strings.ToLower(enc.EncodeToString(b[:]))
}
