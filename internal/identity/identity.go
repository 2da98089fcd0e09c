// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package identity derives pseudonymous respondent identifiers.
//
// An email address, when present, is the strongest signal; a display name is
// the fallback. Both are trimmed and lower-cased before hashing, so "Alice" and
// "alice" are the same respondent. Respondents who give neither get a random
// identifier and are therefore never deduplicated across attempts.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"

	"github.com/pdiddy/iqa-survey/pkg/types"
)

// Response keys consulted by FromResponses.
const (
	EmailField = "email"
	NameField  = "name"
)

// Hash returns the lowercase hex SHA-256 digest of s.
func Hash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

// Derive returns a stable id for email or name, or a random one when both
// are blank.
func Derive(email, name string) string {
	if e := normalize(email); e != "" {
		return Hash(e)
	}
	if n := normalize(name); n != "" {
		return Hash(n)
	}
	return NewRandom()
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// FromResponses derives the id from the email and name form fields.
func FromResponses(r types.Responses) string {
	return Derive(r[EmailField], r[NameField])
}

// Anonymize hashes a response value with the same normalization as the
// identity fields, so an anonymized email matches the derived identity. A
// blank value hashes to BlankHash.
func Anonymize(value string) string {
	return Hash(normalize(value))
}

// BlankHash is the anonymized form of an empty response. It never identifies
// a respondent.
var BlankHash = Hash("")

// NewRandom returns a fresh random identifier.
func NewRandom() string {
	return uuid.NewString()
}
