// Package auth implements the identity gate: a membership test of normalized
// user names against a fixed allow-set. It is deliberately not a credential
// system; there are no passwords, tokens, or replay protection. Membership is
// the only factor.
package auth

import (
	"errors"
	"strings"
)

// Authentication failures. Both are terminal for the attempt; the user may
// simply retry with a different name.
var (
	// ErrEmptyName is returned when the claimed name is blank after trimming.
	ErrEmptyName = errors.New("name must not be empty")

	// ErrNotAllowed is returned when the normalized name is not on the allow-list.
	ErrNotAllowed = errors.New("not authorized to use this chatbot")
)

// Gate validates claimed identities against a fixed allow-set. The set is
// built once at construction and never mutated, so Gate is safe for
// concurrent use.
type Gate struct {
	allowed map[string]struct{}
}

// NewGate builds a Gate from the configured allow-list. Entries are
// normalized the same way claimed names are; blank entries are dropped.
func NewGate(names []string) *Gate {
	g := &Gate{allowed: make(map[string]struct{}, len(names))}
	for _, n := range names {
		if n = Normalize(n); n != "" {
			g.allowed[n] = struct{}{}
		}
	}
	return g
}

// Normalize returns the canonical form of a claimed name: trimmed and
// lowercased. All identity comparisons happen on this form.
func Normalize(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// Authenticate validates a claimed name and returns the normalized identity.
// It fails with ErrEmptyName for blank input and ErrNotAllowed when the
// normalized form is not a member of the allow-set.
func (g *Gate) Authenticate(raw string) (string, error) {
	name := Normalize(raw)
	if name == "" {
		return "", ErrEmptyName
	}
	if _, ok := g.allowed[name]; !ok {
		return "", ErrNotAllowed
	}
	return name, nil
}
