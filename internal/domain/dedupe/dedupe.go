// Package dedupe defines the natural-key semantics of completion dedup.
//
// The warehouse performs the production anti-join in SQL; this package holds
// the reference set semantics the SQL implementation must agree with, and is
// what repository tests check against.
package dedupe

import (
	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

// KeySet is a set of natural keys (activity, identity, completion date).
// Not safe for concurrent use; the pipeline is single-threaded.
type KeySet struct {
	seen map[record.Key]struct{}
}

// NewKeySet builds a KeySet seeded with the given keys.
func NewKeySet(keys ...record.Key) *KeySet {
	s := &KeySet{seen: make(map[record.Key]struct{}, len(keys))}
	for _, k := range keys {
		s.Add(k)
	}
	return s
}

// Add records a key.
func (s *KeySet) Add(k record.Key) {
	s.seen[k] = struct{}{}
}

// Contains reports whether the key is present.
func (s *KeySet) Contains(k record.Key) bool {
	_, ok := s.seen[k]
	return ok
}

// Size returns the number of distinct keys.
func (s *KeySet) Size() int {
	return len(s.seen)
}

// Distinct computes the candidates whose natural key is absent from the
// ledger set: a left-exclusion over all three key fields. Records with an
// unusable identity (blank or the BLANK sentinel) are excluded, and duplicate
// keys within the candidate batch collapse to their first occurrence. The
// result depends only on the inputs, never on evaluation order.
func Distinct(candidates []record.Completion, ledger *KeySet) []record.Completion {
	accepted := make([]record.Completion, 0, len(candidates))
	inBatch := NewKeySet()
	for _, c := range candidates {
		if c.Identity == "" || c.Identity == record.BlankIdentity {
			continue
		}
		if !c.HasDate() {
			// An undated completion can never satisfy the natural key.
			continue
		}
		k := c.Key()
		if ledger.Contains(k) || inBatch.Contains(k) {
			continue
		}
		inBatch.Add(k)
		accepted = append(accepted, c)
	}
	return accepted
}
