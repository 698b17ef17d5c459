// Package scope restricts batches to the configured active-activity set.
package scope

import (
	"context"

	"github.com/efitzgerald-adot/tracorp-activity-completions/internal/domain/record"
)

// Filter is an immutable membership filter over activity codes. Build one per
// run from configuration; there is no package-level state.
type Filter struct {
	active map[string]struct{}
}

// New builds a Filter from the configured allow-list.
func New(codes []string) *Filter {
	active := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		active[code] = struct{}{}
	}
	return &Filter{active: active}
}

// Contains reports whether the activity code is in scope.
func (f *Filter) Contains(code string) bool {
	_, ok := f.active[code]
	return ok
}

// Len returns the size of the active set.
func (f *Filter) Len() int {
	return len(f.active)
}

// Apply keeps only records whose activity code is in the active set. Pure
// set-membership; input order is preserved.
func (f *Filter) Apply(_ context.Context, records []record.Completion) []record.Completion {
	kept := make([]record.Completion, 0, len(records))
	for _, c := range records {
		if f.Contains(c.ActivityCode) {
			kept = append(kept, c)
		}
	}
	return kept
}
