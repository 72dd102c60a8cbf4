// Package selector decides which configured experts a turn dispatches to,
// applying a fixed ordered rule table over the classification the turn
// produced. There's no library concern here worth reaching for — it's a
// short list of ordered if/else rules over an enum, the kind of thing no
// third-party package in the example pack models.
package selector

import (
	"lineadvisor.app/advisor/pkg/classify"
)

// Input is everything the selector's rules read.
type Input struct {
	Category  classify.Category
	Severity  classify.Severity // zero value if no issue matched
	TurnCount int               // 1-based: 1 is the session's first turn

	Available  []string // expert names currently configured (subset of A, B, C)
	MaxExperts int
}

// Select returns the ordered list of expert names to dispatch for this turn,
// applying the first matching rule:
//
//  1. SAFETY_CRITICAL category, or critical severity, dispatches A, B, C.
//  2. COST or PRACTICAL category dispatches C, A.
//  3. TECHNICAL or NUMERIC category dispatches B, A.
//  4. GENERAL category on the session's first turn dispatches A alone.
//  5. Anything else (including GENERAL past the first turn) dispatches A, B.
//
// Every candidate list is filtered against Available (dropping experts that
// aren't configured) and truncated to MaxExperts, keeping the order the
// matching rule lists its experts in (so COST truncated to one expert keeps
// C, not A).
func Select(in Input) []string {
	var wanted []string
	switch {
	case in.Category == classify.CategorySafetyCritical || in.Severity == classify.SeverityCritical:
		wanted = []string{"A", "B", "C"}
	case in.Category == classify.CategoryCost || in.Category == classify.CategoryPractical:
		wanted = []string{"C", "A"}
	case in.Category == classify.CategoryTechnical || in.Category == classify.CategoryNumeric:
		wanted = []string{"B", "A"}
	case in.Category == classify.CategoryGeneral && in.TurnCount <= 1:
		wanted = []string{"A"}
	default:
		wanted = []string{"A", "B"}
	}

	max := in.MaxExperts
	if max <= 0 || max > len(in.Available) {
		max = len(in.Available)
	}

	set := make(map[string]bool, len(in.Available))
	for _, name := range in.Available {
		set[name] = true
	}

	out := make([]string, 0, max)
	for _, name := range wanted {
		if len(out) >= max {
			break
		}
		if set[name] {
			out = append(out, name)
		}
	}
	return out
}
