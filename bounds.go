package feasibility

import (
	"fmt"
	"math"
)

// AsymptoticBound is the limit of the Liu & Layland bound as n → ∞: ln 2 ≈ 0.693.
// Any implicit-deadline set with U ≤ ln 2 is rate-monotonic schedulable,
// whatever its size.
const AsymptoticBound = math.Ln2

// HyperbolicLimit is the right-hand side of the hyperbolic bound: Π(U_i + 1) ≤ 2.
const HyperbolicLimit = 2.0

// LiuLaylandBound returns n(2^(1/n) - 1), the least upper utilization bound for
// n implicit-deadline tasks under rate-monotonic priorities.
//
//	n=1: 1.000   n=2: 0.828   n=3: 0.780   n→∞: 0.693
func LiuLaylandBound(n int) float64 {
	if n <= 0 {
		return 0
	}
	fn := float64(n)
	return fn * (math.Pow(2, 1/fn) - 1)
}

// UtilizationBoundFeasible is the Liu & Layland sufficient test: U ≤ n(2^(1/n) - 1).
// A false result does not mean the set is infeasible, only that this test cannot
// decide it. It returns false for sets with explicit deadlines, where the bound
// does not apply.
func UtilizationBoundFeasible(ts TaskSet) bool {
	if len(ts) == 0 || !ts.ImplicitDeadlines() {
		return false
	}
	return ts.Utilization() <= LiuLaylandBound(len(ts))
}

// HyperbolicBoundFeasible is the Bini–Buttazzo sufficient test: Π(U_i + 1) ≤ 2.
// It dominates the Liu & Layland bound and has the same limits.
func HyperbolicBoundFeasible(ts TaskSet) bool {
	if len(ts) == 0 || !ts.ImplicitDeadlines() {
		return false
	}
	product := 1.0
	for _, t := range ts {
		product *= t.Utilization() + 1
	}
	return product <= HyperbolicLimit
}

// UtilizationHeadroom returns how much utilization can be added before the
// Liu & Layland bound for len(ts) tasks is reached. Negative means the bound is
// already exceeded and only an exact test can decide.
func UtilizationHeadroom(ts TaskSet) float64 {
	return LiuLaylandBound(len(ts)) - ts.Utilization()
}

// CheckUtilization returns an error describing the first reason the set cannot
// be accepted on utilization alone: U > 1 (infeasible under any scheduler) or
// U above the Liu & Layland bound (needs an exact test). nil means the
// sufficient bound already guarantees schedulability.
func CheckUtilization(ts TaskSet) error {
	u := ts.Utilization()
	bound := LiuLaylandBound(len(ts))

	if ts.Overloaded() {
		return fmt.Errorf("utilization %.4f exceeds 1: no scheduler can meet every deadline\n"+
			"  Tasks: %d\n"+
			"  Action: reduce execution times or lengthen periods", u, len(ts))
	}
	if !ts.ImplicitDeadlines() {
		return fmt.Errorf("utilization bound does not apply to explicit deadlines (U=%.4f)", u)
	}
	if u > bound {
		return fmt.Errorf("utilization %.4f exceeds the Liu & Layland bound %.4f for %d tasks\n"+
			"  Headroom: %.4f\n"+
			"  Action: run the completion-time or scheduling-point test",
			u, bound, len(ts), bound-u)
	}
	return nil
}
