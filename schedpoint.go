package feasibility

import "math"

// PointResult is the scheduling-point analysis of one task.
type PointResult struct {
	Index    int   `json:"index"`   // Priority index (0 = highest)
	Point    int64 `json:"point"`   // First point t with W(t) <= t, or the last point tried
	Demand   int64 `json:"demand"`  // W(t) at Point
	Checked  int   `json:"checked"` // Points evaluated before the scan stopped
	Feasible bool  `json:"feasible"`
}

// SchedulingPointFeasible runs the scheduling-point test on a rate-monotonic
// ordered task set. Task i passes if the cumulative demand of tasks 0..i
//
//	W(t) = Σ_{j<=i} C_j · ceil(t / T_j)
//
// fits in the window, W(t) <= t, at some scheduling point t = l·T_k with
// k in 0..i and l in 1..floor(T_i/T_k). The set is feasible iff every task
// passes.
//
// When D_i < T_i the points are taken up to D_i instead of T_i and D_i itself
// is added as the last candidate, which is the constrained-deadline form of the
// same test. With D_i == T_i the two are identical.
func SchedulingPointFeasible(ts TaskSet) (bool, error) {
	return schedulingPointFeasible(ts, RateMonotonic)
}

// SchedulingPoints returns the per-task result of the scheduling-point test.
func SchedulingPoints(ts TaskSet) ([]PointResult, error) {
	if err := ts.Validate(RateMonotonic); err != nil {
		return nil, err
	}
	return schedulingPoints(ts), nil
}

func schedulingPointFeasible(ts TaskSet, p Policy) (bool, error) {
	if err := ts.Validate(p); err != nil {
		return false, err
	}
	if ts.Overloaded() {
		return false, nil
	}
	for i := range ts {
		if !schedulingPoint(ts, i).Feasible {
			return false, nil
		}
	}
	return true, nil
}

func schedulingPoints(ts TaskSet) []PointResult {
	out := make([]PointResult, len(ts))
	for i := range ts {
		out[i] = schedulingPoint(ts, i)
	}
	return out
}

func schedulingPoint(ts TaskSet, i int) PointResult {
	horizon := min(ts[i].Deadline, ts[i].Period)
	r := PointResult{Index: i}

	check := func(t int64) bool {
		r.Point = t
		r.Demand = demand(ts, i, t)
		r.Checked++
		r.Feasible = r.Demand <= t && r.Demand < math.MaxInt64
		return r.Feasible
	}

	for k := 0; k <= i; k++ {
		period := ts[k].Period
		for l := int64(1); l <= horizon/period; l++ {
			if check(l * period) {
				return r
			}
		}
	}
	// With D_i >= T_i the horizon is T_i, already reached at k = i, l = 1.
	if horizon < ts[i].Period {
		check(horizon)
	}
	return r
}

// demand is the work released by tasks 0..i in [0, t) from the critical instant.
func demand(ts TaskSet, i int, t int64) int64 {
	var w int64
	for j := 0; j <= i; j++ {
		w = satAdd(w, satMul(ts[j].WCET, ceilDiv(t, ts[j].Period)))
	}
	return w
}
