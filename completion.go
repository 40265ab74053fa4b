package feasibility

import "math"

// Response is the completion-time analysis of one task.
type Response struct {
	Index int `json:"index"` // Priority index (0 = highest)

	// Completion is the converged worst-case completion time from the critical
	// instant. When the task misses its deadline the iteration stops early and
	// Completion holds the first iterate past the deadline, which is a lower
	// bound on the true response time.
	Completion int64 `json:"completion"`

	Iterations int  `json:"iterations"` // Fixed-point steps taken
	Feasible   bool `json:"feasible"`   // Completion <= Deadline
}

// CompletionTimeFeasible runs the completion-time test on a rate-monotonic
// ordered task set. It returns true iff every task's worst-case completion
// time, measured from a simultaneous release of it and all higher-priority
// tasks, is within its deadline.
//
// For each task i the candidate window starts at a = C_0 + ... + C_i and is
// iterated as
//
//	a' = C_i + Σ_{j<i} ceil(a / T_j) · C_j
//
// until a' == a. The sequence never decreases, so once a exceeds D_i the task
// is declared infeasible without waiting for convergence. That bound makes the
// test total: it finishes in at most D_i steps per task.
func CompletionTimeFeasible(ts TaskSet) (bool, error) {
	return completionTimeFeasible(ts, RateMonotonic)
}

// CompletionTimes returns the per-task result of the completion-time test.
// Every task is analysed, including those after the first failure.
func CompletionTimes(ts TaskSet) ([]Response, error) {
	if err := ts.Validate(RateMonotonic); err != nil {
		return nil, err
	}
	return completionTimes(ts), nil
}

func completionTimeFeasible(ts TaskSet, p Policy) (bool, error) {
	if err := ts.Validate(p); err != nil {
		return false, err
	}
	if ts.Overloaded() {
		return false, nil
	}
	for i := range ts {
		if !completionTime(ts, i).Feasible {
			return false, nil
		}
	}
	return true, nil
}

func completionTimes(ts TaskSet) []Response {
	out := make([]Response, len(ts))
	for i := range ts {
		out[i] = completionTime(ts, i)
	}
	return out
}

// completionTime iterates task i to its fixed point or past its deadline.
func completionTime(ts TaskSet, i int) Response {
	deadline := ts[i].Deadline

	var a int64
	for j := 0; j <= i; j++ {
		a = satAdd(a, ts[j].WCET)
	}

	r := Response{Index: i}
	for a <= deadline {
		next := ts[i].WCET
		for j := 0; j < i; j++ {
			next = satAdd(next, satMul(ceilDiv(a, ts[j].Period), ts[j].WCET))
		}
		r.Iterations++
		if next == a {
			break
		}
		a = next
	}

	r.Completion = a
	// A saturated sum no longer measures anything.
	r.Feasible = a <= deadline && a < math.MaxInt64
	return r
}
