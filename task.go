package feasibility

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Task is one periodic task: every Period time units a job is released that
// needs at most WCET units of processor time and must finish within Deadline
// units of its release. Units are arbitrary but must be consistent across a set.
type Task struct {
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Period   int64  `json:"period" yaml:"period"`
	WCET     int64  `json:"wcet" yaml:"wcet"`
	Deadline int64  `json:"deadline" yaml:"deadline"`
}

// Utilization returns C/T.
func (t Task) Utilization() float64 {
	return float64(t.WCET) / float64(t.Period)
}

// TaskSet is an ordered sequence of tasks. Index 0 has the highest priority.
// The analyzer never reorders a set; use Sorted to establish an order first.
type TaskSet []Task

// Implicit builds a task set with deadlines equal to periods.
func Implicit(periods, wcets []int64) (TaskSet, error) {
	if len(periods) != len(wcets) {
		return nil, inputError(CodeShape, -1, "", 0,
			"%d periods but %d execution times", len(periods), len(wcets))
	}
	ts := make(TaskSet, len(periods))
	for i := range periods {
		ts[i] = Task{Period: periods[i], WCET: wcets[i], Deadline: periods[i]}
	}
	return ts, nil
}

// Utilization returns Σ C_i/T_i. It is informational: neither exact test uses it.
func (ts TaskSet) Utilization() float64 {
	var u float64
	for _, t := range ts {
		u += t.Utilization()
	}
	return u
}

// Overloaded reports whether Σ C_i/T_i > 1, computed exactly.
// Float summation would misjudge sets that sit exactly on U = 1.
// Tasks with a non-positive period are skipped; call Validate first.
func (ts TaskSet) Overloaded() bool {
	sum := new(big.Rat)
	for _, t := range ts {
		if t.Period <= 0 {
			continue
		}
		sum.Add(sum, big.NewRat(t.WCET, t.Period))
	}
	return sum.Cmp(big.NewRat(1, 1)) > 0
}

// Hyperperiod returns the least common multiple of all periods.
// ok is false when the result does not fit in an int64.
func (ts TaskSet) Hyperperiod() (h int64, ok bool) {
	h = 1
	for _, t := range ts {
		g := gcd(h, t.Period)
		m, fits := mulChecked(h/g, t.Period)
		if !fits {
			return 0, false
		}
		h = m
	}
	return h, true
}

// Workload is an upper bound on the steps the exact tests take on ts:
//
//	Σ_i (2 + Σ_{k<=i} floor(max(D_i, T_i) / T_k))
//
// Every completion-time iteration except the last crosses a release of some
// higher-priority task, and every scheduling point is a release before the
// horizon, so both scans are covered. The sum saturates at math.MaxInt64.
// Only meaningful on a valid set.
func (ts TaskSet) Workload() int64 {
	var w int64
	for i := range ts {
		window := max(ts[i].Deadline, ts[i].Period)
		w = satAdd(w, 2)
		for k := 0; k <= i; k++ {
			w = satAdd(w, window/ts[k].Period)
		}
	}
	return w
}

// ImplicitDeadlines reports whether every task has D == T.
func (ts TaskSet) ImplicitDeadlines() bool {
	for _, t := range ts {
		if t.Deadline != t.Period {
			return false
		}
	}
	return true
}

// Summary renders the set the way the course driver printed it:
//
//	U=0.73 (C1=1, C2=1, C3=2; T1=2, T2=10, T3=15; T=D)
func (ts TaskSet) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "U=%4.2f (", ts.Utilization())
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "C%d=%d", i+1, t.WCET)
	}
	b.WriteString("; ")
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "T%d=%d", i+1, t.Period)
	}
	if ts.ImplicitDeadlines() {
		b.WriteString("; T=D)")
		return b.String()
	}
	b.WriteString("; ")
	for i, t := range ts {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "D%d=%d", i+1, t.Deadline)
	}
	b.WriteString(")")
	return b.String()
}

// Policy is the rule a task set's index order is expected to follow.
type Policy string

const (
	RateMonotonic     Policy = "rate-monotonic"     // Non-decreasing period
	DeadlineMonotonic Policy = "deadline-monotonic" // Non-decreasing deadline
	Explicit          Policy = "explicit"           // Caller-assigned, not checked
)

// ParsePolicy accepts the long names and the short forms rm, dm.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "rm", string(RateMonotonic):
		return RateMonotonic, nil
	case "dm", string(DeadlineMonotonic):
		return DeadlineMonotonic, nil
	case string(Explicit):
		return Explicit, nil
	}
	return "", inputError(CodeUnknownPolicy, -1, "", 0,
		"unknown priority policy %q (want rm, dm or explicit)", s)
}

// key returns the quantity the policy orders by.
func (p Policy) key(t Task) int64 {
	if p == DeadlineMonotonic {
		return t.Deadline
	}
	return t.Period
}

// Sorted returns a copy of ts in the policy's priority order. Ties keep their
// relative order. Explicit returns an unchanged copy.
func (ts TaskSet) Sorted(p Policy) TaskSet {
	out := make(TaskSet, len(ts))
	copy(out, ts)
	if p == Explicit {
		return out
	}
	sort.SliceStable(out, func(i, j int) bool {
		return p.key(out[i]) < p.key(out[j])
	})
	return out
}

// Validate rejects sets the analyzer cannot reason about: empty sets,
// non-positive parameters and orders that contradict the policy.
func (ts TaskSet) Validate(p Policy) error {
	if len(ts) == 0 {
		return inputError(CodeEmptyTaskSet, -1, "", 0, "task set is empty")
	}
	switch p {
	case RateMonotonic, DeadlineMonotonic, Explicit:
	default:
		return inputError(CodeUnknownPolicy, -1, "", 0, "unknown priority policy %q", p)
	}

	for i, t := range ts {
		if t.Period <= 0 {
			return inputError(CodeNonPositive, i, "period", t.Period, "period must be positive")
		}
		if t.WCET <= 0 {
			return inputError(CodeNonPositive, i, "wcet", t.WCET, "execution time must be positive")
		}
		if t.Deadline <= 0 {
			return inputError(CodeNonPositive, i, "deadline", t.Deadline, "deadline must be positive")
		}
	}

	if p == Explicit {
		return nil
	}
	for i := 1; i < len(ts); i++ {
		prev, cur := p.key(ts[i-1]), p.key(ts[i])
		if cur < prev {
			return inputError(CodePriorityOrder, i, "", 0,
				"tasks are not in %s order: %d follows %d", p, cur, prev)
		}
	}
	return nil
}
