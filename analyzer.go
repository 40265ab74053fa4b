package feasibility

import (
	"fmt"
	"strings"
)

// Verdict is the analyzer's decision for a whole task set.
type Verdict string

const (
	VerdictFeasible   Verdict = "FEASIBLE"
	VerdictInfeasible Verdict = "INFEASIBLE"
)

// Config controls which priority order the analyzer accepts.
type Config struct {
	Policy Policy // Order the task set must already be in (default: rate-monotonic)
}

// DefaultConfig returns the rate-monotonic configuration used by the
// package-level test functions.
func DefaultConfig() Config {
	return Config{Policy: RateMonotonic}
}

// Report is the full analysis of one task set.
type Report struct {
	Tasks  TaskSet `json:"tasks"`
	Policy Policy  `json:"policy"`

	Utilization      float64 `json:"utilization"`       // Σ C_i/T_i
	UtilizationBound float64 `json:"utilization_bound"` // Liu & Layland bound for len(Tasks)
	BoundFeasible    bool    `json:"bound_feasible"`    // Sufficient test passed (implicit deadlines only)

	CompletionTime  bool `json:"completion_time"`  // Completion-time test verdict
	SchedulingPoint bool `json:"scheduling_point"` // Scheduling-point test verdict

	Responses []Response    `json:"responses"` // Per-task completion times
	Points    []PointResult `json:"points"`    // Per-task scheduling points

	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
}

// Feasible reports whether both exact tests accepted the set.
func (r Report) Feasible() bool {
	return r.Verdict == VerdictFeasible
}

// Analyzer runs both exact tests plus the sufficient bounds under one policy.
// It holds no state between calls.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer creates an analyzer. A zero Policy means rate-monotonic.
func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.Policy == "" {
		cfg.Policy = RateMonotonic
	}
	return &Analyzer{cfg: cfg}
}

// Policy returns the priority order the analyzer enforces.
func (a *Analyzer) Policy() Policy {
	return a.cfg.Policy
}

// CompletionTimeFeasible runs the completion-time test under the analyzer's policy.
func (a *Analyzer) CompletionTimeFeasible(ts TaskSet) (bool, error) {
	return completionTimeFeasible(ts, a.cfg.Policy)
}

// SchedulingPointFeasible runs the scheduling-point test under the analyzer's policy.
func (a *Analyzer) SchedulingPointFeasible(ts TaskSet) (bool, error) {
	return schedulingPointFeasible(ts, a.cfg.Policy)
}

// Analyze validates ts and runs every test on it. The set is FEASIBLE only when
// both exact tests accept it; for constrained deadlines (D ≤ T) they always agree.
func (a *Analyzer) Analyze(ts TaskSet) (Report, error) {
	if err := ts.Validate(a.cfg.Policy); err != nil {
		return Report{}, fmt.Errorf("analyze: %w", err)
	}

	responses := completionTimes(ts)
	points := schedulingPoints(ts)
	overloaded := ts.Overloaded()
	ct, sp := !overloaded, !overloaded
	for i := range ts {
		ct = ct && responses[i].Feasible
		sp = sp && points[i].Feasible
	}

	r := Report{
		Tasks:            ts,
		Policy:           a.cfg.Policy,
		Utilization:      ts.Utilization(),
		UtilizationBound: LiuLaylandBound(len(ts)),
		BoundFeasible:    UtilizationBoundFeasible(ts),
		CompletionTime:   ct,
		SchedulingPoint:  sp,
		Responses:        responses,
		Points:           points,
		Verdict:          VerdictInfeasible,
	}
	if ct && sp {
		r.Verdict = VerdictFeasible
	}
	r.Reason = explain(r, ts)
	return r, nil
}

func explain(r Report, ts TaskSet) string {
	if r.Feasible() {
		var b strings.Builder
		fmt.Fprintf(&b, "all %d tasks meet their deadlines (U=%.4f)", len(ts), r.Utilization)
		if r.BoundFeasible {
			fmt.Fprintf(&b, "\n  Within Liu & Layland bound %.4f: headroom %.4f",
				r.UtilizationBound, r.UtilizationBound-r.Utilization)
		}
		slack := r.Responses[0]
		for _, resp := range r.Responses {
			if ts[resp.Index].Deadline-resp.Completion < ts[slack.Index].Deadline-slack.Completion {
				slack = resp
			}
		}
		fmt.Fprintf(&b, "\n  Tightest task: %d (completion %d, deadline %d)",
			slack.Index+1, slack.Completion, ts[slack.Index].Deadline)
		return b.String()
	}

	if ts.Overloaded() {
		return fmt.Sprintf("utilization %.4f exceeds 1: no scheduler can meet every deadline", r.Utilization)
	}

	for _, resp := range r.Responses {
		if resp.Feasible {
			continue
		}
		p := r.Points[resp.Index]
		return fmt.Sprintf("task %d misses its deadline\n"+
			"  Completion time: %d > deadline %d (after %d iterations)\n"+
			"  Demand at scheduling point %d: %d",
			resp.Index+1, resp.Completion, ts[resp.Index].Deadline, resp.Iterations,
			p.Point, p.Demand)
	}

	// Only reachable when the exact tests disagree, which needs D > T.
	return fmt.Sprintf("tests disagree: completion-time=%t scheduling-point=%t "+
		"(deadlines beyond periods are outside the exact analysis)", r.CompletionTime, r.SchedulingPoint)
}
