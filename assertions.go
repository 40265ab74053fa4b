package feasibility

import (
	"fmt"
	"testing"
)

// AssertFeasible verifies that both exact tests accept ts under cfg.Policy.
//
// Use it to pin a task set that must keep meeting its deadlines as execution
// time budgets are revised:
//
//	func TestControlLoopBudget(t *testing.T) {
//	    feasibility.AssertFeasible(t, controlTasks, feasibility.Config{Policy: feasibility.DeadlineMonotonic})
//	}
func AssertFeasible(t testing.TB, ts TaskSet, cfg Config) {
	t.Helper()

	report, err := NewAnalyzer(cfg).Analyze(ts)
	if err != nil {
		t.Fatalf("Task set rejected: %v", err)
	}

	if !report.CompletionTime {
		t.Errorf("Completion-time test failed: %s\n%s", ts.Summary(), report.Reason)
	}
	if !report.SchedulingPoint {
		t.Errorf("Scheduling-point test failed: %s\n%s", ts.Summary(), report.Reason)
	}

	t.Logf("✓ Feasible: %s", ts.Summary())
}

// AssertInfeasible verifies that both exact tests reject ts under cfg.Policy.
func AssertInfeasible(t testing.TB, ts TaskSet, cfg Config) {
	t.Helper()

	report, err := NewAnalyzer(cfg).Analyze(ts)
	if err != nil {
		t.Fatalf("Task set rejected: %v", err)
	}

	if report.CompletionTime {
		t.Errorf("Completion-time test accepted an infeasible set: %s", ts.Summary())
	}
	if report.SchedulingPoint {
		t.Errorf("Scheduling-point test accepted an infeasible set: %s", ts.Summary())
	}

	t.Logf("✓ Infeasible: %s", ts.Summary())
}

// AssertTestsAgree verifies the completion-time and scheduling-point tests
// return the same verdict, as they must for constrained deadlines.
func AssertTestsAgree(t testing.TB, ts TaskSet, cfg Config) {
	t.Helper()

	a := NewAnalyzer(cfg)
	ct, err := a.CompletionTimeFeasible(ts)
	if err != nil {
		t.Fatalf("Completion-time test rejected input: %v", err)
	}
	sp, err := a.SchedulingPointFeasible(ts)
	if err != nil {
		t.Fatalf("Scheduling-point test rejected input: %v", err)
	}

	if ct != sp {
		t.Errorf("Tests disagree on %s\n"+
			"  Completion-time:  %t\n"+
			"  Scheduling-point: %t",
			ts.Summary(), ct, sp)
	}
}

// PrintAnalysis logs a readable report.
func PrintAnalysis(t testing.TB, r Report) {
	t.Helper()

	t.Logf("\n=== Feasibility Analysis ===")
	t.Logf("Tasks:       %s", r.Tasks.Summary())
	t.Logf("Policy:      %s", r.Policy)
	t.Logf("Utilization: %.4f (Liu & Layland bound %.4f)", r.Utilization, r.UtilizationBound)
	t.Logf("")

	t.Logf("Task  C     T     D     Completion  Point  Demand")
	t.Logf("----  ----  ----  ----  ----------  -----  ------")
	for i, task := range r.Tasks {
		resp, pt := r.Responses[i], r.Points[i]
		t.Logf("%-4d  %-4d  %-4d  %-4d  %-10s  %-5d  %d",
			i+1, task.WCET, task.Period, task.Deadline,
			mark(resp.Completion, resp.Feasible), pt.Point, pt.Demand)
	}

	t.Logf("")
	t.Logf("Completion-time: %t  Scheduling-point: %t", r.CompletionTime, r.SchedulingPoint)
	t.Logf("Verdict: %s", r.Verdict)
	t.Logf("%s", r.Reason)
}

func mark(v int64, ok bool) string {
	if ok {
		return fmt.Sprintf("%d ✓", v)
	}
	return fmt.Sprintf("%d ✗", v)
}
