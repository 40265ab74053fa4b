// Package feasibility decides whether a set of periodic tasks can be scheduled
// by a preemptive fixed-priority scheduler.
//
// # Overview
//
// A task i releases a job every T_i time units. Each job needs at most C_i units
// of processor time and must finish within D_i units of its release. Tasks are
// given in priority order, index 0 highest. Under rate-monotonic (RM) priorities
// the shorter period wins; under deadline-monotonic (DM) the shorter deadline.
//
// The tests never reorder a set. A set that is not in the order its policy
// requires is rejected with an InputError; TaskSet.Sorted establishes the order
// explicitly:
//
//	ts := feasibility.TaskSet{
//	    {Period: 2, WCET: 1, Deadline: 2},
//	    {Period: 10, WCET: 1, Deadline: 10},
//	    {Period: 15, WCET: 2, Deadline: 15},
//	}
//
//	ok, err := feasibility.CompletionTimeFeasible(ts)
//	if err != nil {
//	    log.Fatal(err) // empty set, non-positive value or not RM-ordered
//	}
//
// # Completion-Time Test
//
// From the critical instant (every task released at t=0) the worst-case
// completion time of task i is the least fixed point of
//
//	a = C_i + Σ_{j<i} ceil(a / T_j) · C_j
//
// starting from a = C_0 + ... + C_i. The set is feasible iff a ≤ D_i for every
// task. The iteration is stopped as soon as a passes D_i, so the test always
// terminates.
//
// # Scheduling-Point Test
//
// Task i is schedulable iff its cumulative demand fits at some scheduling point:
//
//	∃ t ∈ { l·T_k : k ≤ i, l = 1..⌊T_i/T_k⌋ } :  Σ_{j≤i} C_j · ceil(t / T_j) ≤ t
//
// Both tests are exact for D ≤ T and therefore always agree.
//
// # Utilization
//
// U = Σ C_i/T_i is informational. U > 1 is infeasible under any scheduler, and
// both tests check it exactly before iterating. Below the Liu & Layland bound
// n(2^(1/n) - 1) an implicit-deadline set is always RM-schedulable:
//
//	feasibility.UtilizationBoundFeasible(ts) // sufficient, not necessary
//	feasibility.HyperbolicBoundFeasible(ts)  // Π(U_i + 1) ≤ 2, tighter
//
// # Full Report
//
//	a := feasibility.NewAnalyzer(feasibility.Config{Policy: feasibility.DeadlineMonotonic})
//	report, err := a.Analyze(ts)
//	fmt.Println(report.Verdict, report.Reason)
//
// # Simulation
//
// Simulate replays one hyperperiod tick by tick and records every job's
// response time. It is a cross-check, not a proof: it is only as long as the
// hyperperiod, which can be large.
//
//	sim, err := feasibility.Simulate(ctx, ts, feasibility.DefaultSimulationConfig())
//
// # Testing
//
//	func TestSensorTasks(t *testing.T) {
//	    cfg := feasibility.Config{Policy: feasibility.DeadlineMonotonic}
//	    feasibility.AssertFeasible(t, sensorTasks, cfg)
//	    feasibility.AssertTestsAgree(t, sensorTasks, cfg)
//	}
package feasibility
