package feasibility

import (
	"errors"
	"math"
	"testing"
)

// TestCompletionTime_FeasibleScenario: U ≈ 0.73, everything fits.
func TestCompletionTime_FeasibleScenario(t *testing.T) {
	ts, _ := Implicit([]int64{2, 10, 15}, []int64{1, 1, 2})

	ok, err := CompletionTimeFeasible(ts)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected feasible: %s", ts.Summary())
	}

	responses, err := CompletionTimes(ts)
	if err != nil {
		t.Fatalf("CompletionTimes failed: %v", err)
	}

	want := []int64{1, 2, 6}
	for i, r := range responses {
		if r.Completion != want[i] {
			t.Errorf("Task %d completion: got %d, want %d", i+1, r.Completion, want[i])
		}
		if !r.Feasible {
			t.Errorf("Task %d should meet its deadline", i+1)
		}
	}

	// a: 4 → 5 → 6 → 6
	if responses[2].Iterations != 3 {
		t.Errorf("Task 3 iterations: got %d, want 3", responses[2].Iterations)
	}

	t.Logf("✓ Completion times %d, %d, %d", responses[0].Completion, responses[1].Completion, responses[2].Completion)
}

// TestCompletionTime_BurstMissesDeadline: U ≈ 0.986 but the lowest-priority
// task's burst does not fit in 7.
func TestCompletionTime_BurstMissesDeadline(t *testing.T) {
	ts, _ := Implicit([]int64{2, 5, 7}, []int64{1, 1, 2})

	ok, err := CompletionTimeFeasible(ts)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if ok {
		t.Errorf("Expected infeasible: %s", ts.Summary())
	}

	responses, _ := CompletionTimes(ts)
	if !responses[0].Feasible || !responses[1].Feasible {
		t.Errorf("Higher-priority tasks should pass: %+v", responses[:2])
	}

	last := responses[2]
	if last.Feasible {
		t.Error("Lowest-priority task should miss its deadline")
	}
	// 4 → 5 → 6 → 7 → 8, stopped once past D=7.
	if last.Completion != 8 {
		t.Errorf("Completion: got %d, want 8", last.Completion)
	}
	if last.Iterations != 4 {
		t.Errorf("Iterations: got %d, want 4", last.Iterations)
	}

	t.Logf("✓ Task 3 completes at %d > deadline 7", last.Completion)
}

// TestCompletionTime_ExactlyFullUtilization: U = 1 exactly, still feasible.
// The last task completes precisely at its deadline.
func TestCompletionTime_ExactlyFullUtilization(t *testing.T) {
	ts, _ := Implicit([]int64{3, 5, 15}, []int64{1, 2, 4})

	if ts.Overloaded() {
		t.Fatalf("U=1 must not count as overloaded (U=%.17f)", ts.Utilization())
	}

	ok, err := CompletionTimeFeasible(ts)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected feasible at U=1: %s", ts.Summary())
	}

	responses, _ := CompletionTimes(ts)
	if responses[2].Completion != 15 {
		t.Errorf("Task 3 completion: got %d, want 15", responses[2].Completion)
	}
}

// TestCompletionTime_EarlyExit verifies a grossly infeasible set stops at the
// first iterate past the deadline instead of running away.
func TestCompletionTime_EarlyExit(t *testing.T) {
	ts := TaskSet{
		{Period: 1, WCET: 1, Deadline: 1},
		{Period: 1_000_000, WCET: 1, Deadline: 1_000_000},
	}

	responses, err := CompletionTimes(ts)
	if err != nil {
		t.Fatalf("CompletionTimes failed: %v", err)
	}

	r := responses[1]
	if r.Feasible {
		t.Error("Task 2 can never run and must be infeasible")
	}
	if r.Completion <= ts[1].Deadline {
		t.Errorf("Completion %d should exceed the deadline", r.Completion)
	}
	if r.Iterations > int(ts[1].Deadline) {
		t.Errorf("Iteration count %d exceeds the deadline bound", r.Iterations)
	}

	ok, _ := CompletionTimeFeasible(ts)
	if ok {
		t.Error("Expected infeasible")
	}
}

// TestCompletionTime_WCETBeyondDeadline: the initial window already exceeds D.
func TestCompletionTime_WCETBeyondDeadline(t *testing.T) {
	ts := TaskSet{{Period: 5, WCET: 3, Deadline: 2}}

	responses, _ := CompletionTimes(ts)
	if responses[0].Feasible || responses[0].Iterations != 0 || responses[0].Completion != 3 {
		t.Errorf("Expected immediate rejection, got %+v", responses[0])
	}
}

// TestCompletionTime_ConstrainedDeadlines analyses D < T under deadline-monotonic order.
func TestCompletionTime_ConstrainedDeadlines(t *testing.T) {
	a := NewAnalyzer(Config{Policy: DeadlineMonotonic})

	fits := TaskSet{
		{Period: 4, WCET: 1, Deadline: 2},
		{Period: 6, WCET: 2, Deadline: 4},
	}
	ok, err := a.CompletionTimeFeasible(fits)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected feasible: %s", fits.Summary())
	}

	tooTight := TaskSet{
		{Period: 4, WCET: 2, Deadline: 2},
		{Period: 6, WCET: 3, Deadline: 4},
	}
	ok, err = a.CompletionTimeFeasible(tooTight)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if ok {
		t.Errorf("Expected infeasible: %s", tooTight.Summary())
	}
}

// TestCompletionTime_OverloadWithLongDeadline: U > 1 is rejected even when a
// single job would fit in a deadline longer than the period.
func TestCompletionTime_OverloadWithLongDeadline(t *testing.T) {
	ts := TaskSet{{Period: 2, WCET: 3, Deadline: 5}}

	ok, err := CompletionTimeFeasible(ts)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if ok {
		t.Error("U=1.5 must be infeasible")
	}
}

// TestCompletionTime_SaturatingArithmetic runs near the int64 limit.
func TestCompletionTime_SaturatingArithmetic(t *testing.T) {
	half := int64(math.MaxInt64 / 2)

	fits := TaskSet{
		{Period: math.MaxInt64, WCET: half, Deadline: math.MaxInt64},
		{Period: math.MaxInt64, WCET: half, Deadline: math.MaxInt64},
	}
	ok, err := CompletionTimeFeasible(fits)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if !ok {
		t.Error("Two half-utilization tasks should fit")
	}

	overflow := TaskSet{
		{Period: math.MaxInt64, WCET: half + 1, Deadline: math.MaxInt64},
		{Period: math.MaxInt64, WCET: half + 1, Deadline: math.MaxInt64},
	}
	ok, err = CompletionTimeFeasible(overflow)
	if err != nil {
		t.Fatalf("CompletionTimeFeasible failed: %v", err)
	}
	if ok {
		t.Error("Overflowing demand must be infeasible")
	}

	responses, _ := CompletionTimes(overflow)
	if responses[1].Completion != math.MaxInt64 || responses[1].Feasible {
		t.Errorf("Completion should saturate and fail, got %+v", responses[1])
	}
}

// TestCompletionTime_RejectsInvalidInput covers the input guard.
func TestCompletionTime_RejectsInvalidInput(t *testing.T) {
	tests := []struct {
		name string
		ts   TaskSet
		code ErrorCode
	}{
		{"empty", TaskSet{}, CodeEmptyTaskSet},
		{"nil", nil, CodeEmptyTaskSet},
		{"zero period", TaskSet{{Period: 0, WCET: 1, Deadline: 1}}, CodeNonPositive},
		{"negative wcet", TaskSet{{Period: 4, WCET: -1, Deadline: 4}}, CodeNonPositive},
		{"zero deadline", TaskSet{{Period: 4, WCET: 1, Deadline: 0}}, CodeNonPositive},
		{"not rate-monotonic", TaskSet{
			{Period: 10, WCET: 1, Deadline: 10},
			{Period: 2, WCET: 1, Deadline: 2},
		}, CodePriorityOrder},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompletionTimeFeasible(tt.ts)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Expected ErrInvalidInput, got %v", err)
			}

			var inputErr *InputError
			if !errors.As(err, &inputErr) {
				t.Fatalf("Expected *InputError, got %T", err)
			}
			if inputErr.Code != tt.code {
				t.Errorf("Code: got %s, want %s", inputErr.Code, tt.code)
			}

			if _, err := CompletionTimes(tt.ts); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("CompletionTimes should reject too, got %v", err)
			}
		})
	}
}
