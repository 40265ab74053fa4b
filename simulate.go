package feasibility

import (
	"context"
	"fmt"
	"math"
	"sort"
)

// SimulationConfig controls schedule simulation.
type SimulationConfig struct {
	Policy     Policy // Order the task set must be in (default: rate-monotonic)
	MaxHorizon int64  // Refuse to simulate more ticks than this
}

// DefaultSimulationConfig returns sensible defaults.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Policy:     RateMonotonic,
		MaxHorizon: 1_000_000,
	}
}

// Statistics summarises observed response times of one task.
type Statistics struct {
	Mean   float64 `json:"mean"`
	Stddev float64 `json:"stddev"`
	P50    int64   `json:"p50"`
	P95    int64   `json:"p95"`
	P99    int64   `json:"p99"`
}

// TaskTrace is what one task experienced during the simulation.
type TaskTrace struct {
	Index         int        `json:"index"`
	Released      int        `json:"released"`       // Jobs released within the hyperperiod
	Completed     int        `json:"completed"`      // Jobs that finished, late or not
	Missed        int        `json:"missed"`         // Jobs that were still running at their deadline
	WorstResponse int64      `json:"worst_response"` // Largest observed release-to-finish time
	Responses     []int64    `json:"-"`              // Release-to-finish time of each completed job
	Stats         Statistics `json:"stats"`
}

// Simulation is the outcome of running a task set from the critical instant.
type Simulation struct {
	Hyperperiod int64       `json:"hyperperiod"`
	Ticks       int64       `json:"ticks"` // Ticks actually simulated, including the drain
	IdleTicks   int64       `json:"idle_ticks"`
	Tasks       []TaskTrace `json:"tasks"`
}

// Feasible reports whether no job missed its deadline.
func (s Simulation) Feasible() bool {
	for _, t := range s.Tasks {
		if t.Missed > 0 {
			return false
		}
	}
	return true
}

type job struct {
	release   int64
	remaining int64
	deadline  int64
	missed    bool
}

// Simulate runs a preemptive fixed-priority schedule of ts, one tick at a time,
// starting with every task released at t=0. Jobs are released for one
// hyperperiod; the simulation then keeps running until all released jobs have
// finished or passed the largest relative deadline. At each tick the
// highest-priority task with pending work runs its oldest job.
//
// For constrained deadlines the synchronous release is the critical instant, so
// a miss-free simulation agrees with the exact tests and each task's worst
// response equals its completion time.
func Simulate(ctx context.Context, ts TaskSet, cfg SimulationConfig) (Simulation, error) {
	if cfg.Policy == "" {
		cfg.Policy = RateMonotonic
	}
	if err := ts.Validate(cfg.Policy); err != nil {
		return Simulation{}, err
	}

	hyper, ok := ts.Hyperperiod()
	if !ok {
		return Simulation{}, fmt.Errorf("%w: hyperperiod overflows int64", ErrHorizonTooLarge)
	}
	var maxDeadline int64
	for _, t := range ts {
		maxDeadline = max(maxDeadline, t.Deadline)
	}
	end := satAdd(hyper, maxDeadline)
	if cfg.MaxHorizon > 0 && end > cfg.MaxHorizon {
		return Simulation{}, fmt.Errorf("%w: %d ticks needed, limit %d",
			ErrHorizonTooLarge, end, cfg.MaxHorizon)
	}

	sim := Simulation{
		Hyperperiod: hyper,
		Tasks:       make([]TaskTrace, len(ts)),
	}
	queues := make([][]*job, len(ts))
	for i := range ts {
		sim.Tasks[i].Index = i
	}

	for now := int64(0); now < end; now++ {
		if now&0xfff == 0 {
			if err := ctx.Err(); err != nil {
				return Simulation{}, err
			}
		}

		if now < hyper {
			for i, t := range ts {
				if now%t.Period == 0 {
					queues[i] = append(queues[i], &job{
						release:   now,
						remaining: t.WCET,
						deadline:  now + t.Deadline,
					})
					sim.Tasks[i].Released++
				}
			}
		}

		pending := false
		for i, q := range queues {
			for _, j := range q {
				if !j.missed && now >= j.deadline {
					j.missed = true
					sim.Tasks[i].Missed++
				}
			}
			pending = pending || len(q) > 0
		}
		if !pending && now >= hyper {
			break
		}

		sim.Ticks++
		run := -1
		for i, q := range queues {
			if len(q) > 0 {
				run = i
				break
			}
		}
		if run < 0 {
			sim.IdleTicks++
			continue
		}

		j := queues[run][0]
		j.remaining--
		if j.remaining > 0 {
			continue
		}
		finish := now + 1
		trace := &sim.Tasks[run]
		response := finish - j.release
		trace.Completed++
		trace.Responses = append(trace.Responses, response)
		trace.WorstResponse = max(trace.WorstResponse, response)
		if !j.missed && finish > j.deadline {
			trace.Missed++
		}
		queues[run] = queues[run][1:]
	}

	// Jobs still queued at the end never finished.
	for i, q := range queues {
		for _, j := range q {
			if !j.missed {
				sim.Tasks[i].Missed++
			}
		}
	}

	for i := range sim.Tasks {
		sim.Tasks[i].Stats = CalculateStatistics(sim.Tasks[i].Responses)
	}
	return sim, nil
}

// CalculateStatistics computes mean, deviation and percentiles of response times.
func CalculateStatistics(responses []int64) Statistics {
	if len(responses) == 0 {
		return Statistics{}
	}

	sorted := make([]int64, len(responses))
	copy(sorted, responses)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i] < sorted[j]
	})

	var sum float64
	for _, r := range sorted {
		sum += float64(r)
	}
	mean := sum / float64(len(sorted))

	var variance float64
	for _, r := range sorted {
		diff := float64(r) - mean
		variance += diff * diff
	}

	return Statistics{
		Mean:   mean,
		Stddev: math.Sqrt(variance / float64(len(sorted))),
		P50:    sorted[len(sorted)*50/100],
		P95:    sorted[len(sorted)*95/100],
		P99:    sorted[len(sorted)*99/100],
	}
}
