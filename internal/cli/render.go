package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/alexshd/feasibility"
)

const (
	completionHeader = "******** Completion Test Feasibility Example"
	pointHeader      = "******** Scheduling Point Feasibility Example"
)

type styles struct {
	feasible   lipgloss.Style
	infeasible lipgloss.Style
	header     lipgloss.Style
	muted      lipgloss.Style
}

func newStyles(w io.Writer, noColor bool) styles {
	r := lipgloss.NewRenderer(w)
	if noColor {
		plain := r.NewStyle()
		return styles{feasible: plain, infeasible: plain, header: plain, muted: plain}
	}
	return styles{
		feasible:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		infeasible: r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		header:     r.NewStyle().Bold(true),
		muted:      r.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

func (s styles) verdict(ok bool) string {
	if ok {
		return s.feasible.Render(string(feasibility.VerdictFeasible))
	}
	return s.infeasible.Render(string(feasibility.VerdictInfeasible))
}

func (s styles) mark(ok bool) string {
	if ok {
		return s.feasible.Render("✓")
	}
	return s.infeasible.Render("✗")
}

type namedReport struct {
	Name    string `json:"name"`
	Summary string `json:"summary"`
	feasibility.Report
}

// printCheck writes both test sections in the course driver's layout:
//
//	******** Completion Test Feasibility Example
//	Ex-0 U=0.73 (C1=1, C2=1, C3=2; T1=2, T2=10, T3=15; T=D): FEASIBLE
func (a *app) printCheck(reports []namedReport, verbose bool) {
	w := a.out
	s := a.styles

	fmt.Fprintln(w, s.header.Render(completionHeader))
	for _, r := range reports {
		fmt.Fprintf(w, "%s %s: %s\n", r.Name, r.Summary, s.verdict(r.CompletionTime))
		if !verbose {
			continue
		}
		for _, resp := range r.Responses {
			fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("  task %d: completion %d, deadline %d, %d iterations",
				resp.Index+1, resp.Completion, r.Tasks[resp.Index].Deadline, resp.Iterations))+" "+s.mark(resp.Feasible))
		}
	}

	fmt.Fprint(w, "\n\n")
	fmt.Fprintln(w, s.header.Render(pointHeader))
	for _, r := range reports {
		fmt.Fprintf(w, "%s %s: %s\n", r.Name, r.Summary, s.verdict(r.SchedulingPoint))
		if !verbose {
			continue
		}
		for _, p := range r.Points {
			fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("  task %d: W(%d)=%d after %d points",
				p.Index+1, p.Point, p.Demand, p.Checked))+" "+s.mark(p.Feasible))
		}
	}
}

type namedSimulation struct {
	Name     string `json:"name"`
	Summary  string `json:"summary"`
	Feasible bool   `json:"feasible"`
	feasibility.Simulation
}

func (a *app) printSimulation(ns namedSimulation) {
	w := a.out
	s := a.styles

	outcome := s.feasible.Render("NO MISSES")
	if !ns.Feasible {
		outcome = s.infeasible.Render("DEADLINE MISSES")
	}
	fmt.Fprintf(w, "%s %s: %s\n", ns.Name, ns.Summary, outcome)
	fmt.Fprintln(w, s.muted.Render(fmt.Sprintf("  hyperperiod %d, %d ticks, %d idle",
		ns.Hyperperiod, ns.Ticks, ns.IdleTicks)))

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("TASK", "RELEASED", "COMPLETED", "MISSED", "WORST", "MEAN", "P95")
	for _, tr := range ns.Tasks {
		t.Row(
			strconv.Itoa(tr.Index+1),
			strconv.Itoa(tr.Released),
			strconv.Itoa(tr.Completed),
			strconv.Itoa(tr.Missed),
			strconv.FormatInt(tr.WorstResponse, 10),
			fmt.Sprintf("%.2f", tr.Stats.Mean),
			strconv.FormatInt(tr.Stats.P95, 10),
		)
	}
	fmt.Fprintln(w, t.Render())
}
