// Package taskfile reads task-set documents.
//
// A document holds one or more task sets, in YAML or JSON. Each set is given
// either as a list of tasks or as parallel arrays:
//
//	policy: rate-monotonic
//	sets:
//	  - name: Ex-0
//	    periods: [2, 10, 15]
//	    wcets:   [1, 1, 2]
//	  - name: control
//	    tasks:
//	      - {name: loop, period: 10, wcet: 2, deadline: 3}
//	      - {name: log,  period: 20, wcet: 4}
//
// A missing deadline means the deadline equals the period. A document may also
// be a single set at the top level, and a YAML stream may contain several
// documents separated by "---".
package taskfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/alexshd/feasibility"
)

// Set is one named task set in index (priority) order.
type Set struct {
	Name  string
	Tasks feasibility.TaskSet
}

// File is the decoded content of a document.
type File struct {
	Policy string // Empty when the document does not name one
	Sets   []Set
}

type rawTask struct {
	Name     string `yaml:"name"`
	Period   int64  `yaml:"period"`
	WCET     int64  `yaml:"wcet"`
	Deadline *int64 `yaml:"deadline"`
}

type rawSet struct {
	Name      string    `yaml:"name"`
	Tasks     []rawTask `yaml:"tasks"`
	Periods   []int64   `yaml:"periods"`
	WCETs     []int64   `yaml:"wcets"`
	Deadlines []int64   `yaml:"deadlines"`
}

type rawDocument struct {
	Policy string   `yaml:"policy"`
	Sets   []rawSet `yaml:"sets"`
	rawSet `yaml:",inline"`
}

// Load reads and parses the document at path.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read task file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Parse decodes every document in data. Unknown keys are rejected.
func Parse(data []byte) (File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	for doc := 0; ; doc++ {
		var raw rawDocument
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return File{}, fmt.Errorf("decode document %d: %w", doc, err)
		}

		if raw.Policy != "" {
			if f.Policy != "" && f.Policy != raw.Policy {
				return File{}, fmt.Errorf("document %d: policy %q conflicts with %q", doc, raw.Policy, f.Policy)
			}
			f.Policy = raw.Policy
		}

		sets := raw.Sets
		if !raw.rawSet.empty() {
			if len(sets) > 0 {
				return File{}, fmt.Errorf("document %d: use either top-level tasks or a sets list, not both", doc)
			}
			sets = []rawSet{raw.rawSet}
		}

		for _, rs := range sets {
			n := len(f.Sets)
			s, err := rs.build()
			if err != nil {
				return File{}, fmt.Errorf("set %d: %w", n, err)
			}
			if s.Name == "" {
				s.Name = fmt.Sprintf("Ex-%d", n)
			}
			f.Sets = append(f.Sets, s)
		}
	}

	if len(f.Sets) == 0 {
		return File{}, &feasibility.InputError{
			Code:    feasibility.CodeEmptyTaskSet,
			Index:   -1,
			Message: "document contains no task sets",
		}
	}
	return f, nil
}

func (rs rawSet) empty() bool {
	return len(rs.Tasks) == 0 && len(rs.Periods) == 0 && len(rs.WCETs) == 0 && len(rs.Deadlines) == 0
}

func (rs rawSet) build() (Set, error) {
	s := Set{Name: rs.Name}
	parallel := len(rs.Periods) > 0 || len(rs.WCETs) > 0 || len(rs.Deadlines) > 0

	switch {
	case len(rs.Tasks) > 0 && parallel:
		return Set{}, shapeError("use either tasks or periods/wcets, not both")

	case len(rs.Tasks) > 0:
		s.Tasks = make(feasibility.TaskSet, len(rs.Tasks))
		for i, t := range rs.Tasks {
			d := t.Period
			if t.Deadline != nil {
				d = *t.Deadline
			}
			s.Tasks[i] = feasibility.Task{Name: t.Name, Period: t.Period, WCET: t.WCET, Deadline: d}
		}

	default:
		ts, err := feasibility.Implicit(rs.Periods, rs.WCETs)
		if err != nil {
			return Set{}, err
		}
		if len(rs.Deadlines) > 0 {
			if len(rs.Deadlines) != len(ts) {
				return Set{}, shapeError("%d periods but %d deadlines", len(ts), len(rs.Deadlines))
			}
			for i := range ts {
				ts[i].Deadline = rs.Deadlines[i]
			}
		}
		s.Tasks = ts
	}
	return s, nil
}

func shapeError(format string, args ...any) error {
	return &feasibility.InputError{
		Code:    feasibility.CodeShape,
		Index:   -1,
		Message: fmt.Sprintf(format, args...),
	}
}
