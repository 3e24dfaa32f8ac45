package corpus

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arenahq/arena/pkg/models"
)

// ProblemLoader reads the problem dictionary and per-problem test case
// directories described in spec.md §6 ("data_sources"). It is safe for
// concurrent reads once constructed, since it never mutates loaded state.
type ProblemLoader struct {
	dict     map[string]ProblemRecord
	order    []string
	testsDir string
}

// NewProblemLoader parses dictPath (a JSON object keyed by problem ID) and
// remembers testsDir, the directory containing one subdirectory per problem
// with its hidden test cases.
func NewProblemLoader(dictPath, testsDir string) (*ProblemLoader, error) {
	raw, err := os.ReadFile(dictPath)
	if err != nil {
		return nil, fmt.Errorf("read problem dictionary: %w", err)
	}

	var decoded map[string]ProblemRecord
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("parse problem dictionary: %w", err)
	}

	order := make([]string, 0, len(decoded))
	for id, rec := range decoded {
		rec.ID = id
		decoded[id] = rec
		order = append(order, id)
	}
	sort.Strings(order)

	return &ProblemLoader{dict: decoded, order: order, testsDir: testsDir}, nil
}

// ProblemIDs returns every problem ID, optionally filtered to a single
// difficulty level, in stable lexicographic order.
func (l *ProblemLoader) ProblemIDs(level *models.Level) []string {
	if level == nil {
		out := make([]string, len(l.order))
		copy(out, l.order)
		return out
	}
	out := make([]string, 0, len(l.order))
	for _, id := range l.order {
		if l.dict[id].Level() == *level {
			out = append(out, id)
		}
	}
	return out
}

// LoadProblem returns the dictionary record for id.
func (l *ProblemLoader) LoadProblem(id string) (ProblemRecord, error) {
	rec, ok := l.dict[id]
	if !ok {
		return ProblemRecord{}, fmt.Errorf("corpus: unknown problem %q", id)
	}
	return rec, nil
}

// LoadSolution returns the reference solution snippet for id, used by hint
// level 3 ("partial solution reveal", §4.6).
func (l *ProblemLoader) LoadSolution(id string) (string, error) {
	rec, err := l.LoadProblem(id)
	if err != nil {
		return "", err
	}
	return rec.Solution, nil
}

// LoadTestCases reads every hidden test case for id from
// <testsDir>/<id>/, pairing input/output files lexicographically. Two
// naming conventions are supported, matching what real online-judge
// datasets use interchangeably: "<name>.in"/"<name>.out" pairs, and
// "I<name>"/"O<name>" pairs. Files of both conventions are collected
// together and an input is paired with the output that has the same base
// name, whichever convention either file uses; the resulting cases are
// returned sorted by that base name.
func (l *ProblemLoader) LoadTestCases(id string) ([]models.Case, error) {
	dir := filepath.Join(l.testsDir, id)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read test case directory %s: %w", dir, err)
	}

	ins := map[string]string{}
	outs := map[string]string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".in"):
			ins[strings.TrimSuffix(name, ".in")] = name
		case strings.HasSuffix(name, ".out"):
			outs[strings.TrimSuffix(name, ".out")] = name
		case strings.HasPrefix(name, "I"):
			ins[strings.TrimPrefix(name, "I")] = name
		case strings.HasPrefix(name, "O"):
			outs[strings.TrimPrefix(name, "O")] = name
		}
	}

	bases := make([]string, 0, len(ins))
	for base := range ins {
		if _, ok := outs[base]; ok {
			bases = append(bases, base)
		}
	}
	sort.Strings(bases)

	cases := make([]models.Case, 0, len(bases))
	for _, base := range bases {
		input, err := os.ReadFile(filepath.Join(dir, ins[base]))
		if err != nil {
			return nil, fmt.Errorf("read test input %s: %w", ins[base], err)
		}
		output, err := os.ReadFile(filepath.Join(dir, outs[base]))
		if err != nil {
			return nil, fmt.Errorf("read test output %s: %w", outs[base], err)
		}
		cases = append(cases, models.Case{
			ID:             id + "_" + base,
			Input:          input,
			ExpectedOutput: output,
		})
	}
	return cases, nil
}
