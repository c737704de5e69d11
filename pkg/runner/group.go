package runner

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	"dev/bravebird/ui-harness-go/pkg/browser"
)

// StepFunc is an ordered test step. The shared session is injected
// explicitly; steps never reach for ambient state.
type StepFunc func(*browser.Session) error

// HookFunc runs before (setup) or after (teardown) the ordered sequence.
type HookFunc func(*browser.Session) error

// Step is one registered ordered step.
type Step struct {
	Name    string
	Ordinal int
	fn      StepFunc
}

// stepName enforces the test_NN_description convention. Exactly two digits:
// the ordinal is the execution key, and anything outside 00-99 is rejected
// rather than silently mis-sorted.
var stepName = regexp.MustCompile(`^test_(\d{2})_\w+$`)

// Group is an ordered collection of steps sharing one session, with
// optional setup/teardown hooks around the sequence.
type Group struct {
	Name     string
	Setup    HookFunc
	Teardown HookFunc

	steps []Step
}

// NewGroup creates an empty group.
func NewGroup(name string) *Group {
	return &Group{Name: name}
}

// Step registers a step. The name must encode a two-digit ordinal in the
// fixed test_NN_description position; ordinals need not be contiguous.
func (g *Group) Step(name string, fn StepFunc) error {
	m := stepName.FindStringSubmatch(name)
	if m == nil {
		return fmt.Errorf("step name %q does not match test_NN_description (two-digit ordinal required)", name)
	}
	ordinal, err := strconv.Atoi(m[1])
	if err != nil {
		return fmt.Errorf("step name %q: bad ordinal: %w", name, err)
	}
	for _, existing := range g.steps {
		if existing.Ordinal == ordinal {
			return fmt.Errorf("step name %q: ordinal %02d already registered as %q", name, ordinal, existing.Name)
		}
	}
	g.steps = append(g.steps, Step{Name: name, Ordinal: ordinal, fn: fn})
	return nil
}

// MustStep registers a step and panics on a malformed name. Suites use this
// at construction time, where a bad name is a programming error.
func (g *Group) MustStep(name string, fn StepFunc) *Group {
	if err := g.Step(name, fn); err != nil {
		panic(err)
	}
	return g
}

// Steps returns all registered steps in ascending ordinal order.
func (g *Group) Steps() []Step {
	out := make([]Step, len(g.steps))
	copy(out, g.steps)
	sort.Slice(out, func(i, j int) bool { return out[i].Ordinal < out[j].Ordinal })
	return out
}

// selected returns the steps whose ordinal lies in [initial, through],
// sorted by the numeric ordinal regardless of registration order.
func (g *Group) selected(initial, through int) []Step {
	var out []Step
	for _, step := range g.Steps() {
		if step.Ordinal >= initial && step.Ordinal <= through {
			out = append(out, step)
		}
	}
	return out
}
