package harness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roach88/casesync/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nSubmissions:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s %s %d\n", event.Seq, event.Person, event.Kind, event.Outcome, event.Result)
		}
	}
	return buf.String()
}

// selected reports whether event matches the person and kind filters of a.
func selected(event TraceEvent, a Assertion) bool {
	if a.Person != "" && event.Person != a.Person {
		return false
	}
	if a.Kind != "" && event.Kind != a.Kind {
		return false
	}
	return true
}

func describe(a Assertion) string {
	desc := "person " + a.Person
	if a.Kind != "" {
		desc += " (" + a.Kind + ")"
	}
	return desc
}

// assertSubmitted checks that the trace holds a submission of the person
// with the expected outcome.
func assertSubmitted(trace []TraceEvent, a Assertion) error {
	var seen []string
	for _, event := range trace {
		if !selected(event, a) {
			continue
		}
		if a.Outcome == "" || event.Outcome == a.Outcome {
			return nil
		}
		seen = append(seen, event.Outcome)
	}

	actual := "no submission"
	if len(seen) > 0 {
		actual = "outcomes " + strings.Join(seen, ", ")
	}
	return &AssertionError{
		Type:     AssertSubmitted,
		Expected: fmt.Sprintf("%s submitted with outcome %q", describe(a), a.Outcome),
		Actual:   actual,
		Trace:    trace,
	}
}

// assertDocument checks the first selected document for substrings. Kind
// defaults to update.
func assertDocument(trace []TraceEvent, a Assertion) error {
	if a.Kind == "" {
		a.Kind = "update"
	}
	for _, event := range trace {
		if !selected(event, a) {
			continue
		}
		for _, want := range a.Contains {
			if !strings.Contains(event.Payload, want) {
				return &AssertionError{
					Type:     AssertDocument,
					Expected: fmt.Sprintf("document of %s to contain %q", describe(a), want),
					Actual:   event.Payload,
				}
			}
		}
		for _, unwanted := range a.Excludes {
			if strings.Contains(event.Payload, unwanted) {
				return &AssertionError{
					Type:     AssertDocument,
					Expected: fmt.Sprintf("document of %s not to contain %q", describe(a), unwanted),
					Actual:   event.Payload,
				}
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertDocument,
		Expected: fmt.Sprintf("a document of %s", describe(a)),
		Actual:   "no submission",
		Trace:    trace,
	}
}

// assertSubmissionOrder checks that persons were first submitted in the
// specified order. Submissions need not be consecutive.
func assertSubmissionOrder(trace []TraceEvent, a Assertion) error {
	positions := make(map[string]int)
	for i, event := range trace {
		if positions[event.Person] == 0 {
			positions[event.Person] = i + 1 // 1-indexed for readability
		}
	}

	for _, person := range a.Persons {
		if positions[person] == 0 {
			return &AssertionError{
				Type:     AssertSubmissionOrder,
				Expected: fmt.Sprintf("all persons submitted: %v", a.Persons),
				Actual:   fmt.Sprintf("missing person: %s", person),
				Trace:    trace,
			}
		}
	}

	for i := 1; i < len(a.Persons); i++ {
		prev, curr := a.Persons[i-1], a.Persons[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertSubmissionOrder,
				Expected: fmt.Sprintf("persons in order: %v", a.Persons),
				Actual: fmt.Sprintf("%s (pos %d) should be before %s (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Trace: trace,
			}
		}
	}
	return nil
}

// assertSubmissionCount checks the number of selected submissions.
func assertSubmissionCount(trace []TraceEvent, a Assertion) error {
	count := 0
	for _, event := range trace {
		if selected(event, a) {
			count++
		}
	}
	if count != a.Count {
		target := "all persons"
		if a.Person != "" {
			target = describe(a)
		}
		return &AssertionError{
			Type:     AssertSubmissionCount,
			Expected: fmt.Sprintf("%d submissions of %s", a.Count, target),
			Actual:   fmt.Sprintf("%d submissions", count),
			Trace:    trace,
		}
	}
	return nil
}

// countField returns the tally named by its JSON name.
func countField(name string) (func(store.Counts) int, bool) {
	fields := map[string]func(store.Counts) int{
		"persons":            func(c store.Counts) int { return c.Persons },
		"submitted":          func(c store.Counts) int { return c.Submitted },
		"rejected":           func(c store.Counts) int { return c.Rejected },
		"failed":             func(c store.Counts) int { return c.Failed },
		"unchanged":          func(c store.Counts) int { return c.Unchanged },
		"skipped":            func(c store.Counts) int { return c.Skipped },
		"data_errors":        func(c store.Counts) int { return c.DataErrors },
		"follow_up_failures": func(c store.Counts) int { return c.FollowUpFailures },
	}
	f, ok := fields[name]
	return f, ok
}

// checkExpectation validates the run totals. A run without expectation
// must have completed.
func checkExpectation(result *Result, expect *Expectation) []string {
	var errs []string
	if expect == nil {
		if result.RunError != "" {
			errs = append(errs, fmt.Sprintf("run failed: %s", result.RunError))
		}
		return errs
	}

	names := make([]string, 0, len(expect.Counts))
	for name := range expect.Counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		f, ok := countField(name)
		if !ok {
			errs = append(errs, fmt.Sprintf("expect.counts: unknown count %q", name))
			continue
		}
		if got := f(result.Counts); got != expect.Counts[name] {
			errs = append(errs, fmt.Sprintf("count %s: expected %d, got %d", name, expect.Counts[name], got))
		}
	}

	if expect.Status != "" && result.Status != expect.Status {
		errs = append(errs, fmt.Sprintf("status: expected %q, got %q", expect.Status, result.Status))
	}

	switch {
	case expect.Error == "" && result.RunError != "":
		errs = append(errs, fmt.Sprintf("run failed: %s", result.RunError))
	case expect.Error != "" && !strings.Contains(result.RunError, expect.Error):
		errs = append(errs, fmt.Sprintf("run error: expected %q, got %q", expect.Error, result.RunError))
	}
	return errs
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertSubmitted:
			err = assertSubmitted(result.Trace, assertion)
		case AssertDocument:
			err = assertDocument(result.Trace, assertion)
		case AssertSubmissionOrder:
			err = assertSubmissionOrder(result.Trace, assertion)
		case AssertSubmissionCount:
			err = assertSubmissionCount(result.Trace, assertion)
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}
