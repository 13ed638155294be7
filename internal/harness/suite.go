package harness

import (
	"fmt"
	"path/filepath"
	"sort"
)

// DuplicateScenarioError is returned when two scenario files share a name.
// Names must be unique because they name the golden files.
type DuplicateScenarioError struct {
	Name   string
	First  string
	Second string
}

// Error implements the error interface.
func (e *DuplicateScenarioError) Error() string {
	return fmt.Sprintf("scenario name %q is used by both %s and %s", e.Name, e.First, e.Second)
}

// LoadDir loads every *.yaml scenario in dir, sorted by file name.
func LoadDir(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenarios in %s", dir)
	}
	sort.Strings(paths)

	scenarios := make([]*Scenario, 0, len(paths))
	byName := make(map[string]string, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		if first, ok := byName[s.Name]; ok {
			return nil, &DuplicateScenarioError{Name: s.Name, First: first, Second: path}
		}
		byName[s.Name] = path
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
