package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/roach88/casesync/internal/remote"
)

// DefaultToday is the run date of scenarios that do not set one.
const DefaultToday = "2026-10-17"

// Scenario describes one sync run against a scripted remote system and the
// outcome it must produce.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Today is the run date (YYYY-MM-DD). Defaults to DefaultToday.
	Today string `yaml:"today,omitempty"`

	// Engine overrides the default reconciliation switches.
	Engine *EngineSwitches `yaml:"engine,omitempty"`

	// Remote holds the rows of the remote system keyed by row tag
	// (ADMINDEL, ROLLE, PERSON, PERNAVN, PERADR, ADRESSEKP, PERROLLE, PERKLAR).
	Remote map[string][]map[string]string `yaml:"remote"`

	// Truncate lists row tags whose fetch reports too many rows.
	Truncate []string `yaml:"truncate,omitempty"`

	// Replies scripts the remote answers to submissions, in order. Once
	// they run out every submission is accepted.
	Replies []Reply `yaml:"replies,omitempty"`

	// Import is the inline import document. ImportFile names one instead,
	// relative to the scenario file. Exactly one must be set.
	Import     string `yaml:"import,omitempty"`
	ImportFile string `yaml:"import_file,omitempty"`

	// Expect holds the expected run totals.
	Expect *Expectation `yaml:"expect,omitempty"`

	// Assertions validate the journaled submissions.
	Assertions []Assertion `yaml:"assertions"`
}

// EngineSwitches are the reconciliation switches a scenario can set.
// Unset fields keep their defaults.
type EngineSwitches struct {
	TwoPhaseNameChange *bool    `yaml:"two_phase_name_change,omitempty"`
	InitialsFallback   *bool    `yaml:"initials_fallback,omitempty"`
	AddressTypes       []string `yaml:"address_types,omitempty"`
	DefaultOperatorID  int64    `yaml:"default_operator_id,omitempty"`
}

// Reply is one scripted submission answer: a result value, or a remote
// fault when Fault is set.
type Reply struct {
	Value int    `yaml:"value"`
	Fault string `yaml:"fault,omitempty"`
}

// Expectation validates the run as a whole.
type Expectation struct {
	// Counts is a subset of the journaled tallies, keyed by their JSON
	// names (persons, submitted, rejected, failed, unchanged, skipped,
	// data_errors, follow_up_failures).
	Counts map[string]int `yaml:"counts,omitempty"`

	// Status is the journaled run status (completed or failed).
	Status string `yaml:"status,omitempty"`

	// Error must be a substring of the fatal run error.
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the journaled submissions.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Person selects the submissions of one person.
	Person string `yaml:"person,omitempty"`

	// Kind selects update or follow_up submissions.
	Kind string `yaml:"kind,omitempty"`

	// Outcome is the expected journaled outcome (used by submitted).
	Outcome string `yaml:"outcome,omitempty"`

	// Contains and Excludes are substrings of the document (used by
	// document).
	Contains []string `yaml:"contains,omitempty"`
	Excludes []string `yaml:"excludes,omitempty"`

	// Persons is the expected submission order (used by submission_order).
	Persons []string `yaml:"persons,omitempty"`

	// Count is the expected number of submissions (used by
	// submission_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertSubmitted       = "submitted"
	AssertDocument        = "document"
	AssertSubmissionOrder = "submission_order"
	AssertSubmissionCount = "submission_count"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected, and import_file is resolved relative to the scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.ImportFile != "" && !filepath.IsAbs(scenario.ImportFile) {
		scenario.ImportFile = filepath.Join(filepath.Dir(path), scenario.ImportFile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// importDocument returns the import XML of s.
func (s *Scenario) importDocument() ([]byte, error) {
	if s.ImportFile == "" {
		return []byte(s.Import), nil
	}
	return os.ReadFile(s.ImportFile)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if (s.Import == "") == (s.ImportFile == "") {
		return fmt.Errorf("exactly one of import and import_file is required")
	}
	if s.ImportFile != "" {
		if _, err := os.Stat(s.ImportFile); err != nil {
			return fmt.Errorf("import file not found: %s", s.ImportFile)
		}
	}
	if s.Today != "" {
		if _, err := time.Parse(time.DateOnly, s.Today); err != nil {
			return fmt.Errorf("today: %w", err)
		}
	}
	if s.Expect == nil && len(s.Assertions) == 0 {
		return fmt.Errorf("expect or assertions is required")
	}

	for tag := range s.Remote {
		if _, ok := datasetByTag(tag); !ok {
			return fmt.Errorf("remote: unknown row tag %q", tag)
		}
	}
	for _, tag := range s.Truncate {
		if _, ok := datasetByTag(tag); !ok {
			return fmt.Errorf("truncate: unknown row tag %q", tag)
		}
	}
	if s.Expect != nil {
		for name := range s.Expect.Counts {
			if _, ok := countField(name); !ok {
				return fmt.Errorf("expect.counts: unknown count %q", name)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertSubmitted:
		if a.Person == "" {
			return fmt.Errorf("assertions[%d]: person is required for submitted", index)
		}
	case AssertDocument:
		if a.Person == "" {
			return fmt.Errorf("assertions[%d]: person is required for document", index)
		}
		if len(a.Contains) == 0 && len(a.Excludes) == 0 {
			return fmt.Errorf("assertions[%d]: contains or excludes is required for document", index)
		}
	case AssertSubmissionOrder:
		if len(a.Persons) == 0 {
			return fmt.Errorf("assertions[%d]: persons list is required for submission_order", index)
		}
	case AssertSubmissionCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for submission_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

var datasets = []remote.Dataset{
	remote.OrgUnits,
	remote.RoleTypes,
	remote.Persons,
	remote.Names,
	remote.AddressLinks,
	remote.AddressDetails,
	remote.Roles,
	remote.Permissions,
}

func datasetByTag(tag string) (remote.Dataset, bool) {
	for _, ds := range datasets {
		if ds.RowTag == tag {
			return ds, true
		}
	}
	return remote.Dataset{}, false
}
